package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy-hub/internal/bootstrap"
	"github.com/studybuddy/studybuddy-hub/internal/domain/shared"
	"github.com/studybuddy/studybuddy-hub/internal/infrastructure/persistence/redis"
)

func newCacheCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage cached profile cards",
	}
	cmd.AddCommand(newCacheFlushCmd(a))
	return cmd
}

func newCacheFlushCmd(a *app) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "flush",
		Short: "Drop cached profile cards (all, or one user's)",
		Example: `  studyctl cache flush
  studyctl cache flush --user 5b0e8f8c-4a57-4d5b-9a53-0c7c0f0c1a01`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			if cfg.Redis.Disabled {
				return fmt.Errorf("redis is disabled (REDIS_DISABLED=true)")
			}

			cache, err := redis.NewCache(cmd.Context(), bootstrap.RedisConfig(cfg.Redis), a.logger(cmd, cfg).Slog())
			if err != nil {
				return err
			}
			defer cache.Close()
			profiles := redis.NewProfileCache(cache)

			removed := 0
			if userID != "" {
				id, err := shared.NewUserID(userID)
				if err != nil {
					return err
				}
				if err := profiles.Invalidate(cmd.Context(), id.String()); err != nil {
					return err
				}
				removed = 1
			} else if removed, err = profiles.InvalidateAll(cmd.Context()); err != nil {
				return err
			}

			return a.print(cmd, map[string]int{"removed": removed}, func(w io.Writer) {
				fmt.Fprintf(w, "removed %d cached profile(s)\n", removed)
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "Only this user's card")
	return cmd
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy-hub/internal/application/query"
	"github.com/studybuddy/studybuddy-hub/internal/bootstrap"
)

func newProfileCmd(a *app) *cobra.Command {
	var (
		userID string
		fresh  bool
	)

	cmd := &cobra.Command{
		Use:     "profile",
		Short:   "Show a user's profile card",
		Example: `  studyctl profile --user 5b0e8f8c-4a57-4d5b-9a53-0c7c0f0c1a01 --fresh`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.config()
			if err != nil {
				return err
			}
			log := a.logger(cmd, cfg).Slog()

			infra, err := bootstrap.Connect(cmd.Context(), cfg, log)
			defer infra.Close()
			if err != nil {
				return err
			}

			svc, err := bootstrap.Wire(cfg, bootstrap.PostgresStores(infra.DB), infra.ProfileCache(), infra.Bus, log)
			if err != nil {
				return err
			}

			card, err := svc.GetProfileCard.Handle(cmd.Context(), query.GetProfileCardQuery{UserID: userID, SkipCache: fresh})
			if err != nil {
				return err
			}
			return a.print(cmd, card, func(w io.Writer) { printCard(w, card) })
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "User ID (required)")
	cmd.Flags().BoolVar(&fresh, "fresh", false, "Bypass the profile cache")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func printCard(w io.Writer, card *query.ProfileCardDTO) {
	fmt.Fprintf(w, "User:    %s\n", card.UserID)
	fmt.Fprintf(w, "Level:   %d (%s), %.0f XP, %d%% to next\n",
		card.Level.Level, card.Level.Name, card.Experience, card.Level.ProgressPercent)
	fmt.Fprintf(w, "Streak:  %d current (%s), %d longest\n", card.CurrentStreak, card.StreakStatus, card.LongestStreak)
	fmt.Fprintf(w, "Counts:  %d resources, %d shares received\n", card.ResourceCount, card.SharesReceived)
	if len(card.Badges) == 0 {
		fmt.Fprintln(w, "Badges:  none yet")
		return
	}
	fmt.Fprintln(w, "Badges:")
	for _, b := range card.Badges {
		marker := " "
		if card.EquippedBadge != nil && card.EquippedBadge.Category == b.Category {
			marker = "*"
		}
		fmt.Fprintf(w, "  %s %-16s %-8s (%d)\n", marker, b.Category, b.Tier, b.Count)
	}
}

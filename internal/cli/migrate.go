package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy-hub/internal/bootstrap"
	"github.com/studybuddy/studybuddy-hub/internal/infrastructure/persistence/postgres"
	"github.com/studybuddy/studybuddy-hub/pkg/timeutil"
)

func newMigrateCmd(a *app) *cobra.Command {
	var (
		down   bool
		status bool
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		Example: `  studyctl migrate
  studyctl migrate --down
  studyctl migrate --status`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if down && status {
				return fmt.Errorf("--down and --status are mutually exclusive")
			}

			cfg, err := a.config()
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			db, err := postgres.NewConnection(ctx, bootstrap.PostgresConfig(cfg.Database), a.logger(cmd, cfg).Slog())
			if err != nil {
				return err
			}
			defer db.Close()
			migrator := postgres.NewMigrator(db)

			switch {
			case status:
				migrations, err := migrator.Status(ctx)
				if err != nil {
					return err
				}
				return a.print(cmd, migrations, func(w io.Writer) {
					for _, m := range migrations {
						state := "pending"
						if m.IsApplied {
							state = "applied " + m.AppliedAt.Format(timeutil.FormatDateTime)
						}
						fmt.Fprintf(w, "%03d %-32s %s\n", m.Version, m.Name, state)
					}
				})
			case down:
				n, err := migrator.Rollback(ctx)
				if err != nil {
					return err
				}
				return a.print(cmd, map[string]int{"rolled_back": n}, func(w io.Writer) {
					fmt.Fprintf(w, "rolled back %d migration(s)\n", n)
				})
			default:
				n, err := migrator.Migrate(ctx)
				if err != nil {
					return err
				}
				return a.print(cmd, map[string]int{"applied": n}, func(w io.Writer) {
					fmt.Fprintf(w, "applied %d migration(s)\n", n)
				})
			}
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "Roll back the latest migration")
	cmd.Flags().BoolVar(&status, "status", false, "List migrations and whether they are applied")
	return cmd
}

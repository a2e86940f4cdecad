package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy-hub/internal/application/query"
)

func newLevelCmd(a *app) *cobra.Command {
	var (
		xp    float64
		table bool
	)

	cmd := &cobra.Command{
		Use:   "level",
		Short: "Resolve the level for an amount of experience",
		Example: `  studyctl level --xp 142
  studyctl level --table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, engine, err := a.engine()
			if err != nil {
				return err
			}
			levels := query.NewResolveLevelHandler(engine.Levels())

			if table {
				entries := levels.Table()
				return a.print(cmd, entries, func(w io.Writer) {
					for _, e := range entries {
						fmt.Fprintf(w, "%2d  %-12s %6d XP\n", e.Level, e.Name, e.ExperienceFloor)
					}
				})
			}

			if !cmd.Flags().Changed("xp") {
				return fmt.Errorf("either --xp or --table is required")
			}
			level, err := levels.Handle(query.ResolveLevelQuery{Experience: xp})
			if err != nil {
				return err
			}
			return a.print(cmd, level, func(w io.Writer) {
				fmt.Fprintf(w, "Level %d (%s)\n", level.Level, level.Name)
				if level.MaxLevel {
					fmt.Fprintln(w, "Max level reached")
					return
				}
				fmt.Fprintf(w, "%d%% to level %d, %.0f XP to go (next at %d XP)\n",
					level.ProgressPercent, level.Level+1, level.ExperienceToNext, level.NextLevelExperience)
			})
		},
	}

	cmd.Flags().Float64Var(&xp, "xp", 0, "Experience points")
	cmd.Flags().BoolVar(&table, "table", false, "Print the whole level table")
	return cmd
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
)

// TierReport is the output of the tier command.
type TierReport struct {
	Count         int                `json:"count"`
	Tier          progress.BadgeTier `json:"tier"`
	NextTier      progress.BadgeTier `json:"next_tier,omitempty"`
	NextThreshold int                `json:"next_threshold,omitempty"`
}

func newTierCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:     "tier",
		Short:   "Resolve the badge tier for an activity count",
		Example: `  studyctl tier --count 12`,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, engine, err := a.engine()
			if err != nil {
				return err
			}

			tier, err := progress.ResolveTier(count, engine.Tiers())
			if err != nil {
				return err
			}
			report := TierReport{Count: count, Tier: tier}
			if next, threshold, ok := engine.Tiers().NextTier(tier); ok {
				report.NextTier, report.NextThreshold = next, threshold
			}

			return a.print(cmd, report, func(w io.Writer) {
				fmt.Fprintf(w, "%d -> %s\n", report.Count, report.Tier)
				if report.NextTier != "" {
					fmt.Fprintf(w, "next: %s at %d\n", report.NextTier, report.NextThreshold)
				}
			})
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Activity count")
	_ = cmd.MarkFlagRequired("count")
	return cmd
}

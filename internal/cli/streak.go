package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
	"github.com/studybuddy/studybuddy-hub/pkg/timeutil"
)

// StreakReport is the output of the streak command.
type StreakReport struct {
	Days       int                   `json:"days"`
	LastActive string                `json:"last_active,omitempty"`
	Longest    int                   `json:"longest"`
	Current    int                   `json:"current"`
	Status     progress.StreakStatus `json:"status"`

	// HoursLeft is set for an at-risk streak: hours until it breaks.
	HoursLeft int `json:"hours_left,omitempty"`
}

func newStreakCmd(a *app) *cobra.Command {
	var (
		dates []string
		now   string
	)

	cmd := &cobra.Command{
		Use:   "streak",
		Short: "Compute streaks for a set of activity dates",
		Long: "Compute the longest and current streak of consecutive calendar days.\n" +
			"Dates are YYYY-MM-DD (in PROGRESS_TIMEZONE) or RFC 3339 timestamps.",
		Example: `  studyctl streak --date 2024-05-01 --date 2024-05-02 --date 2024-05-03 --now 2024-05-04`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, engine, err := a.engine()
			if err != nil {
				return err
			}
			loc := cfg.Progress.Location

			timestamps := make([]time.Time, 0, len(dates))
			for _, d := range dates {
				ts, err := parseDate(d, loc)
				if err != nil {
					return err
				}
				timestamps = append(timestamps, ts)
			}

			at := time.Now()
			if now != "" {
				if at, err = parseDate(now, loc); err != nil {
					return err
				}
			}

			streaks := engine.Streaks()
			longest, err := streaks.Longest(timestamps)
			if err != nil {
				return err
			}
			current, status, err := streaks.CurrentStreak(timestamps, at)
			if err != nil {
				return err
			}

			report := StreakReport{Days: len(timestamps), Longest: longest, Current: current, Status: status}
			if last, ok := latest(timestamps); ok {
				report.LastActive = timeutil.FormatDateStr(last, loc)
			}
			if status == progress.StreakAtRisk {
				report.HoursLeft = timeutil.HoursUntilEndOfDay(at, loc)
			}

			return a.print(cmd, report, func(w io.Writer) {
				fmt.Fprintf(w, "Longest streak: %d days\n", report.Longest)
				fmt.Fprintf(w, "Current streak: %d days (%s)\n", report.Current, report.Status)
				if report.HoursLeft > 0 {
					fmt.Fprintf(w, "Study within %d hours to keep it\n", report.HoursLeft)
				}
			})
		},
	}

	cmd.Flags().StringArrayVar(&dates, "date", nil, "Activity date, repeatable")
	cmd.Flags().StringVar(&now, "now", "", "Reference time for the current streak (default: now)")
	return cmd
}

func parseDate(s string, loc *time.Location) (time.Time, error) {
	if t, err := timeutil.ParseDate(s, loc); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or RFC 3339", s)
	}
	return t, nil
}

func latest(timestamps []time.Time) (time.Time, bool) {
	var last time.Time
	for _, ts := range timestamps {
		if ts.After(last) {
			last = ts
		}
	}
	return last, !last.IsZero()
}

// Package cli implements the studyctl commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/studybuddy/studybuddy-hub/config"
	"github.com/studybuddy/studybuddy-hub/internal/bootstrap"
	"github.com/studybuddy/studybuddy-hub/internal/domain/progress"
	"github.com/studybuddy/studybuddy-hub/pkg/logger"
)

// ConfigLoader loads the configuration a command runs with.
type ConfigLoader func() (*config.Config, error)

type app struct {
	format     string
	loadConfig ConfigLoader
}

// NewRootCmd builds the studyctl command tree reading config from the environment.
func NewRootCmd() *cobra.Command {
	return newRootCmd(config.Load)
}

func newRootCmd(load ConfigLoader) *cobra.Command {
	a := &app{loadConfig: load}

	root := &cobra.Command{
		Use:           "studyctl",
		Short:         "StudyBuddy progress tooling",
		Long:          "Inspect levels, streaks and badge tiers, look up profile cards and manage the database.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVarP(&a.format, "format", "f", "text", "Output format: json or text")

	root.AddCommand(
		newLevelCmd(a),
		newStreakCmd(a),
		newTierCmd(a),
		newProfileCmd(a),
		newMigrateCmd(a),
		newCacheCmd(a),
	)
	return root
}

func (a *app) config() (*config.Config, error) {
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func (a *app) engine() (*config.Config, *progress.Engine, error) {
	cfg, err := a.config()
	if err != nil {
		return nil, nil, err
	}
	engine, err := bootstrap.NewEngine(cfg.Progress)
	if err != nil {
		return nil, nil, err
	}
	return cfg, engine, nil
}

// logger writes to stderr so command output stays parseable.
func (a *app) logger(cmd *cobra.Command, cfg *config.Config) *logger.Logger {
	return bootstrap.NewLogger(cfg, cmd.ErrOrStderr())
}

// print writes v as indented JSON, or the text rendering when format is text.
func (a *app) print(cmd *cobra.Command, v interface{}, text func(w io.Writer)) error {
	out := cmd.OutOrStdout()
	switch strings.ToLower(a.format) {
	case "json":
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(out, string(b))
		return err
	case "text":
		text(out)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want json or text)", a.format)
	}
}

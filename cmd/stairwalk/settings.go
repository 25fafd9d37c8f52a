package main

import (
	"fmt"
	"log/slog"

	"github.com/nvandessel/stairwalk/internal/config"
	"github.com/nvandessel/stairwalk/internal/logging"
	"github.com/nvandessel/stairwalk/internal/store"
	"github.com/spf13/cobra"
)

// loadSettings resolves the effective configuration: defaults, the config
// file, STAIRWALK_* environment variables, then the --log-level flag.
func loadSettings(cmd *cobra.Command) (*config.StairwalkConfig, error) {
	path, _ := cmd.Flags().GetString("config")

	cfg, err := config.LoadPath(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if cmd.Flags().Changed("log-level") {
		level, _ := cmd.Flags().GetString("log-level")
		cfg.Logging.Level = level
	}

	return cfg, nil
}

// newLoggers builds the stderr logger and, at debug or trace level, the
// JSONL event trace under the project's state directory.
func newLoggers(cmd *cobra.Command, cfg *config.StairwalkConfig) (*slog.Logger, *logging.EventLogger) {
	root, _ := cmd.Flags().GetString("root")
	logger := logging.NewLogger(cfg.Logging.Level, cmd.ErrOrStderr())
	events := logging.NewEventLogger(store.LocalStatePath(root), cfg.Logging.Level)
	return logger, events
}

// openStore opens the run history for the --root project.
func openStore(cmd *cobra.Command) (*store.SQLiteRunStore, error) {
	root, _ := cmd.Flags().GetString("root")
	s, err := store.OpenLocal(root)
	if err != nil {
		return nil, fmt.Errorf("failed to open run history: %w", err)
	}
	return s, nil
}

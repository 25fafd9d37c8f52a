package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/nvandessel/stairwalk/internal/config"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage stairwalk configuration",
		Long: `View and modify stairwalk configuration settings.

Configuration is stored in ~/.stairwalk/config.yaml. STAIRWALK_* environment
variables override the file; "list" and "get" show the effective values.

Examples:
  stairwalk config list                       # Show all settings
  stairwalk config get simulation.trials      # Get a specific setting
  stairwalk config set simulation.seed 42     # Set a setting
  stairwalk config set store.auto_save true`,
	}

	cmd.AddCommand(
		newConfigListCmd(),
		newConfigGetCmd(),
		newConfigSetCmd(),
	)

	return cmd
}

func newConfigListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all configuration settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return json.NewEncoder(out).Encode(cfg)
			}

			fmt.Fprintln(out, "Simulation Settings:")
			fmt.Fprintf(out, "  simulation.seed:              %d\n", cfg.Simulation.Seed)
			fmt.Fprintf(out, "  simulation.trials:            %d\n", cfg.Simulation.Trials)
			fmt.Fprintf(out, "  simulation.steps:             %d\n", cfg.Simulation.Steps)
			fmt.Fprintf(out, "  simulation.faces:             %d\n", cfg.Simulation.Faces)
			fmt.Fprintf(out, "  simulation.down_max:          %d\n", cfg.Simulation.DownMax)
			fmt.Fprintf(out, "  simulation.up_max:            %d\n", cfg.Simulation.UpMax)
			fmt.Fprintf(out, "  simulation.reset_probability: %g\n", cfg.Simulation.ResetProbability)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Summary Settings:")
			fmt.Fprintf(out, "  summary.bins:                 %d\n", cfg.Summary.Bins)
			fmt.Fprintf(out, "  summary.threshold:            %g\n", cfg.Summary.Threshold)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Store Settings:")
			fmt.Fprintf(out, "  store.auto_save:              %v\n", cfg.Store.AutoSave)
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Logging Settings:")
			fmt.Fprintf(out, "  logging.level:                %s\n", valueOrDefault(cfg.Logging.Level, "info"))
			return nil
		},
	}
}

func newConfigGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <key>",
		Short: "Get a configuration value",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key := args[0]

			cfg, err := loadSettings(cmd)
			if err != nil {
				return err
			}

			value, found := getConfigValue(cfg, key)
			if !found {
				return fmt.Errorf("unknown configuration key: %s", key)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"key":   key,
					"value": value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s = %v\n", key, value)
			return nil
		},
	}
}

func newConfigSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set <key> <value>",
		Short: "Set a configuration value",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			jsonOut, _ := cmd.Flags().GetBool("json")
			key, value := args[0], args[1]

			path, err := configFilePath(cmd)
			if err != nil {
				return err
			}

			// Start from the file alone so environment overrides are not persisted.
			cfg := config.Default()
			if _, statErr := os.Stat(path); statErr == nil {
				if cfg, err = config.LoadFromFile(path); err != nil {
					return err
				}
			}

			if err := setConfigValue(cfg, key, value); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid value for %s: %w", key, err)
			}
			if err := saveConfig(path, cfg); err != nil {
				return fmt.Errorf("failed to save config: %w", err)
			}

			if jsonOut {
				return json.NewEncoder(cmd.OutOrStdout()).Encode(map[string]interface{}{
					"status": "updated",
					"key":    key,
					"value":  value,
				})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
			return nil
		},
	}
}

// getConfigValue retrieves a configuration value by dot-notation key.
func getConfigValue(cfg *config.StairwalkConfig, key string) (interface{}, bool) {
	switch key {
	case "simulation.seed":
		return cfg.Simulation.Seed, true
	case "simulation.trials":
		return cfg.Simulation.Trials, true
	case "simulation.steps":
		return cfg.Simulation.Steps, true
	case "simulation.faces":
		return cfg.Simulation.Faces, true
	case "simulation.down_max":
		return cfg.Simulation.DownMax, true
	case "simulation.up_max":
		return cfg.Simulation.UpMax, true
	case "simulation.reset_probability":
		return cfg.Simulation.ResetProbability, true
	case "summary.bins":
		return cfg.Summary.Bins, true
	case "summary.threshold":
		return cfg.Summary.Threshold, true
	case "store.auto_save":
		return cfg.Store.AutoSave, true
	case "logging.level":
		return cfg.Logging.Level, true
	default:
		return nil, false
	}
}

// setConfigValue sets a configuration value by dot-notation key.
func setConfigValue(cfg *config.StairwalkConfig, key, value string) error {
	var err error
	switch key {
	case "simulation.seed":
		cfg.Simulation.Seed, err = strconv.ParseUint(value, 10, 64)
	case "simulation.trials":
		cfg.Simulation.Trials, err = strconv.Atoi(value)
	case "simulation.steps":
		cfg.Simulation.Steps, err = strconv.Atoi(value)
	case "simulation.faces":
		cfg.Simulation.Faces, err = strconv.Atoi(value)
	case "simulation.down_max":
		cfg.Simulation.DownMax, err = strconv.Atoi(value)
	case "simulation.up_max":
		cfg.Simulation.UpMax, err = strconv.Atoi(value)
	case "simulation.reset_probability":
		cfg.Simulation.ResetProbability, err = strconv.ParseFloat(value, 64)
	case "summary.bins":
		cfg.Summary.Bins, err = strconv.Atoi(value)
	case "summary.threshold":
		cfg.Summary.Threshold, err = strconv.ParseFloat(value, 64)
	case "store.auto_save":
		cfg.Store.AutoSave, err = strconv.ParseBool(value)
	case "logging.level":
		cfg.Logging.Level = value
	default:
		return fmt.Errorf("unknown configuration key: %s", key)
	}
	if err != nil {
		return fmt.Errorf("invalid value %q for %s", value, key)
	}
	return nil
}

// configFilePath returns the --config file, or ~/.stairwalk/config.yaml.
func configFilePath(cmd *cobra.Command) (string, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		return path, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, config.DirName, "config.yaml"), nil
}

// saveConfig writes the configuration as YAML to path.
func saveConfig(path string, cfg *config.StairwalkConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// valueOrDefault returns the value if non-empty, otherwise the default.
func valueOrDefault(value, defaultValue string) string {
	if value == "" {
		return defaultValue
	}
	return value
}

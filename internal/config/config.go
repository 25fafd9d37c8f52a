// Package config provides unified configuration loading for stairwalk.
// It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"github.com/nvandessel/stairwalk/internal/summary"
	"github.com/nvandessel/stairwalk/internal/walk"
	"gopkg.in/yaml.v3"
)

// DirName is the per-user and per-project state directory name.
const DirName = ".stairwalk"

// StairwalkConfig contains all stairwalk configuration settings.
type StairwalkConfig struct {
	// Simulation contains the walk and ensemble parameters.
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`

	// Summary contains settings for the endpoint summary stage.
	Summary SummaryConfig `json:"summary" yaml:"summary"`

	// Store contains settings for run history persistence.
	Store StoreConfig `json:"store" yaml:"store"`

	// Logging contains settings for operational and event logging.
	Logging LoggingConfig `json:"logging" yaml:"logging"`
}

// SimulationConfig configures the random walk ensemble.
type SimulationConfig struct {
	// Seed initializes the random stream. The same seed reproduces the same ensemble.
	Seed uint64 `json:"seed" yaml:"seed" env:"STAIRWALK_SEED"`

	// Trials is the number of independent walks.
	Trials int `json:"trials" yaml:"trials" env:"STAIRWALK_TRIALS"`

	Steps            int     `json:"steps" yaml:"steps" env:"STAIRWALK_STEPS"`
	Faces            int     `json:"faces" yaml:"faces" env:"STAIRWALK_FACES"`
	DownMax          int     `json:"down_max" yaml:"down_max" env:"STAIRWALK_DOWN_MAX"`
	UpMax            int     `json:"up_max" yaml:"up_max" env:"STAIRWALK_UP_MAX"`
	ResetProbability float64 `json:"reset_probability" yaml:"reset_probability" env:"STAIRWALK_RESET_PROBABILITY"`
}

// SummaryConfig configures the endpoint summary.
type SummaryConfig struct {
	// Bins is the number of histogram bins.
	Bins int `json:"bins" yaml:"bins" env:"STAIRWALK_BINS"`

	// Threshold is the height endpoints are compared against.
	Threshold float64 `json:"threshold" yaml:"threshold" env:"STAIRWALK_THRESHOLD"`
}

// StoreConfig configures run history.
type StoreConfig struct {
	// AutoSave stores every run in the history database.
	AutoSave bool `json:"auto_save" yaml:"auto_save" env:"STAIRWALK_AUTO_SAVE"`
}

// LoggingConfig configures stairwalk's logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	// "debug" enables per-trial event logging to .stairwalk/events.jsonl.
	Level string `json:"level" yaml:"level" env:"STAIRWALK_LOG_LEVEL"`
}

// Default returns a StairwalkConfig with the classic simulation parameters.
func Default() *StairwalkConfig {
	rules := walk.DefaultRules()
	return &StairwalkConfig{
		Simulation: SimulationConfig{
			Seed:             123,
			Trials:           walk.DefaultTrials,
			Steps:            rules.Steps,
			Faces:            rules.Faces,
			DownMax:          rules.DownMax,
			UpMax:            rules.UpMax,
			ResetProbability: rules.ResetProbability,
		},
		Summary: SummaryConfig{
			Bins:      summary.DefaultBins,
			Threshold: summary.DefaultThreshold,
		},
		Store: StoreConfig{
			AutoSave: false,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the default locations and environment variables.
// Order: defaults -> ~/.stairwalk/config.yaml -> environment variables
func Load() (*StairwalkConfig, error) {
	config := Default()

	homeDir, err := os.UserHomeDir()
	if err == nil {
		configPath := filepath.Join(homeDir, DirName, "config.yaml")
		if _, statErr := os.Stat(configPath); statErr == nil {
			fileConfig, loadErr := LoadFromFile(configPath)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file: %w", loadErr)
			}
			config = fileConfig
		}
	}

	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}

	return config, nil
}

// LoadPath loads configuration from an explicit file, then applies
// environment overrides. An empty path behaves like Load.
func LoadPath(path string) (*StairwalkConfig, error) {
	if path == "" {
		return Load()
	}

	config, err := LoadFromFile(path)
	if err != nil {
		return nil, err
	}
	if err := applyEnvOverrides(config); err != nil {
		return nil, err
	}
	return config, nil
}

// LoadFromFile loads configuration from a specific YAML file.
// Fields missing from the file keep their defaults.
func LoadFromFile(path string) (*StairwalkConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	config := Default()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return config, nil
}

// Validate checks that the configuration is valid.
func (c *StairwalkConfig) Validate() error {
	if c.Simulation.Trials < 1 {
		return fmt.Errorf("trials must be at least 1, got %d", c.Simulation.Trials)
	}

	if err := c.Rules().Validate(); err != nil {
		return err
	}

	if c.Summary.Bins < 1 {
		return fmt.Errorf("bins must be at least 1, got %d", c.Summary.Bins)
	}

	validLevels := map[string]bool{"info": true, "debug": true, "trace": true}
	if c.Logging.Level != "" && !validLevels[c.Logging.Level] {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}

	return nil
}

// Rules returns the walk rules described by the simulation section.
func (c *StairwalkConfig) Rules() walk.Rules {
	return walk.Rules{
		Steps:            c.Simulation.Steps,
		Faces:            c.Simulation.Faces,
		DownMax:          c.Simulation.DownMax,
		UpMax:            c.Simulation.UpMax,
		ResetProbability: c.Simulation.ResetProbability,
	}
}

// applyEnvOverrides applies STAIRWALK_* environment variable overrides.
// Unset variables leave the current values untouched.
func applyEnvOverrides(config *StairwalkConfig) error {
	if err := env.Parse(config); err != nil {
		return fmt.Errorf("parsing environment overrides: %w", err)
	}
	return nil
}

// Package config provides configuration management for campvault using Viper.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/tabletop-tools/campvault/internal/paths"
	"github.com/tabletop-tools/campvault/internal/selector"
)

// AppName is the application name used for config file naming.
const AppName = "campvault"

// Modes accepted by default_mode.
const (
	ModeMove = "move"
	ModeCopy = "copy"
)

// Retention strategies accepted by retention.
const (
	RetentionKeepAll         = "keep_all"
	RetentionReplacePrevious = "replace_previous"
)

// Config represents the top-level configuration structure.
type Config struct {
	Version       int          `mapstructure:"version" yaml:"version"`
	LiveRoot      string       `mapstructure:"live_root" yaml:"live_root"`
	ArchiveRoot   string       `mapstructure:"archive_root" yaml:"archive_root"`
	DefaultMode   string       `mapstructure:"default_mode" yaml:"default_mode"`
	Retention     string       `mapstructure:"retention" yaml:"retention"`
	RoleLimit     int          `mapstructure:"role_limit" yaml:"role_limit"`
	ExtraPatterns []string     `mapstructure:"extra_patterns" yaml:"extra_patterns"`
	Exclude       ExcludeRules `mapstructure:"exclude" yaml:"exclude"`
}

// ExcludeRules lists names the selector must never pick up.
type ExcludeRules struct {
	Basenames       []string `mapstructure:"basenames" yaml:"basenames"`
	DeadSuffixes    []string `mapstructure:"dead_suffixes" yaml:"dead_suffixes"`
	ExamplePrefixes []string `mapstructure:"example_prefixes" yaml:"example_prefixes"`
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	// Config file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".") // Current directory
	viper.AddConfigPath(paths.ConfigDir())

	// Environment variable support
	viper.SetEnvPrefix("CAMPVAULT")
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("version", 1)
	viper.SetDefault("live_root", ".")
	viper.SetDefault("archive_root", "")
	viper.SetDefault("default_mode", ModeMove)
	viper.SetDefault("retention", RetentionKeepAll)
	viper.SetDefault("role_limit", selector.DefaultRoleLimit)
	viper.SetDefault("extra_patterns", []string{})
	viper.SetDefault("exclude.basenames", selector.DefaultExcludedBasenames())
	viper.SetDefault("exclude.dead_suffixes", selector.DefaultDeadSuffixes())
	viper.SetDefault("exclude.example_prefixes", selector.DefaultExamplePrefixes())
}

// Default returns a Config carrying only default values, without touching
// Viper or the filesystem.
func Default() *Config {
	return &Config{
		Version:     1,
		LiveRoot:    ".",
		DefaultMode: ModeMove,
		Retention:   RetentionKeepAll,
		RoleLimit:   selector.DefaultRoleLimit,
		Exclude: ExcludeRules{
			Basenames:       selector.DefaultExcludedBasenames(),
			DeadSuffixes:    selector.DefaultDeadSuffixes(),
			ExamplePrefixes: selector.DefaultExamplePrefixes(),
		},
	}
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations.
// Returns the loaded configuration or default values if no file is found (when path is empty).
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// An explicitly requested file must exist; the implicit
			// search falling through to defaults is fine.
			if path != "" {
				return nil, fmt.Errorf("config file not found at %s: %w", path, err)
			}
		} else {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	return &cfg, nil
}

// DefaultYAML is the commented starter file "campvault init" writes.
const DefaultYAML = `# campvault configuration
version: 1

# Live campaign root the session writes into. Relative paths resolve
# against the directory campvault runs in. A leading ~ expands to the
# home directory.
live_root: "."

# Where snapshots land. Empty means <live_root>/saves/archives.
archive_root: ""

# Default transfer mode for archiving: move or copy.
default_mode: move

# keep_all:         every snapshot is kept
# replace_previous: one mutable slot per campaign; a new save replaces
#                   the previous one
retention: keep_all

# How many character names go into the generated save filename hint.
role_limit: 3

# Extra glob patterns selected in addition to the built-in scopes,
# relative to the live root. Example: ["notes/*.md"]
extra_patterns: []

# Files the selector never picks up.
exclude:
  basenames:
    - save_initial_template.md
    - save_manager.md
    - save_manager.py
  dead_suffixes:
    - "_已死亡"
  example_prefixes:
    - "示例角色"
`

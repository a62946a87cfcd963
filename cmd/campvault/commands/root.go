// Package commands implements the CLI commands for campvault.
package commands

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabletop-tools/campvault/cmd"
	"github.com/tabletop-tools/campvault/internal/config"
	"github.com/tabletop-tools/campvault/internal/errors"
	"github.com/tabletop-tools/campvault/internal/logging"
	"github.com/tabletop-tools/campvault/internal/paths"
	"github.com/tabletop-tools/campvault/internal/retention"
	"github.com/tabletop-tools/campvault/internal/selector"
	"github.com/tabletop-tools/campvault/internal/transfer"
)

// liveRootFlag holds the value of the --root flag.
var liveRootFlag string

// archiveRootFlag holds the value of the --archive-root flag.
var archiveRootFlag string

// cfgFile holds the value of the --config flag.
var cfgFile string

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// cfg is the loaded configuration; nil until initConfig ran.
var cfg *config.Config

// configLoadErr holds any error that occurred during config loading.
var configLoadErr error

func init() {
	cobra.OnInitialize(initConfig)

	// Add persistent flags
	rootCmd.PersistentFlags().StringVar(&liveRootFlag, "root", "",
		"live campaign root (default: config live_root, else current directory)")
	rootCmd.PersistentFlags().StringVar(&archiveRootFlag, "archive-root", "",
		"archive location (default: <root>/saves/archives)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (default: ./config.yaml, then $XDG_CONFIG_HOME/campvault/config.yaml)")
	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"write logs to file in JSON format")

	// Add version flag
	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("campvault version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	// Capture load errors for later reporting
	cfg, configLoadErr = config.Load(cfgFile)
}

var rootCmd = &cobra.Command{
	Use:   "campvault",
	Short: "Archive and restore tabletop campaign run state",
	Long: `campvault snapshots the run state of a tabletop campaign directory
(character sheets, session logs, save notes) into an archive, and brings
any snapshot back later.

Archiving in move mode relocates the tracked files out of the live tree,
leaving it clean for a fresh start; copy mode duplicates them instead.
Each snapshot carries a manifest with content hashes, so restores verify
what they bring back, and a catalog under the archive root orders the
snapshots of every campaign by recency.`,
	Example: `  # Snapshot the current campaign state and clear the live tree
  campvault archive -c shadowfell

  # See what a snapshot would pick up without touching anything
  campvault archive -c shadowfell --dry-run

  # Bring the latest snapshot back
  campvault restore -c shadowfell

  # Inspect the archive
  campvault list
  campvault doctor

  See Also: campvault init, campvault status`,
	PersistentPreRunE: func(c *cobra.Command, args []string) error {
		// Initialize logging first
		if err := setupLogging(c); err != nil {
			return err
		}
		return checkConfig(c, args)
	},
	Run: func(c *cobra.Command, args []string) {
		_ = c.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(c *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(nil, "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("CAMPVAULT_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var primaryHandler slog.Handler
	switch logging.Format(logFormat) {
	case logging.FormatJSON:
		primaryHandler = slog.NewJSONHandler(c.ErrOrStderr(), opts)
	default:
		primaryHandler = logging.NewHandler(c.ErrOrStderr(), opts)
	}

	handlers := []slog.Handler{primaryHandler}

	if logFile != "" {
		f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return errors.NewUserError(err, "failed to open log file")
		}
		// File output uses JSON format
		handlers = append(handlers, slog.NewJSONHandler(f, &slog.HandlerOptions{
			Level: level,
		}))
	}

	var handler slog.Handler
	if len(handlers) > 1 {
		handler = logging.NewMultiHandler(handlers...)
	} else {
		handler = handlers[0]
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)

	ctx := c.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	c.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// checkConfig surfaces configuration problems before a command runs.
func checkConfig(c *cobra.Command, _ []string) error {
	// Help, version and init must work with a broken config; init is how
	// a broken config gets replaced.
	switch c.Name() {
	case "help", "version", "init":
		return nil
	}

	if configLoadErr != nil {
		return errors.NewConfigError(configLoadErr)
	}

	if errs := config.Validate(activeConfig()); len(errs) > 0 {
		return errors.NewConfigError(errors.Join(errs...))
	}

	return nil
}

// activeConfig returns the loaded configuration, falling back to defaults
// when no config was loaded (tests, broken load paths).
func activeConfig() *config.Config {
	if cfg == nil {
		return config.Default()
	}
	return cfg
}

// resolveLayout builds the campaign tree layout from flags and config.
// Flags win over config values.
func resolveLayout() (paths.Layout, error) {
	c := activeConfig()

	live := liveRootFlag
	if live == "" {
		live = c.LiveRoot
	}
	arch := archiveRootFlag
	if arch == "" {
		arch = c.ArchiveRoot
	}

	live, err := paths.ExpandHome(live)
	if err != nil {
		return paths.Layout{}, err
	}
	arch, err = paths.ExpandHome(arch)
	if err != nil {
		return paths.Layout{}, err
	}

	return paths.NewLayout(live, arch)
}

// newSelector builds a file selector with the configured exclusion rules.
func newSelector(layout paths.Layout) *selector.Selector {
	c := activeConfig()
	return selector.New(layout, selector.WithExclusions(selector.Exclusions{
		Basenames:       c.Exclude.Basenames,
		DeadSuffixes:    c.Exclude.DeadSuffixes,
		ExamplePrefixes: c.Exclude.ExamplePrefixes,
	}))
}

// newEngine builds a transfer engine wired to the configured retention
// policy and the process logger.
func newEngine(layout paths.Layout) (*transfer.Engine, error) {
	policy, err := retention.FromString(activeConfig().Retention)
	if err != nil {
		return nil, errors.NewConfigError(err)
	}
	return transfer.New(layout,
		transfer.WithSelector(newSelector(layout)),
		transfer.WithRetention(policy),
		transfer.WithLogger(slog.Default()),
	), nil
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

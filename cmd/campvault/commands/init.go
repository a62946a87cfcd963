package commands

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/tabletop-tools/campvault/internal/config"
	"github.com/tabletop-tools/campvault/internal/errors"
	"github.com/tabletop-tools/campvault/internal/paths"
	"github.com/tabletop-tools/campvault/pkg/fileutil"
)

var initForce bool

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false,
		"overwrite existing configuration")
	rootCmd.AddCommand(initCmd)
}

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a starter configuration file",
	Long: `Create a commented config.yaml with the default settings.

The file lands under $XDG_CONFIG_HOME/campvault/ unless --config points
somewhere else. Every value in it matches the built-in defaults, so the
file is a template to edit, not a requirement.`,
	Example: `  # Write the default config
  campvault init

  # Recreate it after breaking yours
  campvault init --force

  See Also: campvault doctor`,
	Args: cobra.NoArgs,
	RunE: runInit,
}

func runInit(_ *cobra.Command, _ []string) error {
	return runInitWithWriter(os.Stdout)
}

func runInitWithWriter(w io.Writer) error {
	configPath := cfgFile
	if configPath == "" {
		configPath = paths.ConfigFile()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil && !initForce {
		fmt.Fprintf(w, "Configuration already exists at %s\n", configPath)
		fmt.Fprintln(w, "Use --force to overwrite")
		return nil
	}

	if err := paths.EnsureDir(filepath.Dir(configPath), 0); err != nil {
		return errors.Wrap(err, "creating config directory")
	}

	if err := fileutil.AtomicWriteFile(configPath, []byte(config.DefaultYAML), 0o644); err != nil {
		return errors.Wrap(err, "writing config file")
	}

	fmt.Fprintf(w, "Created %s\n", configPath)
	return nil
}

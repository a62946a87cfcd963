package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabletop-tools/campvault/cmd"
	"github.com/tabletop-tools/campvault/internal/errors"
	"github.com/tabletop-tools/campvault/internal/manifest"
	"github.com/tabletop-tools/campvault/internal/selector"
)

var (
	statusJSON    bool
	statusVerbose bool
	statusExtra   []string
)

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "output as JSON")
	statusCmd.Flags().BoolVar(&statusVerbose, "verbose", false,
		"list the selected files per scope")
	statusCmd.Flags().StringArrayVar(&statusExtra, "extra", nil,
		"extra glob pattern relative to the live root (repeatable)")
	rootCmd.AddCommand(statusCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show what an archive run would pick up",
	Long: `Show the tracked run-state files currently in the live tree.

Counts selected files per scope (characters, session logs, save notes and
so on), exactly the set "campvault archive" would transfer. A tree with
nothing to pick up is ready for a new game.

Output modes (mutually exclusive):
  (default)   Counts per scope
  --verbose   Counts plus the selected files
  --json      Machine-readable JSON output`,
	Example: `  # Scope counts for the current directory
  campvault status

  # Include extra files and list everything
  campvault status --extra "notes/*.md" --verbose

  # JSON output for scripting
  campvault status --json`,
	PreRunE: validateStatusFlags,
	RunE:    runStatus,
}

// validateStatusFlags ensures output flags are mutually exclusive.
func validateStatusFlags(_ *cobra.Command, _ []string) error {
	if statusJSON && statusVerbose {
		return errors.New("flags --json and --verbose are mutually exclusive")
	}
	return nil
}

func runStatus(_ *cobra.Command, _ []string) error {
	return runStatusWithWriter(os.Stdout)
}

// runStatusWithWriter allows injecting a writer for testing.
func runStatusWithWriter(w io.Writer) error {
	layout, err := resolveLayout()
	if err != nil {
		return err
	}

	extra := append([]string{}, activeConfig().ExtraPatterns...)
	extra = append(extra, statusExtra...)

	sel, err := newSelector(layout).Select(extra)
	if err != nil {
		return exitError(err)
	}

	if statusJSON {
		return outputStatusJSON(w, layout.LiveRoot, sel, extra)
	}
	return outputStatusText(w, layout.LiveRoot, sel, extra)
}

// scopeOrder returns the scope names to report, in declaration order, with
// the extra pseudo-scope appended when extra patterns are in play.
func scopeOrder(extra []string) []string {
	scopes := selector.DefaultScopes()
	names := make([]string, 0, len(scopes)+1)
	for _, s := range scopes {
		names = append(names, s.Name)
	}
	if len(extra) > 0 {
		names = append(names, selector.ScopeExtra)
	}
	return names
}

// scopeFiles returns the selected files of one scope, in selection order.
func scopeFiles(sel *selector.Selection, scope string) []selector.File {
	var files []selector.File
	for _, f := range sel.Files {
		if f.Scope == scope {
			files = append(files, f)
		}
	}
	return files
}

// JSON output types

type statusOutput struct {
	Version      string        `json:"version"`
	Root         string        `json:"root"`
	Scopes       []scopeOutput `json:"scopes"`
	TotalFiles   int           `json:"total_files"`
	TotalBytes   int64         `json:"total_bytes"`
	NewGameReady bool          `json:"new_game_ready"`
}

type scopeOutput struct {
	Name  string   `json:"name"`
	Count int      `json:"count"`
	Files []string `json:"files,omitempty"`
}

func outputStatusJSON(w io.Writer, root string, sel *selector.Selection, extra []string) error {
	counts := sel.ByScope()

	output := statusOutput{
		Version:      cmd.Version,
		Root:         root,
		TotalFiles:   len(sel.Files),
		TotalBytes:   sel.TotalBytes(),
		NewGameReady: sel.Empty(),
	}
	for _, name := range scopeOrder(extra) {
		entry := scopeOutput{Name: name, Count: counts[name]}
		for _, f := range scopeFiles(sel, name) {
			entry.Files = append(entry.Files, f.Rel)
		}
		output.Scopes = append(output.Scopes, entry)
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputStatusText(w io.Writer, root string, sel *selector.Selection, extra []string) error {
	counts := sel.ByScope()

	fmt.Fprintf(w, "%sCampaign root: %s%s\n", colorCyan+colorBold, root, colorReset)
	fmt.Fprintln(w)

	for _, name := range scopeOrder(extra) {
		fmt.Fprintf(w, "  %s: %d\n", name, counts[name])
		if !statusVerbose {
			continue
		}
		for _, f := range scopeFiles(sel, name) {
			fmt.Fprintf(w, "    %s%s%s (%s)\n",
				colorGreen, f.Rel, colorReset, manifest.HumanSize(f.Size))
		}
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Total: %d file(s), %s\n", len(sel.Files), manifest.HumanSize(sel.TotalBytes()))
	if sel.Empty() {
		fmt.Fprintf(w, "New game ready: %syes%s\n", colorGreen, colorReset)
	} else {
		fmt.Fprintln(w, "New game ready: no")
	}

	return nil
}

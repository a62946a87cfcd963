package commands

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/tabletop-tools/campvault/internal/cli/prompt"
	"github.com/tabletop-tools/campvault/internal/errors"
	"github.com/tabletop-tools/campvault/internal/index"
	"github.com/tabletop-tools/campvault/internal/logging"
	"github.com/tabletop-tools/campvault/internal/manifest"
	"github.com/tabletop-tools/campvault/internal/naming"
	"github.com/tabletop-tools/campvault/internal/paths"
	"github.com/tabletop-tools/campvault/internal/transfer"
)

var (
	restoreCampaign    string
	restoreSnapshot    string
	restoreForce       bool
	restoreMove        bool
	restoreSkipVerify  bool
	restoreInteractive bool
	restoreDryRun      bool
)

func init() {
	restoreCmd.Flags().StringVarP(&restoreCampaign, "campaign", "c", "",
		"campaign name (required unless --interactive)")
	restoreCmd.Flags().StringVar(&restoreSnapshot, "snapshot", "",
		"snapshot id (default: the campaign's latest)")
	restoreCmd.Flags().BoolVar(&restoreForce, "force", false,
		"overwrite existing files in the live tree")
	restoreCmd.Flags().BoolVar(&restoreMove, "move-from-archive", false,
		"relocate the files out of the archive; the emptied snapshot is dropped")
	restoreCmd.Flags().BoolVar(&restoreSkipVerify, "skip-verify", false,
		"skip content hash verification against the manifest")
	restoreCmd.Flags().BoolVar(&restoreInteractive, "interactive", false,
		"pick the snapshot interactively")
	restoreCmd.Flags().BoolVar(&restoreDryRun, "dry-run", false,
		"report the full plan without touching any file or the catalog")
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore",
	Short: "Bring an archived snapshot back into the live tree",
	Long: `Restore a snapshot's files to their original paths under the live root.

The snapshot's manifest drives the restore: archived files are checked for
presence and content hash before anything is written (--skip-verify turns
the hash check off). If any destination already exists the whole restore
aborts and the conflicts are listed; --force overwrites them instead.
There is no partial restore.

Files are copied back by default, leaving the snapshot intact.
--move-from-archive relocates them instead and drops the emptied snapshot
from the archive and the catalog.`,
	Example: `  # Restore the latest snapshot of a campaign
  campvault restore -c shadowfell

  # Restore a specific snapshot, overwriting live files
  campvault restore -c shadowfell --snapshot 20250310_093000 --force

  # Pick a snapshot from a list
  campvault restore --interactive

  See Also:
    campvault list    - List archived snapshots
    campvault archive - Snapshot the current state`,
	Args: cobra.NoArgs,
	RunE: runRestore,
}

func runRestore(_ *cobra.Command, _ []string) error {
	return runRestoreWithWriter(os.Stdout)
}

func runRestoreWithWriter(w io.Writer) error {
	if restoreCampaign == "" && !restoreInteractive {
		return errors.New("--campaign is required (or use --interactive)")
	}

	layout, err := resolveLayout()
	if err != nil {
		return err
	}
	engine, err := newEngine(layout)
	if err != nil {
		return err
	}

	req := transfer.RestoreRequest{
		CampaignID:      restoreCampaign,
		SnapshotID:      restoreSnapshot,
		Force:           restoreForce,
		MoveFromArchive: restoreMove,
		SkipVerify:      restoreSkipVerify,
		DryRun:          restoreDryRun,
	}

	if restoreInteractive {
		entry, err := pickRestoreEntry(layout)
		if err != nil {
			if errors.Is(err, prompt.ErrSelectionCancelled) {
				fmt.Fprintln(w, "Aborted")
				return nil
			}
			return exitError(err)
		}
		req.CampaignID = entry.CampaignID
		req.SnapshotID = entry.SnapshotID
	}

	res, err := engine.Restore(req)
	if err != nil {
		return exitError(err)
	}

	if res.DryRun {
		printRestorePlan(w, res)
		return nil
	}

	fmt.Fprintf(w, "%s✓ Restored %d file(s) (%s)%s\n",
		colorGreen, res.Manifest.Counts.Files, res.Manifest.Counts.BytesHuman, colorReset)
	fmt.Fprintf(w, "  Campaign:    %s\n", res.CampaignID)
	fmt.Fprintf(w, "  Snapshot ID: %s\n", res.SnapshotID)
	if len(res.RemovedSnapshots) > 0 {
		fmt.Fprintln(w, "  The emptied snapshot was removed from the archive.")
	}

	return nil
}

// pickRestoreEntry lets the user choose a snapshot. With a campaign given
// the choice is among that campaign's snapshots, otherwise among all. A
// real terminal gets the fuzzy finder; anything else a numbered prompt.
func pickRestoreEntry(layout paths.Layout) (index.Entry, error) {
	ix, err := index.Load(layout.IndexPath())
	if err != nil {
		return index.Entry{}, err
	}

	campaignID := ""
	if restoreCampaign != "" {
		campaignID, err = naming.NormalizeCampaignID(restoreCampaign)
		if err != nil {
			return index.Entry{}, err
		}
	}

	entries := ix.List(campaignID)
	if logging.IsTTY(os.Stdout) {
		return prompt.PickSnapshot(entries)
	}
	return prompt.NewSelector().SelectEntry(entries)
}

func printRestorePlan(w io.Writer, res *transfer.Result) {
	fmt.Fprintf(w, "Dry run: restore %s/%s (%s)\n", res.CampaignID, res.SnapshotID, res.Mode)
	for _, f := range res.Files {
		fmt.Fprintf(w, "  %s  %s(%s, %s)%s\n",
			f.Rel, colorGray, f.Scope, manifest.HumanSize(f.Size), colorReset)
	}
	fmt.Fprintf(w, "%d file(s), %s. Nothing was written.\n",
		res.Manifest.Counts.Files, res.Manifest.Counts.BytesHuman)
}

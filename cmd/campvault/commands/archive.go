package commands

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tabletop-tools/campvault/internal/errors"
	"github.com/tabletop-tools/campvault/internal/manifest"
	"github.com/tabletop-tools/campvault/internal/transfer"
)

var (
	archiveCampaign  string
	archiveSnapshot  string
	archiveMode      string
	archiveRoles     string
	archiveRoleLimit int
	archiveBlip      string
	archiveNote      string
	archiveExtra     []string
	archiveDryRun    bool
)

func init() {
	archiveCmd.Flags().StringVarP(&archiveCampaign, "campaign", "c", "",
		"campaign name (required)")
	archiveCmd.Flags().StringVar(&archiveSnapshot, "snapshot", "",
		"snapshot id (default: current timestamp)")
	archiveCmd.Flags().StringVar(&archiveMode, "mode", "",
		"transfer mode: move, copy (default: config default_mode)")
	archiveCmd.Flags().StringVar(&archiveRoles, "main-roles", "",
		`main character names, "+" or comma separated (default: inferred from sheets)`)
	archiveCmd.Flags().IntVar(&archiveRoleLimit, "role-limit", 0,
		"cap on inferred role names (default: config role_limit)")
	archiveCmd.Flags().StringVar(&archiveBlip, "ai-blip", "",
		"short session annotation carried into the save filename hint")
	archiveCmd.Flags().StringVar(&archiveNote, "note", "",
		"free-form note recorded in the manifest")
	archiveCmd.Flags().StringArrayVar(&archiveExtra, "extra", nil,
		"extra glob pattern relative to the live root (repeatable)")
	archiveCmd.Flags().BoolVar(&archiveDryRun, "dry-run", false,
		"report the full plan without touching any file or the catalog")
	rootCmd.AddCommand(archiveCmd)
}

var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Snapshot the campaign run state into the archive",
	Long: `Capture the tracked run-state files as one snapshot.

The selector walks the live root for character sheets, session logs and
save notes (plus any --extra globs), skipping placeholder templates,
example sheets and dead-character files. Move mode relocates the files
into the snapshot, leaving the live tree clean for a new game; copy mode
duplicates them and changes nothing.

Every snapshot gets a manifest with per-file content hashes, a summary.md,
and a catalog entry. With --dry-run the exact plan is printed instead and
nothing is written.`,
	Example: `  # Move the current state into a timestamped snapshot
  campvault archive -c shadowfell

  # Keep the live files, archive a copy with a note
  campvault archive -c shadowfell --mode copy --note "before the heist"

  # Preview what would be picked up
  campvault archive -c shadowfell --dry-run

  See Also:
    campvault list    - List archived snapshots
    campvault restore - Bring a snapshot back`,
	Args: cobra.NoArgs,
	RunE: runArchive,
}

func runArchive(_ *cobra.Command, _ []string) error {
	return runArchiveWithWriter(os.Stdout)
}

func runArchiveWithWriter(w io.Writer) error {
	if archiveCampaign == "" {
		return errors.New("--campaign is required")
	}

	mode, err := resolveMode(archiveMode)
	if err != nil {
		return err
	}

	layout, err := resolveLayout()
	if err != nil {
		return err
	}
	engine, err := newEngine(layout)
	if err != nil {
		return err
	}

	roleLimit := archiveRoleLimit
	if roleLimit == 0 {
		roleLimit = activeConfig().RoleLimit
	}
	extra := append([]string{}, activeConfig().ExtraPatterns...)
	extra = append(extra, archiveExtra...)

	res, err := engine.Archive(transfer.ArchiveRequest{
		CampaignID: archiveCampaign,
		SnapshotID: archiveSnapshot,
		Mode:       mode,
		Extra:      extra,
		MainRoles:  archiveRoles,
		RoleLimit:  roleLimit,
		AIBlip:     archiveBlip,
		Note:       archiveNote,
		DryRun:     archiveDryRun,
	})
	if err != nil {
		return exitError(err)
	}

	if res.DryRun {
		printArchivePlan(w, res)
		return nil
	}

	fmt.Fprintf(w, "%s✓ Archived %d file(s) (%s)%s\n",
		colorGreen, res.Manifest.Counts.Files, res.Manifest.Counts.BytesHuman, colorReset)
	fmt.Fprintf(w, "  Campaign:    %s\n", res.CampaignID)
	fmt.Fprintf(w, "  Snapshot ID: %s\n", res.SnapshotID)
	fmt.Fprintf(w, "  Mode:        %s\n", res.Mode)
	fmt.Fprintf(w, "  Save hint:   %s\n", res.Manifest.SaveFilenameHint)
	if len(res.RemovedSnapshots) > 0 {
		fmt.Fprintf(w, "  Replaced:    %s\n", strings.Join(res.RemovedSnapshots, ", "))
	}

	return nil
}

// resolveMode turns the --mode flag into a transfer mode, falling back to
// the configured default.
func resolveMode(flag string) (manifest.Mode, error) {
	if flag == "" {
		flag = activeConfig().DefaultMode
	}
	if flag == "" {
		return manifest.ModeMove, nil
	}
	mode, err := manifest.ParseMode(flag)
	if err != nil {
		return "", errors.NewUserError(err, "Valid modes: move, copy")
	}
	return mode, nil
}

func printArchivePlan(w io.Writer, res *transfer.Result) {
	fmt.Fprintf(w, "Dry run: snapshot %s/%s (%s)\n", res.CampaignID, res.SnapshotID, res.Mode)
	for _, f := range res.Files {
		fmt.Fprintf(w, "  %s  %s(%s, %s)%s\n",
			f.Rel, colorGray, f.Scope, manifest.HumanSize(f.Size), colorReset)
	}
	fmt.Fprintf(w, "%d file(s), %s. Nothing was written.\n",
		res.Manifest.Counts.Files, res.Manifest.Counts.BytesHuman)
}

package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/tabletop-tools/campvault/internal/index"
	"github.com/tabletop-tools/campvault/internal/manifest"
	"github.com/tabletop-tools/campvault/internal/naming"
)

var (
	listCampaign string
	listJSON     bool
)

func init() {
	listCmd.Flags().StringVarP(&listCampaign, "campaign", "c", "",
		"limit to one campaign (default: all campaigns)")
	listCmd.Flags().BoolVar(&listJSON, "json", false, "output as JSON")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived snapshots",
	Long: `List cataloged snapshots, newest first.

Shows every campaign unless one is selected with --campaign.`,
	Example: `  # All snapshots across campaigns
  campvault list

  # One campaign, machine readable
  campvault list -c shadowfell --json

  See Also:
    campvault restore - Bring a snapshot back
    campvault doctor  - Check archive health`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// snapshotOutput is the JSON shape of one catalog entry.
type snapshotOutput struct {
	CampaignID string    `json:"campaign_id"`
	SnapshotID string    `json:"snapshot_id"`
	CreatedAt  time.Time `json:"created_at"`
	Mode       string    `json:"archive_mode"`
	MainRoles  string    `json:"main_roles,omitempty"`
	AIBlip     string    `json:"ai_blip,omitempty"`
	FileCount  int       `json:"file_count"`
	TotalBytes int64     `json:"total_bytes"`
	SaveHint   string    `json:"save_filename_hint,omitempty"`
	Note       string    `json:"note,omitempty"`
}

func runList(_ *cobra.Command, _ []string) error {
	return runListWithWriter(os.Stdout)
}

func runListWithWriter(w io.Writer) error {
	layout, err := resolveLayout()
	if err != nil {
		return err
	}

	ix, err := index.Load(layout.IndexPath())
	if err != nil {
		return exitError(err)
	}

	campaignID := ""
	if listCampaign != "" {
		campaignID, err = naming.NormalizeCampaignID(listCampaign)
		if err != nil {
			return err
		}
	}

	entries := ix.List(campaignID)

	if listJSON {
		return outputListJSON(w, entries)
	}
	return outputListTabular(w, entries)
}

func outputListJSON(w io.Writer, entries []index.Entry) error {
	output := make([]snapshotOutput, len(entries))
	for i, e := range entries {
		output[i] = snapshotOutput{
			CampaignID: e.CampaignID,
			SnapshotID: e.SnapshotID,
			CreatedAt:  e.CreatedAt,
			Mode:       string(e.Mode),
			MainRoles:  e.MainRolesLabel,
			AIBlip:     e.AIBlip,
			FileCount:  e.FileCount,
			TotalBytes: e.TotalBytes,
			SaveHint:   e.SaveFilenameHint,
			Note:       e.Note,
		}
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(output)
}

func outputListTabular(w io.Writer, entries []index.Entry) error {
	if len(entries) == 0 {
		fmt.Fprintf(w, "%s(no snapshots archived)%s\n", colorGray, colorReset)
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Create one with: campvault archive -c <campaign>")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "%sCAMPAIGN%s\t%sSNAPSHOT%s\t%sCREATED%s\t%sMODE%s\t%sFILES%s\t%sSIZE%s\t%sROLES%s\t%sBLIP%s\n",
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset,
		colorBold, colorReset)

	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s%s%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			e.CampaignID,
			colorGreen, e.SnapshotID, colorReset,
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Mode,
			e.FileCount,
			manifest.HumanSize(e.TotalBytes),
			e.MainRolesLabel,
			truncate(e.AIBlip, 30))
	}

	return tw.Flush()
}

package prompt

import (
	"fmt"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/tabletop-tools/campvault/internal/errors"
	"github.com/tabletop-tools/campvault/internal/index"
	"github.com/tabletop-tools/campvault/internal/manifest"
)

// PickSnapshot runs a full-screen fuzzy picker over the given entries
// and returns the chosen one. A single entry is returned without opening
// the picker. It needs a terminal; callers without one should fall back
// to Selector. Aborting reports ErrSelectionCancelled.
func PickSnapshot(entries []index.Entry) (index.Entry, error) {
	if len(entries) == 0 {
		return index.Entry{}, ErrNoSnapshots
	}
	if len(entries) == 1 {
		return entries[0], nil
	}

	idx, err := fuzzyfinder.Find(
		entries,
		func(i int) string {
			return entryLine(entries[i])
		},
		fuzzyfinder.WithPreviewWindow(func(i, w, h int) string {
			if i == -1 {
				return ""
			}
			return previewEntry(entries[i])
		}),
	)

	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return index.Entry{}, ErrSelectionCancelled
		}
		return index.Entry{}, errors.Wrap(err, "interactive selection failed")
	}

	return entries[idx], nil
}

// previewEntry renders the detail pane for one snapshot.
func previewEntry(e index.Entry) string {
	preview := fmt.Sprintf("Campaign: %s\nSnapshot: %s\nCreated:  %s\nMode:     %s\nRoles:    %s\nFiles:    %d (%s)",
		e.CampaignID,
		e.SnapshotID,
		e.CreatedAt.Format("2006-01-02 15:04:05"),
		e.Mode,
		e.MainRolesLabel,
		e.FileCount,
		manifest.HumanSize(e.TotalBytes),
	)
	if e.AIBlip != "" {
		preview += "\nBlip:     " + e.AIBlip
	}
	if e.Note != "" {
		preview += "\n\n" + e.Note
	}
	return preview
}

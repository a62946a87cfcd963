// Package summary renders the human-readable companion document stored next
// to each snapshot manifest. Nothing reads the document back; manifest.json
// stays the machine-facing record.
package summary

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/tabletop-tools/campvault/internal/manifest"
)

// Render produces the markdown body of summary.md for a snapshot manifest.
func Render(m *manifest.Manifest) []byte {
	var b strings.Builder

	fmt.Fprintf(&b, "# Archive snapshot `%s`\n\n", m.SnapshotID)

	b.WriteString("## Metadata\n")
	fmt.Fprintf(&b, "- Campaign: `%s`\n", m.CampaignID)
	fmt.Fprintf(&b, "- Snapshot: `%s`\n", m.SnapshotID)
	fmt.Fprintf(&b, "- Created: `%s`\n", m.CreatedAt.Format(time.RFC3339))
	fmt.Fprintf(&b, "- Mode: `%s`\n", m.Mode)
	fmt.Fprintf(&b, "- Main roles: `%s`\n", fallback(m.MainRolesLabel, "party"))
	fmt.Fprintf(&b, "- AI blip: `%s`\n", fallback(m.AIBlip, "(none)"))
	fmt.Fprintf(&b, "- Save filename hint: `%s`\n", fallback(m.SaveFilenameHint, "(not generated)"))
	fmt.Fprintf(&b, "- Files: `%d`\n", m.Counts.Files)
	fmt.Fprintf(&b, "- Total size: `%s`\n\n", m.Counts.BytesHuman)

	b.WriteString("## Note\n")
	b.WriteString(fallback(m.Note, "(none)"))
	b.WriteString("\n\n")

	b.WriteString("## Scope counts\n")
	for _, scope := range slices.Sorted(maps.Keys(m.ScopeCounts)) {
		fmt.Fprintf(&b, "- `%s`: %d\n", scope, m.ScopeCounts[scope])
	}

	b.WriteString("\n## Files\n")
	b.WriteString("| File | Size |\n")
	b.WriteString("|---|---:|\n")
	for _, f := range m.Files {
		fmt.Fprintf(&b, "| `%s` | %s |\n", f.RelativePath, manifest.HumanSize(f.SizeBytes))
	}

	return []byte(b.String())
}

func fallback(value, placeholder string) string {
	if value == "" {
		return placeholder
	}
	return value
}

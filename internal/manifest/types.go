package manifest

import (
	"time"

	"github.com/cockroachdb/errors"
)

// Manifest format version for forward compatibility.
const SchemaVersion = 1

// TypeName marks a manifest as a campaign run-state archive.
const TypeName = "campaign_runtime_archive"

// Sentinel errors for manifest handling.
var (
	// ErrInvalid indicates a manifest that fails shape validation:
	// missing identity fields, a bad mode, or an unsafe file path.
	ErrInvalid = errors.New("invalid manifest")
)

// Mode records how a snapshot's files were transferred.
type Mode string

const (
	// ModeMove relocates files into the archive; the live root loses them.
	ModeMove Mode = "move"

	// ModeCopy duplicates files into the archive; the live root keeps them.
	ModeCopy Mode = "copy"
)

// Valid reports whether the mode is one of the two known transfers.
func (m Mode) Valid() bool {
	return m == ModeMove || m == ModeCopy
}

// ParseMode converts user input into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeMove:
		return ModeMove, nil
	case ModeCopy:
		return ModeCopy, nil
	default:
		return "", errors.Wrapf(ErrInvalid, "unknown mode %q (want move or copy)", s)
	}
}

// Manifest describes one snapshot: its identity, how it was taken, and the
// exact file set transferred. It is stored as manifest.json in each
// snapshot directory and is the sole authority for restoring the snapshot.
type Manifest struct {
	SchemaVersion int    `json:"schema_version"`
	Type          string `json:"type"`

	CampaignID string `json:"campaign_id"`
	SnapshotID string `json:"snapshot_id"`

	// CreatedAt is when the snapshot was taken, with UTC offset.
	CreatedAt time.Time `json:"created_at"`

	// Mode is how files got here; restore reverses it.
	Mode Mode `json:"archive_mode"`

	// MainRoles are the characters headlining the snapshot, either
	// user-supplied or inferred from active character sheets.
	MainRoles []string `json:"main_roles"`

	// MainRolesLabel is the display form, roles joined with "+".
	MainRolesLabel string `json:"main_roles_label"`

	// AIBlip is a short free-form annotation carried into filenames.
	AIBlip string `json:"ai_blip,omitempty"`

	// SaveFilenameHint proposes the save note filename for the next run.
	SaveFilenameHint string `json:"save_filename_hint"`

	Note string `json:"note,omitempty"`

	// SourceRoot is the live root the files came from.
	SourceRoot string `json:"source_root"`

	// ScopeCounts tallies the file set per scope.
	ScopeCounts map[string]int `json:"scope_counts"`

	Counts Counts `json:"counts"`

	// Files lists every transferred file. The set is exactly what sits
	// under the snapshot's data tree, in selection order. An empty list
	// is legal and marks a snapshot of a blank tree.
	Files []FileRecord `json:"files"`
}

// Counts aggregates the file set for display without walking Files.
type Counts struct {
	Files      int    `json:"files"`
	Bytes      int64  `json:"bytes"`
	BytesHuman string `json:"bytes_human"`
}

// FileRecord describes a single transferred file.
type FileRecord struct {
	// RelativePath locates the file under the live root,
	// slash-separated.
	RelativePath string `json:"relative_path"`

	// ArchivePath locates the archived copy inside the snapshot
	// directory, mirroring RelativePath under data/.
	ArchivePath string `json:"archive_path"`

	// Scope is the category that selected the file.
	Scope string `json:"scope"`

	SizeBytes int64 `json:"size_bytes"`

	// MTime is the file's modification time at transfer.
	MTime time.Time `json:"mtime"`

	// SHA256 is the hex-encoded hash of the file contents, computed
	// during transfer and checked on restore.
	SHA256 string `json:"sha256"`
}

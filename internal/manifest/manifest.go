package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tabletop-tools/campvault/internal/naming"
	"github.com/tabletop-tools/campvault/internal/paths"
	"github.com/tabletop-tools/campvault/pkg/fileutil"
)

// New creates a manifest for a snapshot being taken now. The file list
// starts empty; the engine appends records as transfers complete and calls
// Recount before writing.
func New(campaignID, snapshotID string, mode Mode, createdAt time.Time) (*Manifest, error) {
	if err := validateID("campaign id", campaignID); err != nil {
		return nil, err
	}
	if err := validateID("snapshot id", snapshotID); err != nil {
		return nil, err
	}
	if !mode.Valid() {
		return nil, errors.Wrapf(ErrInvalid, "unknown mode %q", mode)
	}

	return &Manifest{
		SchemaVersion: SchemaVersion,
		Type:          TypeName,
		CampaignID:    campaignID,
		SnapshotID:    snapshotID,
		CreatedAt:     createdAt,
		Mode:          mode,
		ScopeCounts:   map[string]int{},
		Files:         []FileRecord{},
	}, nil
}

// validateID rejects identifiers that would misbehave as a directory name.
func validateID(field, value string) error {
	if value == "" {
		return &naming.ValidationError{Field: field, Reason: "empty"}
	}
	if value == "." || value == ".." {
		return &naming.ValidationError{Field: field, Value: value, Reason: "reserved name"}
	}
	if strings.ContainsAny(value, `/\`) {
		return &naming.ValidationError{Field: field, Value: value, Reason: "contains a path separator"}
	}
	return nil
}

// Recount rebuilds ScopeCounts and Counts from the file list.
func (m *Manifest) Recount() {
	scopes := make(map[string]int, len(m.ScopeCounts))
	var bytes int64
	for _, f := range m.Files {
		scopes[f.Scope]++
		bytes += f.SizeBytes
	}
	m.ScopeCounts = scopes
	m.Counts = Counts{
		Files:      len(m.Files),
		Bytes:      bytes,
		BytesHuman: HumanSize(bytes),
	}
}

// Validate checks the manifest's shape: identity present, a known mode,
// and every file path safe to join under a root. It does not touch the
// filesystem.
func (m *Manifest) Validate() error {
	if m.SchemaVersion < 1 {
		return errors.Wrapf(ErrInvalid, "schema_version %d", m.SchemaVersion)
	}
	if err := validateID("campaign id", m.CampaignID); err != nil {
		return errors.Wrapf(ErrInvalid, "%v", err)
	}
	if err := validateID("snapshot id", m.SnapshotID); err != nil {
		return errors.Wrapf(ErrInvalid, "%v", err)
	}
	if !m.Mode.Valid() {
		return errors.Wrapf(ErrInvalid, "unknown mode %q", m.Mode)
	}
	for _, f := range m.Files {
		if err := paths.CheckRel(f.RelativePath); err != nil {
			return errors.Wrapf(ErrInvalid, "file entry %q", f.RelativePath)
		}
		if f.ArchivePath != "" {
			if err := paths.CheckRel(f.ArchivePath); err != nil {
				return errors.Wrapf(ErrInvalid, "archive entry %q", f.ArchivePath)
			}
		}
	}
	return nil
}

// ArchiveRel returns where the record sits inside the snapshot directory.
// Manifests written before archive paths were recorded derive it from the
// relative path.
func (f FileRecord) ArchiveRel() string {
	if f.ArchivePath != "" {
		return f.ArchivePath
	}
	return path.Join("data", f.RelativePath)
}

// Write persists the manifest atomically.
func (m *Manifest) Write(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return fileutil.AtomicWriteJSON(path, m)
}

// Read loads and validates a manifest. Malformed or unsafe content fails
// with ErrInvalid; a missing file surfaces the underlying os error.
func Read(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading manifest")
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(ErrInvalid, "parsing %s: %v", path, err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// HumanSize renders a byte count the way summaries and status output show
// it: raw bytes below 1 KB, one decimal place above.
func HumanSize(size int64) string {
	units := []string{"B", "KB", "MB", "GB", "TB"}
	n := float64(size)
	for _, unit := range units {
		if n < 1024 || unit == "TB" {
			if unit == "B" {
				return fmt.Sprintf("%dB", size)
			}
			return fmt.Sprintf("%.1f%s", n, unit)
		}
		n /= 1024
	}
	return fmt.Sprintf("%dB", size)
}

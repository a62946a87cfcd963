package index

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tabletop-tools/campvault/internal/manifest"
	"github.com/tabletop-tools/campvault/internal/paths"
	"github.com/tabletop-tools/campvault/pkg/fileutil"
)

// Catalog format version for forward compatibility.
const SchemaVersion = 1

// Sentinel errors for catalog operations.
var (
	// ErrNotFound indicates the campaign or snapshot is not in the catalog.
	ErrNotFound = errors.New("not found in index")

	// ErrCorrupt indicates the index file is unreadable or malformed. The
	// condition is surfaced to the caller; the file is never reset.
	ErrCorrupt = errors.New("index corrupt")
)

// Entry summarizes one snapshot for listing and latest-resolution.
type Entry struct {
	CampaignID       string        `json:"campaign_id"`
	SnapshotID       string        `json:"snapshot_id"`
	CreatedAt        time.Time     `json:"created_at"`
	Mode             manifest.Mode `json:"archive_mode"`
	MainRolesLabel   string        `json:"main_roles_label"`
	AIBlip           string        `json:"ai_blip,omitempty"`
	SaveFilenameHint string        `json:"save_filename_hint"`
	FileCount        int           `json:"file_count"`
	TotalBytes       int64         `json:"total_bytes"`
	Note             string        `json:"note,omitempty"`
}

// FromManifest derives the catalog entry for a snapshot.
func FromManifest(m *manifest.Manifest) Entry {
	return Entry{
		CampaignID:       m.CampaignID,
		SnapshotID:       m.SnapshotID,
		CreatedAt:        m.CreatedAt,
		Mode:             m.Mode,
		MainRolesLabel:   m.MainRolesLabel,
		AIBlip:           m.AIBlip,
		SaveFilenameHint: m.SaveFilenameHint,
		FileCount:        m.Counts.Files,
		TotalBytes:       m.Counts.Bytes,
		Note:             m.Note,
	}
}

// document is the serialized catalog shape.
type document struct {
	SchemaVersion int     `json:"schema_version"`
	Entries       []Entry `json:"entries"`
}

// Index is the snapshot catalog for one archive root, the sole source of
// truth for which snapshots exist and which is latest. Commands load it
// fresh from disk on every invocation; nothing caches it across runs.
type Index struct {
	path    string
	entries []Entry
}

// Load reads the catalog at path. A missing file yields an empty catalog.
// An unreadable or malformed file fails with ErrCorrupt.
func Load(path string) (*Index, error) {
	ix := &Index{path: path}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return ix, nil
		}
		return nil, errors.Wrapf(ErrCorrupt, "reading %s: %v", path, err)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrapf(ErrCorrupt, "parsing %s: %v", path, err)
	}
	if doc.SchemaVersion < 1 {
		return nil, errors.Wrapf(ErrCorrupt, "%s: schema_version %d", path, doc.SchemaVersion)
	}
	for _, e := range doc.Entries {
		if e.CampaignID == "" || e.SnapshotID == "" {
			return nil, errors.Wrapf(ErrCorrupt, "%s: entry missing identity", path)
		}
	}

	ix.entries = doc.Entries
	sortEntries(ix.entries)
	return ix, nil
}

// Path returns the catalog location on disk.
func (ix *Index) Path() string {
	return ix.path
}

// Len returns the number of cataloged snapshots.
func (ix *Index) Len() int {
	return len(ix.entries)
}

// Register upserts an entry and persists the catalog atomically. A
// duplicate (campaign, snapshot) identity is replaced in place. On failure
// the prior catalog content remains on disk untouched.
func (ix *Index) Register(e Entry) error {
	if err := checkIdentity(e); err != nil {
		return err
	}

	next := make([]Entry, 0, len(ix.entries)+1)
	for _, cur := range ix.entries {
		if cur.CampaignID == e.CampaignID && cur.SnapshotID == e.SnapshotID {
			continue
		}
		next = append(next, cur)
	}
	next = append(next, e)

	return ix.commit(next)
}

// ReplaceCampaign registers an entry as the campaign's only snapshot and
// drops every other id the campaign had. It returns the dropped ids so the
// caller can delete their snapshot directories. The catalog write happens
// before any directory is deleted, so a crash between the two steps leaves
// stale directories rather than dangling catalog entries.
func (ix *Index) ReplaceCampaign(e Entry) (removed []string, err error) {
	if err := checkIdentity(e); err != nil {
		return nil, err
	}

	next := make([]Entry, 0, len(ix.entries)+1)
	for _, cur := range ix.entries {
		if cur.CampaignID == e.CampaignID {
			if cur.SnapshotID != e.SnapshotID {
				removed = append(removed, cur.SnapshotID)
			}
			continue
		}
		next = append(next, cur)
	}
	next = append(next, e)

	if err := ix.commit(next); err != nil {
		return nil, err
	}
	return removed, nil
}

// Remove drops one snapshot from the catalog.
func (ix *Index) Remove(campaignID, snapshotID string) error {
	next := make([]Entry, 0, len(ix.entries))
	for _, cur := range ix.entries {
		if cur.CampaignID == campaignID && cur.SnapshotID == snapshotID {
			continue
		}
		next = append(next, cur)
	}
	if len(next) == len(ix.entries) {
		return errors.Wrapf(ErrNotFound, "snapshot %s/%s", campaignID, snapshotID)
	}

	return ix.commit(next)
}

// ResolveLatest returns the most recent snapshot id for a campaign.
func (ix *Index) ResolveLatest(campaignID string) (string, error) {
	for _, e := range ix.entries {
		if e.CampaignID == campaignID {
			return e.SnapshotID, nil
		}
	}
	return "", errors.Wrapf(ErrNotFound, "campaign %q", campaignID)
}

// Has reports whether a snapshot is cataloged.
func (ix *Index) Has(campaignID, snapshotID string) bool {
	for _, e := range ix.entries {
		if e.CampaignID == campaignID && e.SnapshotID == snapshotID {
			return true
		}
	}
	return false
}

// Get returns the catalog entry for one snapshot.
func (ix *Index) Get(campaignID, snapshotID string) (Entry, error) {
	for _, e := range ix.entries {
		if e.CampaignID == campaignID && e.SnapshotID == snapshotID {
			return e, nil
		}
	}
	return Entry{}, errors.Wrapf(ErrNotFound, "snapshot %s/%s", campaignID, snapshotID)
}

// List returns entries newest first. An empty campaignID lists every
// campaign. The returned slice is the caller's to keep.
func (ix *Index) List(campaignID string) []Entry {
	out := make([]Entry, 0, len(ix.entries))
	for _, e := range ix.entries {
		if campaignID == "" || e.CampaignID == campaignID {
			out = append(out, e)
		}
	}
	return out
}

// commit sorts, persists, and only then adopts the new entry set.
func (ix *Index) commit(next []Entry) error {
	sortEntries(next)

	if err := paths.EnsureDir(filepath.Dir(ix.path), 0); err != nil {
		return errors.Wrap(err, "creating index directory")
	}
	doc := document{SchemaVersion: SchemaVersion, Entries: next}
	if err := fileutil.AtomicWriteJSON(ix.path, doc); err != nil {
		return errors.Wrap(err, "writing index")
	}

	ix.entries = next
	return nil
}

func checkIdentity(e Entry) error {
	if e.CampaignID == "" || e.SnapshotID == "" {
		return errors.New("index entry missing identity")
	}
	return nil
}

// sortEntries orders by creation time descending, snapshot id descending
// on ties, so entries[0] is always the newest.
func sortEntries(entries []Entry) {
	slices.SortFunc(entries, func(a, b Entry) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		if c := strings.Compare(b.SnapshotID, a.SnapshotID); c != 0 {
			return c
		}
		return strings.Compare(a.CampaignID, b.CampaignID)
	})
}

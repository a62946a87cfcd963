package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// Well-known names inside a campaign tree.
const (
	SavesDirName    = "saves"
	ArchivesDirName = "archives"
	DataDirName     = "data"
	ManifestName    = "manifest.json"
	SummaryName     = "summary.md"
	IndexName       = "index.json"
)

// Sentinel errors for path resolution.
var (
	// ErrHomeDirNotFound indicates the user's home directory could not be determined.
	ErrHomeDirNotFound = errors.New("home directory not found")

	// ErrUnsafeRelPath indicates a relative path that is absolute, malformed,
	// or climbs out of its root when joined.
	ErrUnsafeRelPath = errors.New("unsafe relative path")
)

// DefaultDirPerm is the default permission for newly created directories.
const DefaultDirPerm = 0o755

// EnsureDir creates the directory and any necessary parents with the given
// permissions. If perm is 0, DefaultDirPerm is used.
// This function is idempotent; it returns nil if the directory already exists.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// Layout resolves every location inside a campaign tree: the live root a
// session writes into and the archive root snapshots land under.
//
// Default layout:
//
//	<live>/characters/active/           character sheets
//	<live>/logs/{session,combat,...}/   session logs
//	<live>/saves/                       save notes
//	<live>/saves/archives/              archive root (unless overridden)
//	<live>/saves/archives/index.json    snapshot catalog
//	<live>/saves/archives/<campaign>/<snapshot>/
//	    manifest.json  summary.md  data/<original relative paths>
type Layout struct {
	LiveRoot    string
	ArchiveRoot string
}

// NewLayout builds a Layout from a live root and an optional archive root
// override. Both are made absolute. An empty liveRoot means the current
// directory; an empty archiveRoot selects the default location under the
// live root.
func NewLayout(liveRoot, archiveRoot string) (Layout, error) {
	if liveRoot == "" {
		liveRoot = "."
	}
	live, err := filepath.Abs(liveRoot)
	if err != nil {
		return Layout{}, errors.Wrap(err, "resolve live root")
	}
	if archiveRoot == "" {
		archiveRoot = filepath.Join(live, SavesDirName, ArchivesDirName)
	}
	arch, err := filepath.Abs(archiveRoot)
	if err != nil {
		return Layout{}, errors.Wrap(err, "resolve archive root")
	}
	return Layout{LiveRoot: live, ArchiveRoot: arch}, nil
}

// CampaignDir returns the directory holding every snapshot of one campaign.
// Returns: <archive>/<campaignID>/
func (l Layout) CampaignDir(campaignID string) string {
	return filepath.Join(l.ArchiveRoot, campaignID)
}

// SnapshotDir returns the directory of a single snapshot.
// Returns: <archive>/<campaignID>/<snapshotID>/
func (l Layout) SnapshotDir(campaignID, snapshotID string) string {
	return filepath.Join(l.ArchiveRoot, campaignID, snapshotID)
}

// DataDir returns the subtree a snapshot's archived files live under.
// Returns: <archive>/<campaignID>/<snapshotID>/data/
func (l Layout) DataDir(campaignID, snapshotID string) string {
	return filepath.Join(l.SnapshotDir(campaignID, snapshotID), DataDirName)
}

// ManifestPath returns the manifest location of a snapshot.
// Returns: <archive>/<campaignID>/<snapshotID>/manifest.json
func (l Layout) ManifestPath(campaignID, snapshotID string) string {
	return filepath.Join(l.SnapshotDir(campaignID, snapshotID), ManifestName)
}

// SummaryPath returns the summary location of a snapshot.
// Returns: <archive>/<campaignID>/<snapshotID>/summary.md
func (l Layout) SummaryPath(campaignID, snapshotID string) string {
	return filepath.Join(l.SnapshotDir(campaignID, snapshotID), SummaryName)
}

// IndexPath returns the snapshot catalog location.
// Returns: <archive>/index.json
func (l Layout) IndexPath() string {
	return filepath.Join(l.ArchiveRoot, IndexName)
}

// LivePath maps a slash-separated relative path to its location under the
// live root.
func (l Layout) LivePath(rel string) string {
	return filepath.Join(l.LiveRoot, filepath.FromSlash(rel))
}

// ArchivedPath maps a slash-separated relative path to its location under a
// snapshot's data tree.
func (l Layout) ArchivedPath(campaignID, snapshotID, rel string) string {
	return filepath.Join(l.DataDir(campaignID, snapshotID), filepath.FromSlash(rel))
}

// Rel returns the slash-separated path of target relative to root.
// Returns ErrUnsafeRelPath when target does not sit under root.
func Rel(root, target string) (string, error) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", errors.Wrapf(ErrUnsafeRelPath, "%q not under %q", target, root)
	}
	if rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.Wrapf(ErrUnsafeRelPath, "%q not under %q", target, root)
	}
	return filepath.ToSlash(rel), nil
}

// CheckRel rejects relative paths that could escape their root when joined:
// empty paths, absolute paths, backslash forms, and ".." climbs. Manifest
// entries are validated with it before any file is touched.
func CheckRel(rel string) error {
	if rel == "" {
		return errors.Wrap(ErrUnsafeRelPath, "empty path")
	}
	if filepath.IsAbs(rel) || strings.HasPrefix(rel, "/") || strings.Contains(rel, `\`) {
		return errors.Wrapf(ErrUnsafeRelPath, "%q", rel)
	}
	for _, part := range strings.Split(rel, "/") {
		if part == ".." {
			return errors.Wrapf(ErrUnsafeRelPath, "%q", rel)
		}
	}
	return nil
}

// ResolveHome returns the user's home directory.
// Returns ErrHomeDirNotFound if the directory cannot be determined.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ExpandHome replaces a leading "~" or "~/" with the user's home directory.
// Paths without the prefix come back unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := ResolveHome()
	if err != nil {
		return "", err
	}
	if path == "~" {
		return home, nil
	}
	return filepath.Join(home, path[2:]), nil
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func ConfigHome() string {
	return xdg.ConfigHome
}

// ConfigDir returns the campvault config directory.
// Returns: <ConfigHome>/campvault/
func ConfigDir() string {
	return filepath.Join(ConfigHome(), "campvault")
}

// ConfigFile returns the default config file location.
// Returns: <ConfigHome>/campvault/config.yaml
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Package paths resolves every location campvault touches inside a campaign
// tree and on the host system.
//
// # Campaign Tree Layout
//
// A campaign tree has a live root (where the session writes character sheets,
// logs, and save notes) and an archive root (where snapshots land). By default
// the archive root sits inside the live root:
//
//	<live>/saves/archives/index.json
//	<live>/saves/archives/<campaign>/<snapshot>/manifest.json
//	<live>/saves/archives/<campaign>/<snapshot>/summary.md
//	<live>/saves/archives/<campaign>/<snapshot>/data/...
//
// [Layout] carries both roots and derives all other locations from them:
//
//	layout, _ := paths.NewLayout(".", "")
//	layout.SnapshotDir("west-march", "20260104_120000")
//	layout.IndexPath()
//
// # Relative Path Safety
//
// Manifests store slash-separated paths relative to the live root. [CheckRel]
// rejects entries that would escape a root when joined (absolute paths,
// backslashes, ".." climbs), and [Rel] computes a safe relative path or
// fails with [ErrUnsafeRelPath].
//
// # XDG Base Directory Compliance
//
// The package wraps github.com/adrg/xdg for cross-platform XDG Base Directory
// Specification compliance. The config file lives at
// <ConfigHome>/campvault/config.yaml.
package paths

// Package index maintains the snapshot catalog: one index.json per archive
// root mapping campaigns to their known snapshots, newest first.
//
// The catalog is the sole source of truth for "latest" resolution. Every
// mutation follows a load, modify, atomically-persist lifecycle: the new
// content lands in a temp file in the catalog's directory and is renamed
// over the old file, so a crash mid-write never leaves a half-written or
// truncated index. A malformed catalog is reported as [ErrCorrupt] and
// never silently reset.
package index

// Package transfer is the archive/restore engine. It is the only component
// that mutates files under the live root or the archive store; manifests and
// the index are data it persists on the way.
//
// An archive run selects the current run-state files, relocates (move) or
// duplicates (copy) them into a fresh snapshot directory, writes the
// manifest and summary, and only then registers the snapshot in the index.
// Moves are two-phase: copy, verify the copy by content hash, then delete
// the source, so a failure at any point leaves every file either in the
// live tree or recorded in a manifest.
//
// A restore reverses an archive from its manifest: it resolves the snapshot
// (latest by default), checks the archived files exist and match their
// recorded hashes, refuses to overwrite existing destinations unless forced
// (all-or-nothing: one conflict aborts the whole run before any file
// moves), and copies the files back to their original relative paths.
//
// Both directions support dry runs that compute and report the exact plan
// without touching the filesystem or the index.
package transfer

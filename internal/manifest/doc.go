// Package manifest defines the snapshot record: what was archived, when,
// how, and under which identity. A manifest round-trips losslessly through
// JSON and is the restore path's only source of truth.
//
// Manifests are pure data. The transfer engine fills them in and decides
// when to write; this package only validates shape and guards against file
// entries that would escape their root when joined.
package manifest

// Package naming normalizes the identifiers campvault embeds in directory
// and file names: campaign ids, snapshot ids, and the generated save
// filename hint.
//
// All normalization is pure string work. The transfer engine owns the clock;
// [DefaultSnapshotID] takes an explicit time so tests stay deterministic.
//
// Campaign ids keep their original script (CJK names survive) but lose the
// characters Windows forbids in filenames. Snapshot ids are stricter: only
// [0-9A-Za-z_-] survives, so generated timestamp ids and user-supplied ids
// share one shape.
package naming

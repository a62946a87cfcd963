// Package selector turns the declarative description of a campaign's run
// state into the concrete file set an archive or restore operates on.
//
// Six built-in scopes cover the mutable parts of a campaign tree: active
// character sheets, the four log categories, and save notes. User-supplied
// extra patterns extend the set and are tagged "extra". Matching happens
// against slash-separated paths relative to the live root; the archive
// subtree is always pruned, symlinks pointing out of the live root are
// dropped, and exclusion rules (template basenames, dead-entity suffixes,
// placeholder prefixes) bar files from selection outright.
//
// The selector also owns main-role inference: scanning the active-character
// category for the names that end up in the generated save filename. A
// sheet's frontmatter name field wins over its filename when present.
package selector

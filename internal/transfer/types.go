package transfer

import (
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/tabletop-tools/campvault/internal/manifest"
)

// Sentinel errors for transfer operations.
var (
	// ErrSnapshotCorrupt indicates a snapshot whose data tree no longer
	// matches its manifest: archived files are missing or their content
	// hashes disagree with the recorded ones.
	ErrSnapshotCorrupt = errors.New("snapshot corrupted")
)

// State names the steps an operation moves through: PLANNED, VALIDATED,
// then either DRY_RUN_REPORTED or TRANSFERRED, MANIFEST_WRITTEN and
// INDEXED, ending in DONE. A failed run surfaces as an error instead of a
// terminal state; TransferError tells a failure after partial transfer
// apart from one before any file moved.
type State string

const (
	StatePlanned         State = "PLANNED"
	StateValidated       State = "VALIDATED"
	StateDryRunReported  State = "DRY_RUN_REPORTED"
	StateTransferred     State = "TRANSFERRED"
	StateManifestWritten State = "MANIFEST_WRITTEN"
	StateIndexed         State = "INDEXED"
	StateDone            State = "DONE"
	StateFailed          State = "FAILED"
)

// PlannedFile pairs one file's source with its destination for a single
// operation direction. Archiving reads from the live tree and writes under
// the snapshot's data tree; restoring goes the other way.
type PlannedFile struct {
	// Rel is the file's identity: its slash-separated path relative to
	// the live root.
	Rel string

	// Scope is the category that selected the file.
	Scope string

	// Size in bytes at planning time.
	Size int64

	// Source is the absolute path read from.
	Source string

	// Dest is the absolute path written to.
	Dest string
}

// Result reports one archive or restore run.
type Result struct {
	CampaignID string
	SnapshotID string

	// Mode is the transfer direction's mode: the archive mode requested,
	// or copy/move depending on how a restore pulls files back.
	Mode manifest.Mode

	DryRun bool

	// Files is the exact planned file set with resulting paths, in
	// transfer order.
	Files []PlannedFile

	// Manifest is the snapshot record: the one written by an archive run
	// (fully populated on dry runs too), or the one a restore ran from.
	Manifest *manifest.Manifest

	// RemovedSnapshots lists snapshot ids dropped as a consequence of the
	// run: previous saves replaced by retention, or a snapshot consumed
	// by a move-from-archive restore.
	RemovedSnapshots []string

	// Trail records the states reached, in order, ending in DONE.
	Trail []State
}

// State returns the last state reached.
func (r *Result) State() State {
	if len(r.Trail) == 0 {
		return StatePlanned
	}
	return r.Trail[len(r.Trail)-1]
}

// ConflictError aborts a restore whose destinations already exist while
// force is not set. No file has been touched when it is returned.
type ConflictError struct {
	// Paths lists every conflicting destination, relative to the live
	// root, in manifest order.
	Paths []string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%d restore target(s) already exist: %s",
		len(e.Paths), joinSample(e.Paths, 20))
}

// TransferError reports an I/O failure mid-move or mid-copy. Transferred
// lists the files that completed before the failure so a partial run stays
// inspectable; nothing is rolled back automatically.
type TransferError struct {
	// Op is the direction that failed, "archive" or "restore".
	Op string

	// Transferred holds the relative paths completed before the failure.
	Transferred []string

	// FailedPath is the relative path of the file that failed.
	FailedPath string

	Err error
}

func (e *TransferError) Error() string {
	return fmt.Sprintf("%s failed at %s after %d transferred file(s): %v",
		e.Op, e.FailedPath, len(e.Transferred), e.Err)
}

func (e *TransferError) Unwrap() error { return e.Err }

// joinSample renders up to n paths, noting how many were cut.
func joinSample(paths []string, n int) string {
	if len(paths) <= n {
		return strings.Join(paths, ", ")
	}
	return fmt.Sprintf("%s (and %d more)", strings.Join(paths[:n], ", "), len(paths)-n)
}

package transfer

import (
	"os"
	"path/filepath"

	"github.com/cockroachdb/errors"

	"github.com/tabletop-tools/campvault/internal/index"
	"github.com/tabletop-tools/campvault/internal/manifest"
	"github.com/tabletop-tools/campvault/internal/naming"
	"github.com/tabletop-tools/campvault/internal/paths"
)

// RestoreRequest describes one restore run.
type RestoreRequest struct {
	// CampaignID is the raw campaign name; the engine normalizes it.
	CampaignID string

	// SnapshotID pins the snapshot; empty resolves the campaign's latest
	// through the index.
	SnapshotID string

	// Force overwrites existing destinations instead of aborting.
	Force bool

	// MoveFromArchive relocates the files out of the snapshot instead of
	// copying them back. The emptied snapshot is dropped from the archive
	// and the index afterwards.
	MoveFromArchive bool

	// SkipVerify disables content hash checks against the manifest.
	SkipVerify bool

	// DryRun reports the full plan without touching the tree or index.
	DryRun bool
}

// Restore brings a snapshot's files back to their original paths under the
// live root. The default policy is all-or-nothing: one existing destination
// aborts the whole run before any file moves. Archived files are checked
// against the manifest (existence, then content hash) before anything is
// written.
func (e *Engine) Restore(req RestoreRequest) (*Result, error) {
	res := &Result{DryRun: req.DryRun, Mode: manifest.ModeCopy}
	if req.MoveFromArchive {
		res.Mode = manifest.ModeMove
	}
	e.advance(res, "restore", StatePlanned)

	campaignID, err := naming.NormalizeCampaignID(req.CampaignID)
	if err != nil {
		return nil, err
	}
	res.CampaignID = campaignID

	ix, err := index.Load(e.layout.IndexPath())
	if err != nil {
		return nil, err
	}

	var snapshotID string
	if req.SnapshotID == "" {
		snapshotID, err = ix.ResolveLatest(campaignID)
		if err != nil {
			return nil, err
		}
	} else {
		snapshotID, err = naming.NormalizeSnapshotID(req.SnapshotID)
		if err != nil {
			return nil, err
		}
		if !ix.Has(campaignID, snapshotID) {
			return nil, errors.Wrapf(index.ErrNotFound, "snapshot %s/%s not in index", campaignID, snapshotID)
		}
	}
	res.SnapshotID = snapshotID

	m, err := manifest.Read(e.layout.ManifestPath(campaignID, snapshotID))
	if err != nil {
		return nil, errors.Wrapf(ErrSnapshotCorrupt, "manifest for %s/%s: %v", campaignID, snapshotID, err)
	}
	res.Manifest = m

	snapshotDir := e.layout.SnapshotDir(campaignID, snapshotID)
	for _, rec := range m.Files {
		res.Files = append(res.Files, PlannedFile{
			Rel:    rec.RelativePath,
			Scope:  rec.Scope,
			Size:   rec.SizeBytes,
			Source: filepath.Join(snapshotDir, filepath.FromSlash(rec.ArchiveRel())),
			Dest:   e.layout.LivePath(rec.RelativePath),
		})
	}

	var missing, conflicts []string
	for _, p := range res.Files {
		if _, err := os.Stat(p.Source); err != nil {
			if os.IsNotExist(err) {
				missing = append(missing, p.Rel)
				continue
			}
			return nil, errors.Wrapf(err, "stat archived file %s", p.Rel)
		}
		if _, err := os.Stat(p.Dest); err == nil {
			conflicts = append(conflicts, p.Rel)
		} else if !os.IsNotExist(err) {
			return nil, errors.Wrapf(err, "stat restore target %s", p.Rel)
		}
	}
	if len(missing) > 0 {
		return nil, errors.Wrapf(ErrSnapshotCorrupt, "snapshot %s/%s is missing %d archived file(s): %s",
			campaignID, snapshotID, len(missing), joinSample(missing, 20))
	}

	if !req.SkipVerify {
		var mismatched []string
		for i, rec := range m.Files {
			if rec.SHA256 == "" {
				continue
			}
			hash, err := hashFile(res.Files[i].Source)
			if err != nil {
				return nil, errors.Wrapf(err, "verifying archived file %s", rec.RelativePath)
			}
			if hash != rec.SHA256 {
				mismatched = append(mismatched, rec.RelativePath)
			}
		}
		if len(mismatched) > 0 {
			return nil, errors.Wrapf(ErrSnapshotCorrupt, "snapshot %s/%s failed verification on %d file(s): %s",
				campaignID, snapshotID, len(mismatched), joinSample(mismatched, 20))
		}
	}

	if len(conflicts) > 0 && !req.Force {
		return nil, &ConflictError{Paths: conflicts}
	}
	e.advance(res, "restore", StateValidated)

	if req.DryRun {
		e.advance(res, "restore", StateDryRunReported)
		e.advance(res, "restore", StateDone)
		e.logger.Info("restore dry run",
			"campaign", campaignID,
			"snapshot", snapshotID,
			"mode", string(res.Mode),
			"files", len(res.Files),
			"overwrites", len(conflicts))
		return res, nil
	}

	var restored []string
	for i, p := range res.Files {
		if err := e.restoreFile(p, m.Files[i], req); err != nil {
			return nil, &TransferError{Op: "restore", Transferred: restored, FailedPath: p.Rel, Err: err}
		}
		restored = append(restored, p.Rel)
	}
	e.advance(res, "restore", StateTransferred)

	if req.MoveFromArchive {
		// Deregister before deleting, so a crash between the two leaves
		// an orphaned directory rather than a catalog entry with no
		// snapshot behind it.
		if err := ix.Remove(campaignID, snapshotID); err != nil {
			return nil, errors.Wrapf(err,
				"files restored, but dropping consumed snapshot %s/%s from the index failed",
				campaignID, snapshotID)
		}
		e.advance(res, "restore", StateIndexed)
		if err := os.RemoveAll(snapshotDir); err != nil {
			e.logger.Warn("removing consumed snapshot directory failed",
				"campaign", campaignID, "snapshot", snapshotID, "error", err)
		}
		res.RemovedSnapshots = []string{snapshotID}
	}

	e.advance(res, "restore", StateDone)
	e.logger.Info("restored",
		"campaign", campaignID,
		"snapshot", snapshotID,
		"mode", string(res.Mode),
		"files", len(restored))
	return res, nil
}

// restoreFile copies one archived file back to its live path. Failures
// remove the half-written destination. Move-from-archive deletes the
// archived copy only after the written file passed readback verification.
func (e *Engine) restoreFile(p PlannedFile, rec manifest.FileRecord, req RestoreRequest) error {
	if err := paths.EnsureDir(filepath.Dir(p.Dest), 0); err != nil {
		return errors.Wrapf(err, "creating directory for %s", p.Rel)
	}
	if req.Force {
		if err := os.RemoveAll(p.Dest); err != nil {
			return errors.Wrapf(err, "removing existing %s", p.Rel)
		}
	}

	hash, err := copyFile(p.Source, p.Dest)
	if err != nil {
		os.Remove(p.Dest)
		return err
	}
	if !req.SkipVerify && rec.SHA256 != "" && hash != rec.SHA256 {
		os.Remove(p.Dest)
		return errors.Wrapf(ErrSnapshotCorrupt, "hash mismatch restoring %s", p.Rel)
	}
	if req.MoveFromArchive {
		return verifyAndRemove(p.Source, p.Dest, hash)
	}
	return nil
}

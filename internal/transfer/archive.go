package transfer

import (
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/tabletop-tools/campvault/internal/index"
	"github.com/tabletop-tools/campvault/internal/manifest"
	"github.com/tabletop-tools/campvault/internal/naming"
	"github.com/tabletop-tools/campvault/internal/paths"
	"github.com/tabletop-tools/campvault/internal/retention"
	"github.com/tabletop-tools/campvault/internal/selector"
	"github.com/tabletop-tools/campvault/internal/summary"
	"github.com/tabletop-tools/campvault/pkg/fileutil"
)

// ArchiveRequest describes one archive run.
type ArchiveRequest struct {
	// CampaignID is the raw user-supplied campaign name; the engine
	// normalizes it.
	CampaignID string

	// SnapshotID optionally pins the snapshot id; empty derives a
	// timestamp id from the engine clock.
	SnapshotID string

	// Mode selects move or copy. Empty means move.
	Mode manifest.Mode

	// Extra adds user glob patterns to the built-in scopes.
	Extra []string

	// MainRoles names the headline characters explicitly ("A+B" or comma
	// separated); empty infers them from active character sheets.
	MainRoles string

	// RoleLimit caps inferred roles; zero means the default.
	RoleLimit int

	// AIBlip is a short annotation carried into the manifest and the save
	// filename hint.
	AIBlip string

	// Note is free-form text recorded in the manifest.
	Note string

	// DryRun reports the full plan without touching the tree or index.
	DryRun bool
}

// Archive captures the current run state as one snapshot. Move mode
// relocates files out of the live tree; copy mode leaves them in place. The
// index is updated only after every transfer and the manifest write
// succeeded. A failure mid-transfer still writes a manifest covering the
// files that made it across, so the partial snapshot stays inspectable; it
// is never indexed.
func (e *Engine) Archive(req ArchiveRequest) (*Result, error) {
	res := &Result{DryRun: req.DryRun}
	e.advance(res, "archive", StatePlanned)

	campaignID, err := naming.NormalizeCampaignID(req.CampaignID)
	if err != nil {
		return nil, err
	}
	res.CampaignID = campaignID

	mode := req.Mode
	if mode == "" {
		mode = manifest.ModeMove
	}
	res.Mode = mode

	now := e.now()
	var snapshotID string
	if req.SnapshotID != "" {
		snapshotID, err = naming.NormalizeSnapshotID(req.SnapshotID)
		if err != nil {
			return nil, err
		}
	} else {
		snapshotID = naming.DefaultSnapshotID(now)
	}
	res.SnapshotID = snapshotID

	m, err := manifest.New(campaignID, snapshotID, mode, now.Truncate(time.Second))
	if err != nil {
		return nil, err
	}

	snapshotDir := e.layout.SnapshotDir(campaignID, snapshotID)
	if _, err := os.Stat(snapshotDir); err == nil {
		return nil, &naming.ValidationError{
			Field:  "snapshot id",
			Value:  snapshotID,
			Reason: fmt.Sprintf("snapshot directory already exists: %s", snapshotDir),
		}
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrapf(err, "checking snapshot directory %s", snapshotDir)
	}

	// Load the index while validating so a corrupt catalog stops the run
	// before any file moves.
	ix, err := index.Load(e.layout.IndexPath())
	if err != nil {
		return nil, err
	}

	sel, err := e.selector.Select(req.Extra)
	if err != nil {
		return nil, err
	}

	roles := e.resolveRoles(req)
	blip := naming.NormalizeBlip(req.AIBlip)
	m.MainRoles = roles
	m.MainRolesLabel = rolesLabel(roles)
	m.AIBlip = blip
	m.SaveFilenameHint = naming.SaveFilenameHint(snapshotID, roles, blip)
	m.Note = strings.TrimSpace(req.Note)
	m.SourceRoot = e.layout.LiveRoot
	res.Manifest = m

	for _, f := range sel.Files {
		res.Files = append(res.Files, PlannedFile{
			Rel:    f.Rel,
			Scope:  f.Scope,
			Size:   f.Size,
			Source: f.AbsPath,
			Dest:   e.layout.ArchivedPath(campaignID, snapshotID, f.Rel),
		})
	}
	e.advance(res, "archive", StateValidated)

	if req.DryRun {
		for _, p := range res.Files {
			rec, err := sourceRecord(p)
			if err != nil {
				return nil, err
			}
			m.Files = append(m.Files, *rec)
		}
		m.Recount()
		e.advance(res, "archive", StateDryRunReported)
		e.advance(res, "archive", StateDone)
		e.logger.Info("archive dry run",
			"campaign", campaignID,
			"snapshot", snapshotID,
			"mode", string(mode),
			"files", len(res.Files))
		return res, nil
	}

	if err := paths.EnsureDir(e.layout.DataDir(campaignID, snapshotID), 0); err != nil {
		return nil, errors.Wrap(err, "creating snapshot data directory")
	}

	records, terr := e.transferOut(res.Files, mode)
	if terr != nil {
		if len(records) == 0 {
			// Nothing made it across; leave no residue.
			if rerr := os.RemoveAll(snapshotDir); rerr != nil {
				e.logger.Warn("removing empty snapshot directory failed",
					"dir", snapshotDir, "error", rerr)
			}
			return nil, terr
		}
		m.Files = records
		m.Recount()
		if werr := m.Write(e.layout.ManifestPath(campaignID, snapshotID)); werr != nil {
			e.logger.Warn("writing recovery manifest failed",
				"campaign", campaignID, "snapshot", snapshotID, "error", werr)
		}
		return nil, terr
	}
	e.advance(res, "archive", StateTransferred)

	m.Files = records
	m.Recount()
	if err := m.Write(e.layout.ManifestPath(campaignID, snapshotID)); err != nil {
		return nil, errors.Wrapf(err,
			"writing manifest (transferred files remain under %s)",
			e.layout.DataDir(campaignID, snapshotID))
	}
	if err := fileutil.AtomicWriteFile(e.layout.SummaryPath(campaignID, snapshotID), summary.Render(m), 0o644); err != nil {
		return nil, errors.Wrap(err, "writing summary")
	}
	e.advance(res, "archive", StateManifestWritten)

	entry := index.FromManifest(m)
	if e.policy.OnNewSave(campaignID) == retention.Replace {
		removed, err := ix.ReplaceCampaign(entry)
		if err != nil {
			return nil, err
		}
		res.RemovedSnapshots = removed
	} else if err := ix.Register(entry); err != nil {
		return nil, err
	}
	e.advance(res, "archive", StateIndexed)

	// The replaced ids are already out of the index, so a failed removal
	// here leaves an orphaned directory for doctor to report, never a
	// dangling catalog entry.
	for _, old := range res.RemovedSnapshots {
		if err := os.RemoveAll(e.layout.SnapshotDir(campaignID, old)); err != nil {
			e.logger.Warn("removing replaced snapshot failed",
				"campaign", campaignID, "snapshot", old, "error", err)
		}
	}

	e.advance(res, "archive", StateDone)
	e.logger.Info("archived",
		"campaign", campaignID,
		"snapshot", snapshotID,
		"mode", string(mode),
		"files", len(m.Files),
		"bytes", m.Counts.Bytes)
	return res, nil
}

// transferOut copies or moves the planned files into the snapshot's data
// tree, building the manifest records as it goes.
func (e *Engine) transferOut(files []PlannedFile, mode manifest.Mode) ([]manifest.FileRecord, error) {
	records := make([]manifest.FileRecord, 0, len(files))
	for _, p := range files {
		rec, err := e.transferFile(p, mode)
		if err != nil {
			rels := make([]string, len(records))
			for i, r := range records {
				rels[i] = r.RelativePath
			}
			return records, &TransferError{Op: "archive", Transferred: rels, FailedPath: p.Rel, Err: err}
		}
		records = append(records, *rec)
	}
	return records, nil
}

// transferFile moves or copies one file into the archive. Any failure
// removes the half-written destination, so the data tree only ever holds
// verified complete files; the source is deleted only after the copy
// passed verification.
func (e *Engine) transferFile(p PlannedFile, mode manifest.Mode) (*manifest.FileRecord, error) {
	info, err := os.Stat(p.Source)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", p.Rel)
	}
	if err := paths.EnsureDir(filepath.Dir(p.Dest), 0); err != nil {
		return nil, errors.Wrapf(err, "creating directory for %s", p.Rel)
	}

	hash, err := copyFile(p.Source, p.Dest)
	if err != nil {
		os.Remove(p.Dest)
		return nil, err
	}
	if mode == manifest.ModeMove {
		if err := verifyAndRemove(p.Source, p.Dest, hash); err != nil {
			os.Remove(p.Dest)
			return nil, err
		}
	}

	return &manifest.FileRecord{
		RelativePath: p.Rel,
		ArchivePath:  path.Join(paths.DataDirName, p.Rel),
		Scope:        p.Scope,
		SizeBytes:    info.Size(),
		MTime:        info.ModTime().Truncate(time.Second),
		SHA256:       hash,
	}, nil
}

// resolveRoles takes explicitly named roles over inference from the active
// character sheets.
func (e *Engine) resolveRoles(req ArchiveRequest) []string {
	var roles []string
	if req.MainRoles != "" {
		roles = naming.ParseRoles(req.MainRoles)
	} else {
		limit := req.RoleLimit
		if limit <= 0 {
			limit = selector.DefaultRoleLimit
		}
		roles = e.selector.InferRoles(limit).Names
	}
	if roles == nil {
		roles = []string{}
	}
	return roles
}

func rolesLabel(roles []string) string {
	if len(roles) == 0 {
		return "party"
	}
	return strings.Join(roles, "+")
}

// sourceRecord builds a dry run's manifest record straight from the live
// file.
func sourceRecord(p PlannedFile) (*manifest.FileRecord, error) {
	info, err := os.Stat(p.Source)
	if err != nil {
		return nil, errors.Wrapf(err, "stat %s", p.Rel)
	}
	hash, err := hashFile(p.Source)
	if err != nil {
		return nil, errors.Wrapf(err, "hashing %s", p.Rel)
	}
	return &manifest.FileRecord{
		RelativePath: p.Rel,
		ArchivePath:  path.Join(paths.DataDirName, p.Rel),
		Scope:        p.Scope,
		SizeBytes:    info.Size(),
		MTime:        info.ModTime().Truncate(time.Second),
		SHA256:       hash,
	}, nil
}

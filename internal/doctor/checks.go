package doctor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/tabletop-tools/campvault/internal/index"
	"github.com/tabletop-tools/campvault/internal/manifest"
	"github.com/tabletop-tools/campvault/internal/paths"
)

// DefaultChecks returns the standard check set in report order.
func DefaultChecks(layout paths.Layout, verifyHashes bool) []Check {
	return []Check{
		NewLiveRootCheck(layout),
		NewCatalogCheck(layout),
		NewSnapshotDataCheck(layout, verifyHashes),
		NewOrphanCheck(layout),
	}
}

// issue is one problem found by a check.
type issue struct {
	Campaign string
	Snapshot string
	Path     string
	Problem  string
	Severity Severity
	FixHint  string
}

// buildResult folds a check's issues into a single result. No issues
// means a pass with the given message; otherwise the highest severity
// wins and every issue lands in Details.
func buildResult(name, category, passMessage string, issues []issue) *CheckResult {
	if len(issues) == 0 {
		return &CheckResult{
			Name:     name,
			Category: category,
			Status:   SeverityPass,
			Message:  passMessage,
		}
	}

	status := SeverityInfo
	var hints []string
	for _, is := range issues {
		if is.Severity > status {
			status = is.Severity
		}
		if is.FixHint != "" && !slices.Contains(hints, is.FixHint) {
			hints = append(hints, is.FixHint)
		}
	}

	issueDetails := make([]map[string]any, 0, len(issues))
	for _, is := range issues {
		d := map[string]any{
			"problem":  is.Problem,
			"severity": is.Severity.String(),
		}
		if is.Campaign != "" {
			d["campaign"] = is.Campaign
		}
		if is.Snapshot != "" {
			d["snapshot"] = is.Snapshot
		}
		if is.Path != "" {
			d["path"] = is.Path
		}
		issueDetails = append(issueDetails, d)
	}

	return &CheckResult{
		Name:     name,
		Category: category,
		Status:   status,
		Message:  fmt.Sprintf("found %d issue(s)", len(issues)),
		Details: map[string]any{
			"issue_count": len(issues),
			"issues":      issueDetails,
		},
		FixHint: strings.Join(hints, "; "),
	}
}

// LiveRootCheck verifies the campaign tree exists and is readable.
type LiveRootCheck struct {
	layout paths.Layout
}

var _ Check = (*LiveRootCheck)(nil)

// NewLiveRootCheck creates a new live root check.
func NewLiveRootCheck(layout paths.Layout) *LiveRootCheck {
	return &LiveRootCheck{layout: layout}
}

// Name returns the unique identifier for this check.
func (c *LiveRootCheck) Name() string {
	return "live-root"
}

// Category returns the grouping for this check.
func (c *LiveRootCheck) Category() string {
	return "filesystem"
}

// Run executes the live root check.
func (c *LiveRootCheck) Run() *CheckResult {
	root := c.layout.LiveRoot
	result := &CheckResult{Name: c.Name(), Category: c.Category()}

	info, err := os.Stat(root)
	switch {
	case os.IsNotExist(err):
		result.Status = SeverityError
		result.Message = fmt.Sprintf("campaign root %s does not exist", root)
		result.FixHint = "check the --root flag or the configured campaign root"
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot stat campaign root: %v", err)
		return result
	case !info.IsDir():
		result.Status = SeverityError
		result.Message = fmt.Sprintf("campaign root %s is not a directory", root)
		return result
	}

	if _, err := os.ReadDir(root); err != nil {
		result.Status = SeverityError
		result.Message = fmt.Sprintf("campaign root is not readable: %v", err)
		return result
	}

	result.Status = SeverityPass
	result.Message = fmt.Sprintf("campaign root %s is readable", root)
	return result
}

// CatalogCheck verifies every cataloged snapshot still has its directory
// on disk and a manifest that matches the catalog entry.
type CatalogCheck struct {
	layout paths.Layout
}

var _ Check = (*CatalogCheck)(nil)

// NewCatalogCheck creates a new catalog integrity check.
func NewCatalogCheck(layout paths.Layout) *CatalogCheck {
	return &CatalogCheck{layout: layout}
}

// Name returns the unique identifier for this check.
func (c *CatalogCheck) Name() string {
	return "catalog-integrity"
}

// Category returns the grouping for this check.
func (c *CatalogCheck) Category() string {
	return "catalog"
}

// Run executes the catalog integrity check.
func (c *CatalogCheck) Run() *CheckResult {
	ix, err := index.Load(c.layout.IndexPath())
	if err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  fmt.Sprintf("snapshot catalog unreadable: %v", err),
			FixHint:  "inspect " + c.layout.IndexPath(),
		}
	}

	entries := ix.List("")
	if len(entries) == 0 {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityPass,
			Message:  "no snapshots cataloged",
		}
	}

	var issues []issue
	for _, e := range entries {
		dir := c.layout.SnapshotDir(e.CampaignID, e.SnapshotID)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			issues = append(issues, issue{
				Campaign: e.CampaignID,
				Snapshot: e.SnapshotID,
				Path:     dir,
				Problem:  "snapshot directory missing",
				Severity: SeverityError,
			})
			continue
		}

		m, err := manifest.Read(c.layout.ManifestPath(e.CampaignID, e.SnapshotID))
		if err != nil {
			issues = append(issues, issue{
				Campaign: e.CampaignID,
				Snapshot: e.SnapshotID,
				Path:     c.layout.ManifestPath(e.CampaignID, e.SnapshotID),
				Problem:  fmt.Sprintf("manifest unreadable: %v", err),
				Severity: SeverityError,
			})
			continue
		}
		if m.CampaignID != e.CampaignID || m.SnapshotID != e.SnapshotID {
			issues = append(issues, issue{
				Campaign: e.CampaignID,
				Snapshot: e.SnapshotID,
				Problem:  fmt.Sprintf("manifest identifies itself as %s/%s", m.CampaignID, m.SnapshotID),
				Severity: SeverityError,
			})
			continue
		}
		if m.Counts.Files != e.FileCount || m.Counts.Bytes != e.TotalBytes {
			issues = append(issues, issue{
				Campaign: e.CampaignID,
				Snapshot: e.SnapshotID,
				Problem: fmt.Sprintf("catalog records %d file(s)/%d byte(s), manifest has %d/%d",
					e.FileCount, e.TotalBytes, m.Counts.Files, m.Counts.Bytes),
				Severity: SeverityWarning,
			})
		}
	}

	pass := fmt.Sprintf("all %d cataloged snapshot(s) consistent", len(entries))
	return buildResult(c.Name(), c.Category(), pass, issues)
}

// SnapshotDataCheck verifies the archived files behind every cataloged
// snapshot: each manifest entry must exist with its recorded size, and
// with hash verification on, its recorded SHA256.
type SnapshotDataCheck struct {
	layout       paths.Layout
	verifyHashes bool
}

var _ Check = (*SnapshotDataCheck)(nil)

// NewSnapshotDataCheck creates a new archived-file check. With
// verifyHashes set, every file is re-hashed against its manifest record.
func NewSnapshotDataCheck(layout paths.Layout, verifyHashes bool) *SnapshotDataCheck {
	return &SnapshotDataCheck{layout: layout, verifyHashes: verifyHashes}
}

// Name returns the unique identifier for this check.
func (c *SnapshotDataCheck) Name() string {
	return "archived-files"
}

// Category returns the grouping for this check.
func (c *SnapshotDataCheck) Category() string {
	return "snapshots"
}

// Run executes the archived-file check.
func (c *SnapshotDataCheck) Run() *CheckResult {
	ix, err := index.Load(c.layout.IndexPath())
	if err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  fmt.Sprintf("snapshot catalog unreadable: %v", err),
		}
	}

	var issues []issue
	var checked int
	for _, e := range ix.List("") {
		m, err := manifest.Read(c.layout.ManifestPath(e.CampaignID, e.SnapshotID))
		if err != nil {
			// catalog-integrity reports unreadable manifests.
			continue
		}

		snapshotDir := c.layout.SnapshotDir(e.CampaignID, e.SnapshotID)
		for _, rec := range m.Files {
			checked++
			p := filepath.Join(snapshotDir, filepath.FromSlash(rec.ArchiveRel()))

			info, err := os.Stat(p)
			if err != nil {
				issues = append(issues, issue{
					Campaign: e.CampaignID,
					Snapshot: e.SnapshotID,
					Path:     p,
					Problem:  "archived file missing",
					Severity: SeverityError,
				})
				continue
			}
			if info.Size() != rec.SizeBytes {
				issues = append(issues, issue{
					Campaign: e.CampaignID,
					Snapshot: e.SnapshotID,
					Path:     p,
					Problem:  fmt.Sprintf("size %d on disk, manifest records %d", info.Size(), rec.SizeBytes),
					Severity: SeverityError,
				})
				continue
			}
			if c.verifyHashes && rec.SHA256 != "" {
				sum, err := fileSHA256(p)
				if err != nil {
					issues = append(issues, issue{
						Campaign: e.CampaignID,
						Snapshot: e.SnapshotID,
						Path:     p,
						Problem:  fmt.Sprintf("cannot hash archived file: %v", err),
						Severity: SeverityError,
					})
					continue
				}
				if sum != rec.SHA256 {
					issues = append(issues, issue{
						Campaign: e.CampaignID,
						Snapshot: e.SnapshotID,
						Path:     p,
						Problem:  "content does not match recorded hash",
						Severity: SeverityError,
					})
				}
			}
		}
	}

	pass := fmt.Sprintf("all %d archived file(s) present", checked)
	if c.verifyHashes {
		pass = fmt.Sprintf("all %d archived file(s) verified", checked)
	}
	return buildResult(c.Name(), c.Category(), pass, issues)
}

// OrphanCheck finds snapshot directories the catalog does not know
// about. A cleanup that failed after replace-previous retention, or an
// archive run that died mid-transfer, leaves these behind.
type OrphanCheck struct {
	layout paths.Layout
}

var _ Check = (*OrphanCheck)(nil)

// NewOrphanCheck creates a new orphaned-directory check.
func NewOrphanCheck(layout paths.Layout) *OrphanCheck {
	return &OrphanCheck{layout: layout}
}

// Name returns the unique identifier for this check.
func (c *OrphanCheck) Name() string {
	return "orphaned-directories"
}

// Category returns the grouping for this check.
func (c *OrphanCheck) Category() string {
	return "catalog"
}

// Run executes the orphaned-directory check.
func (c *OrphanCheck) Run() *CheckResult {
	ix, err := index.Load(c.layout.IndexPath())
	if err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  fmt.Sprintf("snapshot catalog unreadable: %v", err),
		}
	}

	campaigns, err := os.ReadDir(c.layout.ArchiveRoot)
	if os.IsNotExist(err) {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityPass,
			Message:  "no archive root yet",
		}
	}
	if err != nil {
		return &CheckResult{
			Name:     c.Name(),
			Category: c.Category(),
			Status:   SeverityError,
			Message:  fmt.Sprintf("archive root unreadable: %v", err),
		}
	}

	var issues []issue
	var snapshots int
	for _, ce := range campaigns {
		if !ce.IsDir() {
			// index.json lives at this level.
			continue
		}
		campaignDir := filepath.Join(c.layout.ArchiveRoot, ce.Name())
		snaps, err := os.ReadDir(campaignDir)
		if err != nil {
			issues = append(issues, issue{
				Campaign: ce.Name(),
				Path:     campaignDir,
				Problem:  fmt.Sprintf("campaign directory unreadable: %v", err),
				Severity: SeverityWarning,
			})
			continue
		}

		for _, se := range snaps {
			if !se.IsDir() {
				continue
			}
			snapshots++
			if ix.Has(ce.Name(), se.Name()) {
				continue
			}

			dir := filepath.Join(campaignDir, se.Name())
			problem := "snapshot directory not in the catalog"
			if _, err := os.Stat(filepath.Join(dir, paths.ManifestName)); err != nil {
				problem = "snapshot directory not in the catalog and has no manifest"
			}
			issues = append(issues, issue{
				Campaign: ce.Name(),
				Snapshot: se.Name(),
				Path:     dir,
				Problem:  problem,
				Severity: SeverityWarning,
				FixHint:  "remove the directory if the snapshot is no longer needed",
			})
		}
	}

	pass := fmt.Sprintf("no orphaned snapshot directories (%d checked)", snapshots)
	return buildResult(c.Name(), c.Category(), pass, issues)
}

// fileSHA256 returns the hex-encoded SHA256 of a file's content.
func fileSHA256(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

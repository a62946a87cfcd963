package transfer

import (
	"os"
	"slices"
	"testing"

	"github.com/tabletop-tools/campvault/internal/errors"
	"github.com/tabletop-tools/campvault/internal/index"
	"github.com/tabletop-tools/campvault/internal/manifest"
	"github.com/tabletop-tools/campvault/internal/naming"
	"github.com/tabletop-tools/campvault/internal/retention"
)

func TestArchive_Move(t *testing.T) {
	layout := testLayout(t)
	clock := newFakeClock()
	e := newTestEngine(t, layout, clock)

	writeLive(t, layout, "characters/active/aria.md", "# Aria\nHP 24/24\n")
	writeLive(t, layout, "saves/save_ch3.md", "## Chapter 3\nCamped at the ford.\n")

	res, err := e.Archive(ArchiveRequest{CampaignID: "shadowfell", Mode: manifest.ModeMove})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	wantTrail := []State{StatePlanned, StateValidated, StateTransferred, StateManifestWritten, StateIndexed, StateDone}
	if !slices.Equal(res.Trail, wantTrail) {
		t.Errorf("Trail = %v, want %v", res.Trail, wantTrail)
	}
	wantID := naming.DefaultSnapshotID(testStart)
	if res.SnapshotID != wantID {
		t.Errorf("SnapshotID = %q, want %q", res.SnapshotID, wantID)
	}

	if exists(layout.LivePath("characters/active/aria.md")) || exists(layout.LivePath("saves/save_ch3.md")) {
		t.Error("move archive left source files in the live tree")
	}
	got := readFile(t, layout.ArchivedPath("shadowfell", wantID, "characters/active/aria.md"))
	if got != "# Aria\nHP 24/24\n" {
		t.Errorf("archived aria.md = %q", got)
	}

	m, err := manifest.Read(layout.ManifestPath("shadowfell", wantID))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if m.Counts.Files != 2 {
		t.Errorf("Counts.Files = %d, want 2", m.Counts.Files)
	}
	if m.Mode != manifest.ModeMove {
		t.Errorf("Mode = %q, want %q", m.Mode, manifest.ModeMove)
	}
	rels := make([]string, len(m.Files))
	for i, f := range m.Files {
		rels[i] = f.RelativePath
		if f.SHA256 == "" {
			t.Errorf("file %s carries no hash", f.RelativePath)
		}
	}
	wantRels := []string{"characters/active/aria.md", "saves/save_ch3.md"}
	if !slices.Equal(rels, wantRels) {
		t.Errorf("manifest rels = %v, want %v", rels, wantRels)
	}

	if !exists(layout.SummaryPath("shadowfell", wantID)) {
		t.Error("summary document not written")
	}

	ix, err := index.Load(layout.IndexPath())
	if err != nil {
		t.Fatalf("loading index: %v", err)
	}
	latest, err := ix.ResolveLatest("shadowfell")
	if err != nil {
		t.Fatalf("ResolveLatest() error = %v", err)
	}
	if latest != wantID {
		t.Errorf("ResolveLatest() = %q, want %q", latest, wantID)
	}
}

func TestArchive_CopyKeepsLiveFiles(t *testing.T) {
	layout := testLayout(t)
	clock := newFakeClock()
	e := newTestEngine(t, layout, clock)

	writeLive(t, layout, "saves/save_ch3.md", "## Chapter 3\n")

	res, err := e.Archive(ArchiveRequest{CampaignID: "shadowfell", Mode: manifest.ModeCopy})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	live := readFile(t, layout.LivePath("saves/save_ch3.md"))
	archived := readFile(t, layout.ArchivedPath("shadowfell", res.SnapshotID, "saves/save_ch3.md"))
	if live != "## Chapter 3\n" || archived != live {
		t.Errorf("copy archive: live = %q, archived = %q", live, archived)
	}
}

func TestArchive_DefaultsToMove(t *testing.T) {
	layout := testLayout(t)
	clock := newFakeClock()
	e := newTestEngine(t, layout, clock)

	writeLive(t, layout, "saves/save_ch3.md", "## Chapter 3\n")

	res, err := e.Archive(ArchiveRequest{CampaignID: "shadowfell"})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if res.Mode != manifest.ModeMove {
		t.Errorf("Mode = %q, want %q", res.Mode, manifest.ModeMove)
	}
	if exists(layout.LivePath("saves/save_ch3.md")) {
		t.Error("default mode left the source file in the live tree")
	}
}

func TestArchive_DryRun(t *testing.T) {
	layout := testLayout(t)
	clock := newFakeClock()
	e := newTestEngine(t, layout, clock)

	writeLive(t, layout, "characters/active/aria.md", "# Aria\n")
	writeLive(t, layout, "saves/save_ch3.md", "## Chapter 3\n")

	first, err := e.Archive(ArchiveRequest{CampaignID: "shadowfell", DryRun: true})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	second, err := e.Archive(ArchiveRequest{CampaignID: "shadowfell", DryRun: true})
	if err != nil {
		t.Fatalf("second Archive() error = %v", err)
	}

	wantTrail := []State{StatePlanned, StateValidated, StateDryRunReported, StateDone}
	if !slices.Equal(first.Trail, wantTrail) {
		t.Errorf("Trail = %v, want %v", first.Trail, wantTrail)
	}
	if len(first.Files) != len(second.Files) {
		t.Fatalf("dry runs planned %d and %d files", len(first.Files), len(second.Files))
	}
	for i := range first.Files {
		if first.Files[i] != second.Files[i] {
			t.Errorf("plan drifted between dry runs: %v vs %v", first.Files[i], second.Files[i])
		}
	}
	if first.Manifest == nil || first.Manifest.Counts.Files != 2 {
		t.Errorf("dry-run manifest = %+v, want 2 files", first.Manifest)
	}

	if !exists(layout.LivePath("characters/active/aria.md")) {
		t.Error("dry run moved a live file")
	}
	if exists(layout.SnapshotDir("shadowfell", first.SnapshotID)) {
		t.Error("dry run created the snapshot directory")
	}
	if exists(layout.IndexPath()) {
		t.Error("dry run wrote the index")
	}
}

func TestArchive_EmptyRootStillIndexed(t *testing.T) {
	layout := testLayout(t)
	clock := newFakeClock()
	e := newTestEngine(t, layout, clock)

	res, err := e.Archive(ArchiveRequest{CampaignID: "fresh", Mode: manifest.ModeMove})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if len(res.Files) != 0 {
		t.Errorf("planned %d files from an empty root", len(res.Files))
	}

	m, err := manifest.Read(layout.ManifestPath("fresh", res.SnapshotID))
	if err != nil {
		t.Fatalf("reading manifest: %v", err)
	}
	if m.Counts.Files != 0 || len(m.Files) != 0 {
		t.Errorf("empty snapshot manifest counts %d files", m.Counts.Files)
	}

	ix, err := index.Load(layout.IndexPath())
	if err != nil {
		t.Fatalf("loading index: %v", err)
	}
	if _, err := ix.ResolveLatest("fresh"); err != nil {
		t.Errorf("empty snapshot not indexed: %v", err)
	}
}

func TestArchive_RefusesExistingSnapshotDir(t *testing.T) {
	layout := testLayout(t)
	clock := newFakeClock()
	e := newTestEngine(t, layout, clock)

	writeLive(t, layout, "saves/save_ch3.md", "## Chapter 3\n")
	if err := os.MkdirAll(layout.SnapshotDir("camp", "night1"), 0o755); err != nil {
		t.Fatal(err)
	}

	_, err := e.Archive(ArchiveRequest{CampaignID: "camp", SnapshotID: "night1"})
	var verr *naming.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Archive() error = %v, want ValidationError", err)
	}
	if exists(layout.IndexPath()) {
		t.Error("refused archive wrote the index")
	}
	if !exists(layout.LivePath("saves/save_ch3.md")) {
		t.Error("refused archive touched the live tree")
	}
}

func TestArchive_InvalidCampaign(t *testing.T) {
	layout := testLayout(t)
	clock := newFakeClock()
	e := newTestEngine(t, layout, clock)

	_, err := e.Archive(ArchiveRequest{CampaignID: "***"})
	var verr *naming.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("Archive() error = %v, want ValidationError", err)
	}
}

func TestArchive_Metadata(t *testing.T) {
	layout := testLayout(t)
	clock := newFakeClock()
	e := newTestEngine(t, layout, clock)

	writeLive(t, layout, "saves/save_ch3.md", "## Chapter 3\n")

	res, err := e.Archive(ArchiveRequest{
		CampaignID: "Shadow Fell",
		SnapshotID: "chapter 3!",
		Mode:       manifest.ModeCopy,
		MainRoles:  "Yara, Shuo",
		AIBlip:     "  cliff   rescue  ",
		Note:       "  boss fight next session  ",
	})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}
	if res.CampaignID != "Shadow_Fell" {
		t.Errorf("CampaignID = %q, want Shadow_Fell", res.CampaignID)
	}
	if res.SnapshotID != "chapter_3" {
		t.Errorf("SnapshotID = %q, want chapter_3", res.SnapshotID)
	}

	m := res.Manifest
	if m == nil {
		t.Fatal("Result.Manifest is nil")
	}
	if !slices.Equal(m.MainRoles, []string{"Yara", "Shuo"}) {
		t.Errorf("MainRoles = %v", m.MainRoles)
	}
	if m.MainRolesLabel != "Yara+Shuo" {
		t.Errorf("MainRolesLabel = %q", m.MainRolesLabel)
	}
	if m.AIBlip != "cliff rescue" {
		t.Errorf("AIBlip = %q", m.AIBlip)
	}
	if m.Note != "boss fight next session" {
		t.Errorf("Note = %q", m.Note)
	}
	if want := "save_chapter_3_Yara+Shuo_cliff_rescue.md"; m.SaveFilenameHint != want {
		t.Errorf("SaveFilenameHint = %q, want %q", m.SaveFilenameHint, want)
	}
	if !m.CreatedAt.Equal(testStart) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, testStart)
	}
}

func TestArchive_ExcludesDeadAndExampleSheets(t *testing.T) {
	layout := testLayout(t)
	clock := newFakeClock()
	e := newTestEngine(t, layout, clock)

	writeLive(t, layout, "characters/active/yara.md", "# Yara\n")
	writeLive(t, layout, "characters/active/torm_已死亡.md", "# Torm\n")
	writeLive(t, layout, "characters/active/示例角色模板.md", "# Template\n")

	res, err := e.Archive(ArchiveRequest{CampaignID: "camp", Mode: manifest.ModeMove})
	if err != nil {
		t.Fatalf("Archive() error = %v", err)
	}

	if got := len(res.Files); got != 1 {
		t.Fatalf("selected %d files, want 1", got)
	}
	if res.Files[0].Rel != "characters/active/yara.md" {
		t.Errorf("selected %q", res.Files[0].Rel)
	}
	if !exists(layout.LivePath("characters/active/torm_已死亡.md")) {
		t.Error("dead-entity sheet was moved")
	}
	if !slices.Equal(res.Manifest.MainRoles, []string{"yara"}) {
		t.Errorf("MainRoles = %v, want [yara]", res.Manifest.MainRoles)
	}
}

func TestArchive_RetentionReplacePrevious(t *testing.T) {
	layout := testLayout(t)
	clock := newFakeClock()
	e := newTestEngine(t, layout, clock, WithRetention(retention.ReplacePrevious{}))

	writeLive(t, layout, "saves/save_ch1.md", "## Chapter 1\n")
	first, err := e.Archive(ArchiveRequest{CampaignID: "solo", Mode: manifest.ModeCopy})
	if err != nil {
		t.Fatalf("first Archive() error = %v", err)
	}

	clock.Tick()
	second, err := e.Archive(ArchiveRequest{CampaignID: "solo", Mode: manifest.ModeCopy})
	if err != nil {
		t.Fatalf("second Archive() error = %v", err)
	}

	if !slices.Equal(second.RemovedSnapshots, []string{first.SnapshotID}) {
		t.Errorf("RemovedSnapshots = %v, want [%s]", second.RemovedSnapshots, first.SnapshotID)
	}
	if exists(layout.SnapshotDir("solo", first.SnapshotID)) {
		t.Error("replaced snapshot directory still on disk")
	}

	ix, err := index.Load(layout.IndexPath())
	if err != nil {
		t.Fatalf("loading index: %v", err)
	}
	entries := ix.List("solo")
	if len(entries) != 1 || entries[0].SnapshotID != second.SnapshotID {
		t.Errorf("index entries = %+v, want only %s", entries, second.SnapshotID)
	}
}

func TestArchive_FailedTransferLeavesIndexAndWritesRecoveryManifest(t *testing.T) {
	if os.Geteuid() == 0 {
		t.Skip("permission bits are advisory for root")
	}
	layout := testLayout(t)
	clock := newFakeClock()
	e := newTestEngine(t, layout, clock)

	writeLive(t, layout, "logs/session/day0.md", "session zero\n")
	first, err := e.Archive(ArchiveRequest{CampaignID: "camp", Mode: manifest.ModeCopy})
	if err != nil {
		t.Fatalf("seeding archive error = %v", err)
	}

	clock.Tick()
	writeLive(t, layout, "characters/active/aria.md", "# Aria\n")
	locked := writeLive(t, layout, "characters/active/brakk.md", "# Brakk\n")
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chmod(locked, 0o644) })

	_, err = e.Archive(ArchiveRequest{CampaignID: "camp", Mode: manifest.ModeMove})
	var terr *TransferError
	if !errors.As(err, &terr) {
		t.Fatalf("Archive() error = %v, want TransferError", err)
	}
	if terr.FailedPath != "characters/active/brakk.md" {
		t.Errorf("FailedPath = %q", terr.FailedPath)
	}
	if !slices.Equal(terr.Transferred, []string{"characters/active/aria.md"}) {
		t.Errorf("Transferred = %v", terr.Transferred)
	}

	// The failed snapshot is not registered, so the previous one stays
	// resolvable as latest.
	ix, err := index.Load(layout.IndexPath())
	if err != nil {
		t.Fatalf("loading index: %v", err)
	}
	latest, err := ix.ResolveLatest("camp")
	if err != nil {
		t.Fatalf("ResolveLatest() error = %v", err)
	}
	if latest != first.SnapshotID {
		t.Errorf("ResolveLatest() = %q, want %q", latest, first.SnapshotID)
	}

	// A recovery manifest records where the moved files went.
	failedID := naming.DefaultSnapshotID(clock.Now())
	m, err := manifest.Read(layout.ManifestPath("camp", failedID))
	if err != nil {
		t.Fatalf("reading recovery manifest: %v", err)
	}
	if len(m.Files) != 1 || m.Files[0].RelativePath != "characters/active/aria.md" {
		t.Errorf("recovery manifest files = %+v", m.Files)
	}
	if exists(layout.LivePath("characters/active/aria.md")) {
		t.Error("moved file reappeared in the live tree")
	}
}

package commands

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

// resetListFlags zeroes the list command flags for one test.
func resetListFlags(t *testing.T) {
	t.Helper()

	origCampaign, origJSON := listCampaign, listJSON
	listCampaign, listJSON = "", false
	t.Cleanup(func() {
		listCampaign, listJSON = origCampaign, origJSON
	})
}

func TestRunList_EmptyArchive(t *testing.T) {
	testRoot(t)
	resetListFlags(t)

	var buf bytes.Buffer
	if err := runListWithWriter(&buf); err != nil {
		t.Fatalf("runListWithWriter failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "(no snapshots archived)") {
		t.Errorf("output missing empty notice\nGot:\n%s", out)
	}
	if !strings.Contains(out, "campvault archive -c") {
		t.Errorf("output missing the archive hint\nGot:\n%s", out)
	}
}

func TestRunList_Tabular(t *testing.T) {
	root := testRoot(t)
	writeLiveFile(t, root, "saves/save_a.md", "a\n")
	seedArchive(t, "shadowfell", "night1", "move")
	writeLiveFile(t, root, "saves/save_b.md", "b\n")
	seedArchive(t, "solo", "backup", "copy")

	resetListFlags(t)

	var buf bytes.Buffer
	if err := runListWithWriter(&buf); err != nil {
		t.Fatalf("runListWithWriter failed: %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"CAMPAIGN", "SNAPSHOT", "CREATED", "MODE",
		"shadowfell", "night1", "move",
		"solo", "backup", "copy",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\nGot:\n%s", want, out)
		}
	}
}

func TestRunList_FilterByCampaign(t *testing.T) {
	root := testRoot(t)
	writeLiveFile(t, root, "saves/save_a.md", "a\n")
	seedArchive(t, "shadowfell", "night1", "move")
	writeLiveFile(t, root, "saves/save_b.md", "b\n")
	seedArchive(t, "solo", "backup", "move")

	resetListFlags(t)
	listCampaign = "solo"

	var buf bytes.Buffer
	if err := runListWithWriter(&buf); err != nil {
		t.Fatalf("runListWithWriter failed: %v", err)
	}

	out := buf.String()
	if !strings.Contains(out, "backup") {
		t.Errorf("output should list the selected campaign\nGot:\n%s", out)
	}
	if strings.Contains(out, "night1") {
		t.Errorf("output should not list other campaigns\nGot:\n%s", out)
	}
}

func TestRunList_NewestFirst(t *testing.T) {
	root := testRoot(t)
	writeLiveFile(t, root, "saves/save_a.md", "a\n")
	seedArchive(t, "solo", "v1", "move")
	writeLiveFile(t, root, "saves/save_b.md", "b\n")
	seedArchive(t, "solo", "v2", "move")

	resetListFlags(t)

	var buf bytes.Buffer
	if err := runListWithWriter(&buf); err != nil {
		t.Fatalf("runListWithWriter failed: %v", err)
	}

	out := buf.String()
	if strings.Index(out, "v2") > strings.Index(out, "v1") {
		t.Errorf("newer snapshot should be listed first\nGot:\n%s", out)
	}
}

func TestRunList_JSON(t *testing.T) {
	root := testRoot(t)
	writeLiveFile(t, root, "saves/save_a.md", "a\n")
	seedArchive(t, "shadowfell", "night1", "move")

	resetListFlags(t)
	listJSON = true

	var buf bytes.Buffer
	if err := runListWithWriter(&buf); err != nil {
		t.Fatalf("runListWithWriter failed: %v", err)
	}

	var entries []snapshotOutput
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if len(entries) != 1 {
		t.Fatalf("got %d entries, want 1", len(entries))
	}

	e := entries[0]
	if e.CampaignID != "shadowfell" {
		t.Errorf("CampaignID = %q, want shadowfell", e.CampaignID)
	}
	if e.SnapshotID != "night1" {
		t.Errorf("SnapshotID = %q, want night1", e.SnapshotID)
	}
	if e.Mode != "move" {
		t.Errorf("Mode = %q, want move", e.Mode)
	}
	if e.FileCount != 1 {
		t.Errorf("FileCount = %d, want 1", e.FileCount)
	}
	if e.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}
}

func TestRunList_JSONEmptyArchive(t *testing.T) {
	testRoot(t)
	resetListFlags(t)
	listJSON = true

	var buf bytes.Buffer
	if err := runListWithWriter(&buf); err != nil {
		t.Fatalf("runListWithWriter failed: %v", err)
	}

	if got := strings.TrimSpace(buf.String()); got != "[]" {
		t.Errorf("empty archive should encode as [], got %q", got)
	}
}

package selector

import (
	"os"
	"path/filepath"
	"reflect"
	"runtime"
	"testing"

	"github.com/tabletop-tools/campvault/internal/errors"
	"github.com/tabletop-tools/campvault/internal/naming"
	"github.com/tabletop-tools/campvault/internal/paths"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestSelector(t *testing.T, root string, opts ...Option) *Selector {
	t.Helper()
	layout, err := paths.NewLayout(root, "")
	if err != nil {
		t.Fatal(err)
	}
	return New(layout, opts...)
}

func TestSelect_BuiltinScopes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "characters/active/kira.md", "# Kira")
	writeFile(t, root, "logs/session/day1.md", "log")
	writeFile(t, root, "logs/combat/skirmish.md", "log")
	writeFile(t, root, "logs/exploration/cave.md", "log")
	writeFile(t, root, "logs/system/rolls.md", "log")
	writeFile(t, root, "saves/save_20260101_090000_party.md", "save")
	// Outside every scope:
	writeFile(t, root, "README.md", "readme")
	writeFile(t, root, "characters/retired/old.md", "retired")
	writeFile(t, root, "logs/session/nested/deep.md", "too deep")

	sel, err := newTestSelector(t, root).Select(nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	wantRels := []string{
		"characters/active/kira.md",
		"logs/combat/skirmish.md",
		"logs/exploration/cave.md",
		"logs/session/day1.md",
		"logs/system/rolls.md",
		"saves/save_20260101_090000_party.md",
	}
	if !reflect.DeepEqual(sel.Rels(), wantRels) {
		t.Errorf("Rels() = %v, want %v", sel.Rels(), wantRels)
	}

	wantScopes := map[string]int{
		"characters":       1,
		"session_logs":     1,
		"combat_logs":      1,
		"exploration_logs": 1,
		"system_logs":      1,
		"saves":            1,
	}
	if got := sel.ByScope(); !reflect.DeepEqual(got, wantScopes) {
		t.Errorf("ByScope() = %v, want %v", got, wantScopes)
	}
}

func TestSelect_Exclusions(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "characters/active/kira.md", "# Kira")
	writeFile(t, root, "characters/active/marrow_已死亡.md", "# dead")
	writeFile(t, root, "characters/active/示例角色_模板.md", "# placeholder")
	writeFile(t, root, "saves/save_001.md", "save")
	writeFile(t, root, "saves/save_initial_template.md", "template")
	writeFile(t, root, "saves/Save_Initial_Template.md", "template, odd case")

	sel, err := newTestSelector(t, root).Select(nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	want := []string{
		"characters/active/kira.md",
		"saves/save_001.md",
	}
	if !reflect.DeepEqual(sel.Rels(), want) {
		t.Errorf("Rels() = %v, want %v", sel.Rels(), want)
	}
}

func TestSelect_ArchiveSubtreePruned(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "saves/save_live.md", "live")
	writeFile(t, root, "saves/archives/index.json", "{}")
	writeFile(t, root, "saves/archives/camp/snap/data/saves/save_old.md", "archived")

	// The recursive extra pattern would reach into the archives if the
	// subtree were not pruned.
	sel, err := newTestSelector(t, root).Select([]string{"saves/**"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	want := []string{"saves/save_live.md"}
	if !reflect.DeepEqual(sel.Rels(), want) {
		t.Errorf("Rels() = %v, want %v", sel.Rels(), want)
	}
}

func TestSelect_ExtraPatterns(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "notes/todo.md", "note")
	writeFile(t, root, "saves/save_a.md", "save")

	sel, err := newTestSelector(t, root).Select([]string{"notes/*.md", "  "})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	byScope := sel.ByScope()
	if byScope[ScopeExtra] != 1 {
		t.Errorf("extra count = %d, want 1", byScope[ScopeExtra])
	}
	if byScope["saves"] != 1 {
		t.Errorf("saves count = %d, want 1", byScope["saves"])
	}
}

func TestSelect_FirstScopeWins(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "saves/save_a.md", "save")

	// The extra pattern also matches, but the built-in scope claims the
	// file first and the entry is not duplicated.
	sel, err := newTestSelector(t, root).Select([]string{"saves/*.md"})
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	if len(sel.Files) != 1 {
		t.Fatalf("len(Files) = %d, want 1", len(sel.Files))
	}
	if sel.Files[0].Scope != "saves" {
		t.Errorf("Scope = %q, want saves", sel.Files[0].Scope)
	}
}

func TestSelect_MalformedExtraPattern(t *testing.T) {
	root := t.TempDir()

	_, err := newTestSelector(t, root).Select([]string{"notes/[.md"})
	var verr *naming.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("error = %v, want *naming.ValidationError", err)
	}
}

func TestSelect_EmptyTree(t *testing.T) {
	sel, err := newTestSelector(t, t.TempDir()).Select(nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}
	if !sel.Empty() {
		t.Errorf("Empty() = false for empty tree, files: %v", sel.Rels())
	}
	if sel.TotalBytes() != 0 {
		t.Errorf("TotalBytes() = %d, want 0", sel.TotalBytes())
	}
}

func TestSelect_MissingRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "gone")

	if _, err := newTestSelector(t, root).Select(nil); err == nil {
		t.Error("Select() on a missing root should error")
	}
}

func TestSelect_SymlinkEscapeDropped(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := t.TempDir()
	outside := t.TempDir()
	target := writeFile(t, outside, "out.md", "outside content")

	writeFile(t, root, "saves/save_real.md", "inside")
	if err := os.MkdirAll(filepath.Join(root, "saves"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(target, filepath.Join(root, "saves", "save_leak.md")); err != nil {
		t.Fatal(err)
	}

	sel, err := newTestSelector(t, root).Select(nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	want := []string{"saves/save_real.md"}
	if !reflect.DeepEqual(sel.Rels(), want) {
		t.Errorf("Rels() = %v, want %v", sel.Rels(), want)
	}
}

func TestSelect_SymlinkInsideRootKept(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}

	root := t.TempDir()
	real := writeFile(t, root, "saves/save_real.md", "inside content")
	if err := os.Symlink(real, filepath.Join(root, "saves", "save_alias.md")); err != nil {
		t.Fatal(err)
	}

	sel, err := newTestSelector(t, root).Select(nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	want := []string{"saves/save_alias.md", "saves/save_real.md"}
	if !reflect.DeepEqual(sel.Rels(), want) {
		t.Errorf("Rels() = %v, want %v", sel.Rels(), want)
	}
}

func TestSelection_TotalBytes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "saves/save_a.md", "12345")
	writeFile(t, root, "saves/save_b.md", "1234567890")

	sel, err := newTestSelector(t, root).Select(nil)
	if err != nil {
		t.Fatalf("Select() error = %v", err)
	}

	if got := sel.TotalBytes(); got != 15 {
		t.Errorf("TotalBytes() = %d, want 15", got)
	}
}

func TestExclusions_Excludes(t *testing.T) {
	excl := DefaultExclusions()

	tests := []struct {
		basename string
		want     bool
	}{
		{"kira.md", false},
		{"save_initial_template.md", true},
		{"SAVE_INITIAL_TEMPLATE.MD", true},
		{"save_manager.py", true},
		{"marrow_已死亡.md", true},
		{"示例角色_fighter.md", true},
		{"示例角色.md", true},
		{"almost示例角色.md", false},
	}

	for _, tt := range tests {
		t.Run(tt.basename, func(t *testing.T) {
			if got := excl.Excludes(tt.basename); got != tt.want {
				t.Errorf("Excludes(%q) = %v, want %v", tt.basename, got, tt.want)
			}
		})
	}
}

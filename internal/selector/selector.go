package selector

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gobwas/glob"

	"github.com/tabletop-tools/campvault/internal/naming"
	"github.com/tabletop-tools/campvault/internal/paths"
)

// Scope identifies one category of run-state files and the pattern that
// selects it. Patterns are slash-separated globs relative to the live root;
// a "*" never crosses a directory boundary.
type Scope struct {
	Name    string
	Pattern string
}

// ScopeExtra tags files matched by user-supplied patterns rather than a
// built-in scope.
const ScopeExtra = "extra"

// DefaultRoleLimit caps how many character names role inference returns.
const DefaultRoleLimit = 3

// DefaultScopes returns the built-in categories in priority order. A file
// matching several scopes is attributed to the first.
func DefaultScopes() []Scope {
	return []Scope{
		{Name: "characters", Pattern: "characters/active/*.md"},
		{Name: "session_logs", Pattern: "logs/session/*.md"},
		{Name: "combat_logs", Pattern: "logs/combat/*.md"},
		{Name: "exploration_logs", Pattern: "logs/exploration/*.md"},
		{Name: "system_logs", Pattern: "logs/system/*.md"},
		{Name: "saves", Pattern: "saves/save_*.md"},
	}
}

// DefaultExcludedBasenames lists files never selected, whatever pattern
// matches them: the blank save template and leftovers from older manager
// scripts that lived inside the saves directory.
func DefaultExcludedBasenames() []string {
	return []string{"save_initial_template.md", "save_manager.md", "save_manager.py"}
}

// DefaultDeadSuffixes lists stem suffixes marking an entity as dead.
func DefaultDeadSuffixes() []string {
	return []string{"_已死亡"}
}

// DefaultExamplePrefixes lists stem prefixes marking placeholder entities.
func DefaultExamplePrefixes() []string {
	return []string{"示例角色"}
}

// Exclusions names the files the selector must never pick up. Basenames
// match case-insensitively against the full filename; suffixes and prefixes
// match against the stem (filename without extension).
type Exclusions struct {
	Basenames       []string
	DeadSuffixes    []string
	ExamplePrefixes []string
}

// DefaultExclusions returns the built-in exclusion set.
func DefaultExclusions() Exclusions {
	return Exclusions{
		Basenames:       DefaultExcludedBasenames(),
		DeadSuffixes:    DefaultDeadSuffixes(),
		ExamplePrefixes: DefaultExamplePrefixes(),
	}
}

// Excludes reports whether a file with this basename is barred from
// selection.
func (e Exclusions) Excludes(basename string) bool {
	lower := strings.ToLower(basename)
	for _, deny := range e.Basenames {
		if lower == strings.ToLower(deny) {
			return true
		}
	}
	stem := strings.TrimSuffix(basename, filepath.Ext(basename))
	return e.Dead(stem) || e.Example(stem)
}

// Dead reports whether a stem carries a dead-entity suffix.
func (e Exclusions) Dead(stem string) bool {
	for _, suffix := range e.DeadSuffixes {
		if suffix != "" && strings.HasSuffix(stem, suffix) {
			return true
		}
	}
	return false
}

// Example reports whether a stem carries a placeholder prefix.
func (e Exclusions) Example(stem string) bool {
	for _, prefix := range e.ExamplePrefixes {
		if prefix != "" && strings.HasPrefix(stem, prefix) {
			return true
		}
	}
	return false
}

// File is one selected run-state file.
type File struct {
	AbsPath string // location on disk
	Rel     string // slash-separated path relative to the live root
	Scope   string
	Size    int64
}

// Selection is the sorted, deduplicated outcome of a selector run.
type Selection struct {
	Files []File
}

// Empty reports whether nothing was selected. An empty selection is how a
// freshly reset campaign tree looks.
func (s *Selection) Empty() bool {
	return len(s.Files) == 0
}

// TotalBytes sums the sizes of every selected file.
func (s *Selection) TotalBytes() int64 {
	var total int64
	for _, f := range s.Files {
		total += f.Size
	}
	return total
}

// ByScope counts selected files per scope.
func (s *Selection) ByScope() map[string]int {
	counts := make(map[string]int)
	for _, f := range s.Files {
		counts[f.Scope]++
	}
	return counts
}

// Rels returns the relative paths in selection order.
func (s *Selection) Rels() []string {
	rels := make([]string, len(s.Files))
	for i, f := range s.Files {
		rels[i] = f.Rel
	}
	return rels
}

// Selector expands scope patterns against a live root.
type Selector struct {
	layout paths.Layout
	scopes []Scope
	excl   Exclusions
}

// Option configures a Selector.
type Option func(*Selector)

// WithScopes replaces the built-in scope set.
func WithScopes(scopes []Scope) Option {
	return func(s *Selector) {
		s.scopes = scopes
	}
}

// WithExclusions replaces the built-in exclusion rules.
func WithExclusions(excl Exclusions) Option {
	return func(s *Selector) {
		s.excl = excl
	}
}

// New creates a Selector for the given tree layout.
func New(layout paths.Layout, opts ...Option) *Selector {
	s := &Selector{
		layout: layout,
		scopes: DefaultScopes(),
		excl:   DefaultExclusions(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type matcher struct {
	scope string
	g     glob.Glob
}

// Select expands the built-in scopes plus any extra patterns against the
// live root and returns the matches sorted by relative path, deduplicated,
// with exclusion rules applied. Absent category directories yield no
// matches and no error; an unreadable live root or a malformed pattern
// fails the whole selection.
func (s *Selector) Select(extraPatterns []string) (*Selection, error) {
	matchers, err := s.compile(extraPatterns)
	if err != nil {
		return nil, err
	}

	// The archive subtree is never part of the live set, whether the
	// archive root sits at its default location or was moved elsewhere.
	pruned := []string{
		s.layout.ArchiveRoot,
		filepath.Join(s.layout.LiveRoot, paths.SavesDirName, paths.ArchivesDirName),
	}

	resolvedRoot, err := filepath.EvalSymlinks(s.layout.LiveRoot)
	if err != nil {
		return nil, errors.Wrapf(err, "reading live root %s", s.layout.LiveRoot)
	}

	seen := make(map[string]File)
	walkErr := filepath.WalkDir(s.layout.LiveRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == s.layout.LiveRoot {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if slices.Contains(pruned, path) {
				return fs.SkipDir
			}
			return nil
		}

		rel, err := paths.Rel(s.layout.LiveRoot, path)
		if err != nil {
			return nil
		}

		scope, ok := matchRel(matchers, rel)
		if !ok {
			return nil
		}
		if s.excl.Excludes(filepath.Base(path)) {
			return nil
		}

		size, ok := s.resolveSize(path, d, resolvedRoot)
		if !ok {
			return nil
		}

		if _, dup := seen[rel]; !dup {
			seen[rel] = File{AbsPath: path, Rel: rel, Scope: scope, Size: size}
		}
		return nil
	})
	if walkErr != nil {
		return nil, errors.Wrapf(walkErr, "reading live root %s", s.layout.LiveRoot)
	}

	files := make([]File, 0, len(seen))
	for _, f := range seen {
		files = append(files, f)
	}
	slices.SortFunc(files, func(a, b File) int {
		return strings.Compare(a.Rel, b.Rel)
	})

	return &Selection{Files: files}, nil
}

// resolveSize stats the entry, following symlinks. A link whose target
// resolves outside the live root is dropped, as is a broken one.
func (s *Selector) resolveSize(path string, d fs.DirEntry, resolvedRoot string) (int64, bool) {
	if d.Type()&fs.ModeSymlink != 0 {
		target, err := filepath.EvalSymlinks(path)
		if err != nil {
			return 0, false
		}
		if _, err := paths.Rel(resolvedRoot, target); err != nil {
			return 0, false
		}
		info, err := os.Stat(target)
		if err != nil || info.IsDir() {
			return 0, false
		}
		return info.Size(), true
	}

	info, err := d.Info()
	if err != nil {
		return 0, false
	}
	return info.Size(), true
}

func (s *Selector) compile(extraPatterns []string) ([]matcher, error) {
	matchers := make([]matcher, 0, len(s.scopes)+len(extraPatterns))
	for _, sc := range s.scopes {
		g, err := glob.Compile(sc.Pattern, '/')
		if err != nil {
			return nil, &naming.ValidationError{Field: "scope pattern", Value: sc.Pattern, Reason: err.Error()}
		}
		matchers = append(matchers, matcher{scope: sc.Name, g: g})
	}
	for _, p := range extraPatterns {
		pattern := strings.TrimSpace(filepath.ToSlash(p))
		if pattern == "" {
			continue
		}
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, &naming.ValidationError{Field: "extra pattern", Value: p, Reason: err.Error()}
		}
		matchers = append(matchers, matcher{scope: ScopeExtra, g: g})
	}
	return matchers, nil
}

// matchRel returns the scope of the first matcher claiming rel.
func matchRel(matchers []matcher, rel string) (string, bool) {
	for _, m := range matchers {
		if m.g.Match(rel) {
			return m.scope, true
		}
	}
	return "", false
}

package selector

import (
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/tabletop-tools/campvault/pkg/fileutil"
	"github.com/tabletop-tools/campvault/pkg/frontmatter"
)

// activeCharactersDir is the category role inference reads, relative to the
// live root.
var activeCharactersDir = filepath.Join("characters", "active")

// sheetHeader is the slice of character-sheet frontmatter role inference
// cares about.
type sheetHeader struct {
	Name string `yaml:"name" toml:"name"`
}

// Roles is the outcome of main-role inference.
type Roles struct {
	Names []string
	// Uninferrable marks an empty result: no usable character sheets.
	Uninferrable bool
}

// Label joins the names with "+" for display and filenames. The fallback
// stands in when nothing was inferred.
func (r Roles) Label(fallback string) string {
	if len(r.Names) == 0 {
		return fallback
	}
	return strings.Join(r.Names, "+")
}

// InferRoles scans the active-character category, newest modification
// first, and returns up to limit canonical character names. Dead and
// placeholder entries are skipped. The canonical name is the sheet's
// frontmatter name field when it carries one, else the file stem. A limit
// of zero or less means DefaultRoleLimit. Inference never fails; an empty
// result is marked Uninferrable.
func (s *Selector) InferRoles(limit int) Roles {
	if limit <= 0 {
		limit = DefaultRoleLimit
	}

	activeDir := filepath.Join(s.layout.LiveRoot, activeCharactersDir)
	entries, err := os.ReadDir(activeDir)
	if err != nil {
		return Roles{Uninferrable: true}
	}

	type sheet struct {
		path  string
		stem  string
		mtime time.Time
	}
	var sheets []sheet
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".md") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		sheets = append(sheets, sheet{
			path:  filepath.Join(activeDir, entry.Name()),
			stem:  strings.TrimSuffix(entry.Name(), ".md"),
			mtime: info.ModTime(),
		})
	}
	slices.SortFunc(sheets, func(a, b sheet) int {
		return b.mtime.Compare(a.mtime)
	})

	var names []string
	for _, sh := range sheets {
		if s.excl.Dead(sh.stem) || s.excl.Example(sh.stem) {
			continue
		}
		name := sheetName(sh.path, sh.stem)
		if name == "" || slices.Contains(names, name) {
			continue
		}
		names = append(names, name)
		if len(names) >= limit {
			break
		}
	}

	if len(names) == 0 {
		return Roles{Uninferrable: true}
	}
	return Roles{Names: names}
}

// sheetName extracts the canonical character name from a sheet. Unreadable
// files and broken frontmatter fall back to the stem.
func sheetName(path, stem string) string {
	data, err := fileutil.ReadFileWithLimit(path)
	if err == nil {
		var header sheetHeader
		if err := frontmatter.ParseHeader(data, &header); err == nil {
			if name := strings.TrimSpace(header.Name); name != "" {
				return name
			}
		}
	}
	return strings.TrimSpace(stem)
}

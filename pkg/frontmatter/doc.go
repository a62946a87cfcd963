// Package frontmatter provides generic parsing of metadata headers from
// Markdown files used by the campvault CLI, primarily character sheets.
//
// Two dialects are supported, following the Hugo convention: YAML frontmatter
// delimited by lines containing only "---", and TOML frontmatter delimited by
// lines containing only "+++". The content between delimiters is unmarshaled
// into the type parameter T; the remaining content is returned as the body.
//
// # Basic Usage
//
//	type SheetMeta struct {
//		Name   string `yaml:"name" toml:"name"`
//		Status string `yaml:"status" toml:"status"`
//	}
//
//	var meta SheetMeta
//	body, err := frontmatter.Parse(f, &meta)
//	if err != nil {
//		log.Fatal(err)
//	}
//	fmt.Printf("Character: %s\nSheet:\n%s", meta.Name, body)
//
// # Optional vs Required
//
// [Parse] tolerates files without frontmatter (the full content becomes the
// body). [MustParse] returns [ErrMissingFrontmatter] instead, checkable with
// [errors.Is]. Both Unix (LF) and Windows (CRLF) line endings are handled.
package frontmatter

// Package frontmatter provides utilities for parsing metadata headers in
// markdown files such as character sheets.
package frontmatter

import (
	"bytes"
	"io"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/tabletop-tools/campvault/internal/errors"
)

// ErrMissingFrontmatter is returned by MustParse when no frontmatter is found.
var ErrMissingFrontmatter = errors.New("missing frontmatter")

// delimiters for the two supported frontmatter dialects.
const (
	yamlFence = "---"
	tomlFence = "+++"
)

// Parse extracts frontmatter and body content from a reader. YAML frontmatter
// is fenced by "---" lines, TOML frontmatter by "+++" lines (the Hugo
// convention). If no frontmatter is present, returns the full content as body
// with matter left untouched. This is useful for files where frontmatter is
// optional, which includes every character sheet.
func Parse[T any](r io.Reader, matter *T) (body []byte, err error) {
	return parse(r, matter, false)
}

// MustParse is like Parse but returns an error if no frontmatter is found.
func MustParse[T any](r io.Reader, matter *T) (body []byte, err error) {
	return parse(r, matter, true)
}

func parse[T any](r io.Reader, matter *T, required bool) ([]byte, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	fence, unmarshal := detect(content)
	if fence == "" {
		if required {
			return nil, ErrMissingFrontmatter
		}
		return content, nil
	}

	header, body, ok := split(content, fence)
	if !ok {
		if required {
			return nil, errors.Newf("missing closing %q frontmatter delimiter", fence)
		}
		return content, nil
	}

	if err := unmarshal(header, matter); err != nil {
		return nil, errors.Wrap(err, "parsing frontmatter")
	}

	return body, nil
}

// detect returns the fence opening the content and the matching unmarshal
// function, or an empty fence when the content has no frontmatter.
func detect(content []byte) (string, func([]byte, any) error) {
	switch {
	case hasFence(content, yamlFence):
		return yamlFence, yaml.Unmarshal
	case hasFence(content, tomlFence):
		return tomlFence, toml.Unmarshal
	default:
		return "", nil
	}
}

// hasFence reports whether content starts with the fence on a line of its own.
func hasFence(content []byte, fence string) bool {
	return bytes.HasPrefix(content, []byte(fence+"\n")) ||
		bytes.HasPrefix(content, []byte(fence+"\r\n"))
}

// split separates the header between the opening and closing fence from the
// body that follows. The opening fence is assumed present.
func split(content []byte, fence string) (header, body []byte, ok bool) {
	// Skip the opening fence line, tolerating CRLF
	offset := len(fence)
	if offset < len(content) && content[offset] == '\r' {
		offset++
	}
	if offset < len(content) && content[offset] == '\n' {
		offset++
	}
	rest := content[offset:]

	// Closing fence sits on its own line
	parts := bytes.SplitN(rest, []byte("\n"+fence), 2)
	if len(parts) < 2 {
		parts = bytes.SplitN(rest, []byte("\r\n"+fence), 2)
	}
	if len(parts) < 2 {
		return nil, nil, false
	}

	body = parts[1]
	if len(body) > 0 && body[0] == '\r' {
		body = body[1:]
	}
	if len(body) > 0 && body[0] == '\n' {
		body = body[1:]
	}

	return parts[0], body, true
}

// ParseHeader parses only the frontmatter from data, ignoring the body.
// Returns nil with matter untouched when data carries no frontmatter.
func ParseHeader(data []byte, matter any) error {
	fence, unmarshal := detect(data)
	if fence == "" {
		return nil
	}

	header, _, ok := split(data, fence)
	if !ok {
		return nil
	}

	return unmarshal(header, matter)
}

// Format formats content with YAML frontmatter.
// The matter struct is serialized to YAML and wrapped in "---" delimiters,
// followed by the body content.
func Format(matter any, body string) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString(yamlFence + "\n")

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(matter); err != nil {
		return nil, err
	}

	buf.WriteString(yamlFence + "\n")
	if body != "" {
		buf.WriteString("\n")
		buf.WriteString(body)
		if !strings.HasSuffix(body, "\n") {
			buf.WriteString("\n")
		}
	}

	return buf.Bytes(), nil
}

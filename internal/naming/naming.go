package naming

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// SnapshotTimeLayout is the timestamp form of generated snapshot ids.
const SnapshotTimeLayout = "20060102_150405"

// Character budgets for generated filename pieces.
const (
	maxPieceRunes = 32
	maxBlipRunes  = 20
)

var (
	whitespace   = regexp.MustCompile(`\s+`)
	invalidChars = regexp.MustCompile(`[\\/:*?"<>|]`)
	snapshotSafe = regexp.MustCompile(`[^0-9A-Za-z_-]`)
	pieceUnsafe  = regexp.MustCompile(`[^\p{L}\p{N}_+\-]+`)
	underscores  = regexp.MustCompile(`_+`)
	roleSep      = regexp.MustCompile(`[+,，、/;；\s]+`)
)

// ValidationError reports an input value that cannot be used as provided.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NormalizeCampaignID turns a user-supplied campaign name into a form safe
// for directory names on every platform: whitespace runs become underscores,
// characters Windows forbids in filenames are removed, and leading/trailing
// dots and underscores are trimmed.
func NormalizeCampaignID(value string) (string, error) {
	text := whitespace.ReplaceAllString(strings.TrimSpace(value), "_")
	text = strings.Trim(invalidChars.ReplaceAllString(text, ""), "._")
	if text == "" {
		return "", &ValidationError{Field: "campaign id", Value: value, Reason: "empty after normalization"}
	}
	return text, nil
}

// NormalizeSnapshotID restricts a user-supplied snapshot id to
// [0-9A-Za-z_-]; everything else becomes an underscore. Callers wanting a
// generated id pass the empty string to the engine instead, which uses
// DefaultSnapshotID.
func NormalizeSnapshotID(value string) (string, error) {
	text := invalidChars.ReplaceAllString(strings.TrimSpace(value), "_")
	text = strings.Trim(snapshotSafe.ReplaceAllString(text, "_"), "._")
	if text == "" {
		return "", &ValidationError{Field: "snapshot id", Value: value, Reason: "empty after normalization"}
	}
	return text, nil
}

// DefaultSnapshotID derives the timestamp id used when the caller supplies
// none, e.g. 20260104_153012.
func DefaultSnapshotID(t time.Time) string {
	return t.Format(SnapshotTimeLayout)
}

// NormalizeBlip collapses internal whitespace in a one-line annotation and
// caps it at 20 runes.
func NormalizeBlip(value string) string {
	text := whitespace.ReplaceAllString(strings.TrimSpace(value), " ")
	return truncateRunes(text, maxBlipRunes)
}

// ParseRoles splits a user-supplied role list on the separators people
// actually type: plus, comma (ASCII or fullwidth), enumeration comma,
// slash, semicolon, whitespace. Empty pieces are dropped, order kept.
func ParseRoles(value string) []string {
	var roles []string
	for _, part := range roleSep.Split(strings.TrimSpace(value), -1) {
		if part != "" {
			roles = append(roles, part)
		}
	}
	return roles
}

// FilenamePiece sanitizes one component of a generated filename: characters
// Windows forbids are removed, whitespace and anything outside
// letters/digits/underscore/plus/hyphen becomes an underscore, underscore
// runs collapse, and the result is capped at 32 runes. The fallback is
// returned when nothing survives.
func FilenamePiece(value, fallback string) string {
	text := invalidChars.ReplaceAllString(strings.TrimSpace(value), "")
	text = whitespace.ReplaceAllString(text, "_")
	text = pieceUnsafe.ReplaceAllString(text, "_")
	text = strings.Trim(underscores.ReplaceAllString(text, "_"), "._")
	if text == "" {
		return fallback
	}
	return truncateRunes(text, maxPieceRunes)
}

// SaveFilenameHint proposes the name of the save note a session would write
// next: save_<snapshot>_<roles>.md, with an extra _<blip> segment when an
// annotation is present. Roles are joined with "+"; "party" stands in when
// none are known.
func SaveFilenameHint(snapshotID string, roles []string, blip string) string {
	label := "party"
	if len(roles) > 0 {
		label = strings.Join(roles, "+")
	}
	rolePart := FilenamePiece(label, "party")
	if blipPart := FilenamePiece(blip, ""); blipPart != "" {
		return fmt.Sprintf("save_%s_%s_%s.md", snapshotID, rolePart, blipPart)
	}
	return fmt.Sprintf("save_%s_%s.md", snapshotID, rolePart)
}

func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}

package prompt

import (
	"bytes"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/tabletop-tools/campvault/internal/index"
	"github.com/tabletop-tools/campvault/internal/manifest"
)

func testEntries() []index.Entry {
	created := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	return []index.Entry{
		{
			CampaignID: "shadowfell",
			SnapshotID: "20250310_093000",
			CreatedAt:  created,
			Mode:       manifest.ModeMove,
			FileCount:  3,
			TotalBytes: 1536,
			AIBlip:     "cliff rescue",
		},
		{
			CampaignID: "shadowfell",
			SnapshotID: "20250309_210000",
			CreatedAt:  created.Add(-12 * time.Hour),
			Mode:       manifest.ModeCopy,
			FileCount:  2,
			TotalBytes: 100,
		},
	}
}

func TestSelectEntry_EmptyList(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelectorWithIO(strings.NewReader(""), &buf)

	_, err := s.SelectEntry(nil)
	if err == nil {
		t.Fatal("expected error for empty list")
	}
	if !strings.Contains(err.Error(), "no snapshots") {
		t.Errorf("expected ErrNoSnapshots, got: %v", err)
	}
}

func TestSelectEntry_SingleEntry(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelectorWithIO(strings.NewReader(""), &buf)

	entries := testEntries()[:1]
	result, err := s.SelectEntry(entries)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.SnapshotID != "20250310_093000" {
		t.Errorf("expected newest snapshot, got %q", result.SnapshotID)
	}
	// Should not prompt for a single entry
	if buf.Len() > 0 {
		t.Errorf("expected no output for single entry, got: %s", buf.String())
	}
}

func TestSelectEntry_ValidSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		input  string
		wantID string
	}{
		{
			name:   "explicit first",
			input:  "1\n",
			wantID: "20250310_093000",
		},
		{
			name:   "explicit second",
			input:  "2\n",
			wantID: "20250309_210000",
		},
		{
			name:   "default on empty",
			input:  "\n",
			wantID: "20250310_093000",
		},
		{
			name:   "whitespace trimmed",
			input:  "  2  \n",
			wantID: "20250309_210000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			s := NewSelectorWithIO(strings.NewReader(tt.input), &buf)

			result, err := s.SelectEntry(testEntries())
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result.SnapshotID != tt.wantID {
				t.Errorf("expected %q, got %q", tt.wantID, result.SnapshotID)
			}
		})
	}
}

func TestSelectEntry_InvalidSelection(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:    "too low",
			input:   "0\n",
			wantErr: "out of range",
		},
		{
			name:    "too high",
			input:   "3\n",
			wantErr: "out of range",
		},
		{
			name:    "negative",
			input:   "-1\n",
			wantErr: "out of range",
		},
		{
			name:    "not a number",
			input:   "latest\n",
			wantErr: "not a number",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var buf bytes.Buffer
			s := NewSelectorWithIO(strings.NewReader(tt.input), &buf)

			_, err := s.SelectEntry(testEntries())
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got: %v", tt.wantErr, err)
			}
		})
	}
}

func TestSelectEntry_Cancelled(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelectorWithIO(&eofReader{}, &buf)

	_, err := s.SelectEntry(testEntries())
	if err == nil {
		t.Fatal("expected error for EOF")
	}
	if !strings.Contains(err.Error(), "cancelled") {
		t.Errorf("expected ErrSelectionCancelled, got: %v", err)
	}
}

func TestSelectEntry_OutputFormat(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	s := NewSelectorWithIO(strings.NewReader("1\n"), &buf)

	if _, err := s.SelectEntry(testEntries()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	if !strings.Contains(output, "[1] shadowfell/20250310_093000") {
		t.Errorf("missing first option in output: %s", output)
	}
	if !strings.Contains(output, "[2] shadowfell/20250309_210000") {
		t.Errorf("missing second option in output: %s", output)
	}
	if !strings.Contains(output, "3 file(s), 1.5KB") {
		t.Errorf("missing counts in output: %s", output)
	}
	if !strings.Contains(output, "cliff rescue") {
		t.Errorf("missing blip in output: %s", output)
	}
	if !strings.Contains(output, "Select [1]:") {
		t.Errorf("missing prompt in output: %s", output)
	}
}

func TestPreviewEntry(t *testing.T) {
	t.Parallel()

	e := testEntries()[0]
	e.MainRolesLabel = "Yara+Shuo"
	e.Note = "boss fight next session"

	preview := previewEntry(e)
	for _, want := range []string{
		"Campaign: shadowfell",
		"Snapshot: 20250310_093000",
		"Mode:     move",
		"Roles:    Yara+Shuo",
		"Files:    3 (1.5KB)",
		"Blip:     cliff rescue",
		"boss fight next session",
	} {
		if !strings.Contains(preview, want) {
			t.Errorf("preview missing %q:\n%s", want, preview)
		}
	}
}

// The picker's no-terminal paths: everything short of opening the finder.
func TestPickSnapshot_WithoutTerminal(t *testing.T) {
	t.Parallel()

	if _, err := PickSnapshot(nil); err == nil || !strings.Contains(err.Error(), "no snapshots") {
		t.Errorf("empty list should report ErrNoSnapshots, got %v", err)
	}

	entries := testEntries()[:1]
	got, err := PickSnapshot(entries)
	if err != nil {
		t.Fatalf("single entry should auto-select: %v", err)
	}
	if got.SnapshotID != entries[0].SnapshotID {
		t.Errorf("got %q, want %q", got.SnapshotID, entries[0].SnapshotID)
	}
}

// eofReader simulates immediate EOF (like Ctrl+D).
type eofReader struct{}

func (r *eofReader) Read(_ []byte) (int, error) {
	return 0, io.EOF
}

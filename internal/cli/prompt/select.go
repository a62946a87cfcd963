// Package prompt provides interactive snapshot selection for restores.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/tabletop-tools/campvault/internal/errors"
	"github.com/tabletop-tools/campvault/internal/index"
	"github.com/tabletop-tools/campvault/internal/manifest"
)

// Sentinel errors for snapshot selection.
var (
	ErrNoSnapshots        = errors.New("no snapshots to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Selector handles snapshot selection on plain terminals, reading a
// numbered choice from its input.
type Selector struct {
	reader io.Reader
	writer io.Writer
}

// NewSelector creates a new Selector using stdin and stdout.
func NewSelector() *Selector {
	return &Selector{
		reader: os.Stdin,
		writer: os.Stdout,
	}
}

// NewSelectorWithIO creates a Selector with custom reader and writer for testing.
func NewSelectorWithIO(r io.Reader, w io.Writer) *Selector {
	return &Selector{
		reader: r,
		writer: w,
	}
}

// SelectEntry prompts the user to choose a snapshot from a numbered list.
// Entries are expected newest first; an empty reply picks the first.
//
// Returns:
//   - ErrNoSnapshots if the list is empty
//   - the entry if only one exists (auto-selects without prompting)
//   - ErrInvalidSelection if the reply is not a number in range
//   - ErrSelectionCancelled if input is EOF (e.g. Ctrl+D)
func (s *Selector) SelectEntry(entries []index.Entry) (index.Entry, error) {
	if len(entries) == 0 {
		return index.Entry{}, ErrNoSnapshots
	}

	if len(entries) == 1 {
		return entries[0], nil
	}

	fmt.Fprintf(s.writer, "Snapshots, newest first:\n")
	for i, e := range entries {
		fmt.Fprintf(s.writer, "  [%d] %s\n", i+1, entryLine(e))
	}
	fmt.Fprintf(s.writer, "Select [1]: ")

	reader := bufio.NewReader(s.reader)
	input, err := reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) {
			return index.Entry{}, ErrSelectionCancelled
		}
		return index.Entry{}, errors.Wrap(err, "reading selection")
	}

	input = strings.TrimSpace(input)
	if input == "" {
		return entries[0], nil
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return index.Entry{}, errors.Wrapf(ErrInvalidSelection, "%q is not a number", input)
	}
	if selection < 1 || selection > len(entries) {
		return index.Entry{}, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", selection, len(entries))
	}

	return entries[selection-1], nil
}

// entryLine renders one snapshot for list display.
func entryLine(e index.Entry) string {
	line := fmt.Sprintf("%s/%s  %s  %d file(s), %s",
		e.CampaignID, e.SnapshotID,
		e.CreatedAt.Format("2006-01-02 15:04"),
		e.FileCount, manifest.HumanSize(e.TotalBytes))
	if e.AIBlip != "" {
		line += "  " + e.AIBlip
	}
	return line
}

package commands

import (
	"github.com/tabletop-tools/campvault/internal/errors"
	"github.com/tabletop-tools/campvault/internal/index"
	"github.com/tabletop-tools/campvault/internal/transfer"
)

// ANSI color codes for terminal output.
const (
	colorReset  = "\033[0m"
	colorBold   = "\033[1m"
	colorCyan   = "\033[36m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorGray   = "\033[90m"
)

// truncate shortens a string to maxLen characters, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

// exitError attaches exit codes and follow-up hints to the failure kinds
// the engine and catalog produce. Anything unrecognized passes through.
func exitError(err error) error {
	if err == nil {
		return nil
	}

	var conflict *transfer.ConflictError
	switch {
	case errors.Is(err, index.ErrNotFound):
		return errors.NewUserError(err, "Run: campvault list")
	case errors.Is(err, index.ErrCorrupt),
		errors.Is(err, transfer.ErrSnapshotCorrupt):
		return errors.NewSystemError(err, "Run: campvault doctor")
	case errors.As(err, &conflict):
		return errors.NewUserError(err, "Re-run with --force to overwrite the listed files")
	}

	return err
}

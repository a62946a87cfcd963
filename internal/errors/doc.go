// Package errors provides error handling conventions for the campvault CLI.
//
// This package re-exports the wrap/annotate helpers from cockroachdb/errors,
// defines an ExitError type for CLI exit code handling, and exit code
// constants following standard Unix conventions. Domain-specific error kinds
// (conflicts, corrupt snapshots, unknown campaigns) live next to the
// packages that produce them and are checked with [Is]:
//
//	if errors.Is(err, index.ErrNotFound) {
//	    // handle unknown campaign or snapshot
//	}
//
// # Exit Codes
//
// The package defines standard exit codes for CLI applications:
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (invalid input, configuration, etc.)
//   - ExitSystem (2): System-related error (I/O, permissions, etc.)
//
// # ExitError
//
// [ExitError] wraps an underlying error with an exit code and optional
// suggestion. It supports error unwrapping via [As]:
//
//	err := errors.NewUserError(loadErr, "Check your config file")
//	var exitErr *errors.ExitError
//	if errors.As(err, &exitErr) {
//	    if exitErr.Suggestion != "" {
//	        fmt.Println("Suggestion:", exitErr.Suggestion)
//	    }
//	    os.Exit(exitErr.Code)
//	}
package errors

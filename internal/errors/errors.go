package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
)

// Process exit codes. main maps an ExitError to one of these; any other
// error exits with ExitUser.
const (
	// ExitSuccess means the command completed.
	ExitSuccess = 0

	// ExitUser covers mistakes the user can fix: bad flags, unknown
	// campaigns or snapshots, invalid configuration.
	ExitUser = 1

	// ExitSystem covers failures in the environment: I/O errors,
	// permissions, archive corruption.
	ExitSystem = 2
)

// Re-exported helpers from cockroachdb/errors so call sites depend on a single
// errors package. The cockroach implementations preserve wrapped chains for
// errors.Is / errors.As.
var (
	New   = errors.New
	Newf  = errors.Newf
	Wrap  = errors.Wrap
	Wrapf = errors.Wrapf
	Is    = errors.Is
	As    = errors.As
	Join  = errors.Join
)

// ExitError carries an exit code and an optional suggestion line alongside
// the underlying error. Commands return it instead of calling os.Exit so
// the error path stays testable; only main inspects the code.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is printed on its own line after the error message.
	// Empty means no suggestion.
	Suggestion string
}

// NewExitError wraps err with an exit code and no suggestion.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewUserError wraps err as a user mistake with a suggested next step.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: suggestion,
	}
}

// NewSystemError wraps err as an environment failure with a suggested next step.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitSystem,
		Suggestion: suggestion,
	}
}

// NewConfigError wraps a configuration problem. Config errors are user
// errors, and doctor is always the right next step.
func NewConfigError(err error) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: "Run: campvault doctor",
	}
}

// Error returns the underlying error's message, or a generic one when the
// ExitError carries only a code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// Package logging provides structured logging for the campvault CLI using slog.
//
// The package supports text and JSON output, a Trace level below Debug for
// per-file transfer decisions, a fan-out handler for logging to a terminal
// and a file at once, and helpers for testing. All loggers are based on the
// standard library's [log/slog] package.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  slog.LevelInfo,
//		Format: logging.FormatText,
//		Output: os.Stderr,
//	})
//	logger.Info("archived", "campaign", "ashfall", "files", 12)
//
// # Verbosity Mapping
//
// CLI verbosity flags map onto levels via [LevelFromVerbosity]: the default is
// Warn, -v is Info, -vv is Debug, -vvv is Trace.
//
// # Testing
//
// For tests, use [ForTest] to capture log output via the testing framework:
//
//	func TestSomething(t *testing.T) {
//		logger := logging.ForTest(t)
//		// logs appear in test output on failure
//	}
package logging

// Package errors provides error handling conventions for the snapkeep CLI.
//
// It re-exports the constructors and predicates of github.com/cockroachdb/errors
// so every package wraps errors the same way, and defines an [ExitError] type
// carrying a process exit code and an optional suggestion.
//
// # Exit Codes
//
//   - ExitSuccess (0): command completed; per-file failures are reported, not fatal
//   - ExitUser (1): invalid input, unknown snapshot, corrupt manifest, refused context
//   - ExitSystem (2): backup root unusable, lock contention, I/O
//
// # Summaries
//
// [Summary] is the only way errors reach the user's terminal. It replaces the
// home directory with "~" so top-level failure messages never reveal it.
package errors

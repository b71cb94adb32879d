// Package logging provides structured logging for the snapkeep CLI using slog.
//
// Terminal output goes through [Handler], a compact colourised text handler;
// --log-format json switches to slog's JSON handler and --log-file tees every
// record into a JSON diagnostic log through [MultiHandler]. The diagnostic log
// keeps full paths; user-facing error summaries do not (see internal/errors).
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  slog.LevelInfo,
//		Format: logging.FormatText,
//		Output: os.Stderr,
//	})
//	logger.Info("snapshot created", "id", id)
//
// The logger travels through command contexts with [NewContext] and [FromContext].
//
// # Testing
//
//	logger := logging.ForTest(t)
package logging

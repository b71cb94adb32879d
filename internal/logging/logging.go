package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"testing"
)

// Format specifies the output format for log messages.
type Format string

const (
	// FormatText produces human-readable text output.
	FormatText Format = "text"
	// FormatJSON produces machine-readable JSON output.
	FormatJSON Format = "json"
)

// LevelTrace sits below Debug and is reached with -vvv. It logs every
// discovery decision and per-file copy.
const LevelTrace = slog.LevelDebug - 4

// Config holds the configuration for creating a new logger.
type Config struct {
	// Level sets the minimum log level. Messages below this level are discarded.
	Level slog.Level
	// Format specifies the output format (text or JSON).
	Format Format
	// Output is where log messages are written. Defaults to os.Stderr if nil.
	Output io.Writer
}

// New creates a logger with the given configuration.
// If cfg.Output is nil, it defaults to os.Stderr.
// If cfg.Format is not recognized, it defaults to FormatText.
func New(cfg Config) *slog.Logger {
	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	opts := &slog.HandlerOptions{
		Level: cfg.Level,
	}

	var handler slog.Handler
	switch cfg.Format {
	case FormatJSON:
		handler = slog.NewJSONHandler(output, opts)
	default:
		handler = NewHandler(output, opts)
	}

	return slog.New(handler)
}

// Default returns a logger for CLI use: warnings and above, text, stderr.
func Default() *slog.Logger {
	return New(Config{
		Level:  slog.LevelWarn,
		Format: FormatText,
		Output: os.Stderr,
	})
}

// NewDiscard creates a logger that discards all output.
func NewDiscard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// verbosityLevels is indexed by the number of -v flags.
var verbosityLevels = [...]slog.Level{slog.LevelWarn, slog.LevelInfo, slog.LevelDebug, LevelTrace}

// LevelFromVerbosity maps the count of -v flags to a level:
// none -> Warn, -v -> Info, -vv -> Debug, -vvv and beyond -> Trace.
func LevelFromVerbosity(v int) slog.Level {
	return verbosityLevels[min(max(v, 0), len(verbosityLevels)-1)]
}

// testWriter forwards log lines to t.Log until the test ends. Handlers
// used by background goroutines may outlive the test; late lines are dropped.
type testWriter struct {
	t    *testing.T
	mu   sync.Mutex
	done bool
}

func (w *testWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.done {
		w.t.Helper()
		w.t.Log(strings.TrimSuffix(string(p), "\n"))
	}
	return len(p), nil
}

// ForTest returns a Trace-level text logger writing to the test log.
func ForTest(t *testing.T) *slog.Logger {
	t.Helper()
	w := &testWriter{t: t}
	t.Cleanup(func() {
		w.mu.Lock()
		w.done = true
		w.mu.Unlock()
	})
	return New(Config{
		Level:  LevelTrace,
		Format: FormatText,
		Output: w,
	})
}

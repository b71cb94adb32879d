package logging

import (
	"io"
	"os"

	"golang.org/x/term"
)

type fder interface{ Fd() uintptr }

// IsTTY returns true if the given writer is a terminal.
func IsTTY(w io.Writer) bool {
	if f, ok := w.(fder); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}

// IsInteractive reports whether both r and w are terminals, which is required
// before prompting (fuzzy finder, confirmations).
func IsInteractive(r io.Reader, w io.Writer) bool {
	f, ok := r.(fder)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return false
	}
	return IsTTY(w)
}

// SupportsColor returns true if the given writer supports ANSI color codes.
// It returns false when the writer is not a TTY, NO_COLOR is set, or TERM=dumb.
func SupportsColor(w io.Writer) bool {
	return supportsColor(w, IsTTY(w))
}

func supportsColor(_ io.Writer, isTTY bool) bool {
	// https://no-color.org
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if os.Getenv("TERM") == "dumb" {
		return false
	}
	return isTTY
}

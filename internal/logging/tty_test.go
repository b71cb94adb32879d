package logging

import (
	"os"
	"strings"
	"testing"
)

func TestSupportsColor(t *testing.T) {
	tests := []struct {
		name  string
		env   map[string]string
		isTTY bool
		want  bool
	}{
		{name: "NO_COLOR prevents color", env: map[string]string{"NO_COLOR": "1"}, isTTY: true, want: false},
		{name: "TERM=dumb prevents color", env: map[string]string{"TERM": "dumb"}, isTTY: true, want: false},
		{name: "non-TTY prevents color", env: map[string]string{}, isTTY: false, want: false},
		{name: "TTY allows color", env: map[string]string{"TERM": "xterm-256color"}, isTTY: true, want: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// t.Setenv registers restoration; Unsetenv then clears the value
			t.Setenv("NO_COLOR", "")
			os.Unsetenv("NO_COLOR")
			t.Setenv("TERM", "")

			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			if got := supportsColor(&mockWriter{}, tt.isTTY); got != tt.want {
				t.Errorf("supportsColor() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsTTY_NonFile(t *testing.T) {
	if IsTTY(&mockWriter{}) {
		t.Error("IsTTY should return false for mockWriter")
	}
}

func TestIsInteractive_NonTerminal(t *testing.T) {
	if IsInteractive(strings.NewReader(""), &mockWriter{}) {
		t.Error("string reader is never interactive")
	}
}

type mockWriter struct{}

func (m *mockWriter) Write(p []byte) (n int, err error) {
	return len(p), nil
}

package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestMultiHandler_Fanout(t *testing.T) {
	var text, js bytes.Buffer
	h := NewMultiHandler(
		NewHandler(&text, &slog.HandlerOptions{Level: slog.LevelWarn}),
		slog.NewJSONHandler(&js, &slog.HandlerOptions{Level: slog.LevelDebug}),
	)
	logger := slog.New(h).With("op", "create")

	logger.Debug("copied", "path", "/home/u/chat.json")
	logger.Warn("skipped", "path", "/home/u/locked")

	if strings.Contains(text.String(), "copied") {
		t.Error("text handler should drop debug records")
	}
	if !strings.Contains(text.String(), "skipped") {
		t.Error("text handler should keep warn records")
	}
	if !strings.Contains(js.String(), `"path":"/home/u/chat.json"`) {
		t.Errorf("json handler should keep full paths, got %q", js.String())
	}
	if !strings.Contains(js.String(), `"op":"create"`) {
		t.Errorf("json handler missing shared attrs, got %q", js.String())
	}
}

func TestMultiHandler_Enabled(t *testing.T) {
	h := NewMultiHandler(
		NewHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelError}),
	)
	if h.Enabled(t.Context(), slog.LevelInfo) {
		t.Error("no handler accepts Info")
	}
	if !h.Enabled(t.Context(), slog.LevelError) {
		t.Error("Error should be enabled")
	}
}

func TestMultiHandler_DropsNil(t *testing.T) {
	var buf bytes.Buffer
	h := NewMultiHandler(nil, NewHandler(&buf, nil))
	slog.New(h).WithGroup("g").Warn("kept", "k", "v")

	if !strings.Contains(buf.String(), "g.k=v") {
		t.Errorf("expected grouped attr, got %q", buf.String())
	}
}

func TestOpenFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "diag.log")

	h, closer, err := OpenFileSink(path, slog.LevelDebug)
	if err != nil {
		t.Fatalf("OpenFileSink: %v", err)
	}
	slog.New(h).Debug("restored", "path", "/home/u/chat.json")
	if err := closer.Close(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("perm = %o, want 600", perm)
	}
	data, _ := os.ReadFile(path)
	if !strings.Contains(string(data), `"msg":"restored"`) {
		t.Errorf("missing record: %q", data)
	}

	if _, _, err := OpenFileSink(filepath.Join(path, "nested"), slog.LevelDebug); err == nil {
		t.Error("expected error opening under a file")
	}
}

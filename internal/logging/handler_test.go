package logging

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	now := time.Now()
	logger.Info("snapshot created", "id", "20260123T100712")

	output := buf.String()
	if !strings.Contains(output, "INFO") {
		t.Errorf("expected level INFO in output, got: %q", output)
	}
	if !strings.Contains(output, "snapshot created") {
		t.Errorf("expected message in output, got: %q", output)
	}
	if !strings.Contains(output, "id=20260123T100712") {
		t.Errorf("expected attribute in output, got: %q", output)
	}
	if !strings.Contains(output, now.Format(time.Kitchen)) {
		t.Errorf("expected time in output, got: %q", output)
	}
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, nil)).With("snapshot", "s1").WithGroup("file")

	logger.Info("copied", "path", "/tmp/a.json")

	output := buf.String()
	if !strings.Contains(output, "snapshot=s1") {
		t.Errorf("expected common attribute in output, got: %q", output)
	}
	if !strings.Contains(output, "file.path=/tmp/a.json") {
		t.Errorf("expected grouped attribute in output, got: %q", output)
	}
}

func TestHandler_Enabled(t *testing.T) {
	h := NewHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	ctx := t.Context()
	if h.Enabled(ctx, slog.LevelInfo) {
		t.Error("expected Info level to be disabled when min level is Warn")
	}
	if !h.Enabled(ctx, slog.LevelWarn) {
		t.Error("expected Warn level to be enabled")
	}
}

func TestHandler_TraceLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}))

	logger.Log(t.Context(), LevelTrace, "match", "path", "x")
	if !strings.Contains(buf.String(), "TRACE") {
		t.Errorf("expected TRACE label, got: %q", buf.String())
	}
}

func TestHandler_Redaction(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	logger.Info("sensitive data", "api_key", "secret12345", "value", "ghp_secrettoken")

	output := buf.String()
	if strings.Contains(output, "secret12345") || strings.Contains(output, "ghp_secrettoken") {
		t.Errorf("secrets leaked: %q", output)
	}
	if !strings.Contains(output, "api_key=****2345") {
		t.Errorf("expected masked api_key, got: %q", output)
	}
	if !strings.Contains(output, "value=****oken") {
		t.Errorf("expected masked token value, got: %q", output)
	}
}

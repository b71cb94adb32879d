package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/trigger"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// testEnv is a throwaway home for one command test.
type testEnv struct {
	cfg *config.Config
	src string
	ctx context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	require.NoError(t, os.MkdirAll(filepath.Join(src, "augment"), 0o755))

	cfg := config.Default()
	cfg.BackupBase = filepath.Join(dir, "backups")
	cfg.Discovery.Roots = []string{src}
	cfg.Discovery.Patterns = []string{"*chat*"}
	cfg.Discovery.Extensions = []string{".json"}
	cfg.Protect.ExtensionsDir = filepath.Join(dir, "extensions")
	cfg.Watch.Paths = []string{filepath.Join(dir, "extensions")}
	cfg.History.Path = filepath.Join(dir, "state", "history.db")

	return &testEnv{
		cfg: cfg,
		src: src,
		ctx: logging.NewContext(t.Context(), logging.ForTest(t)),
	}
}

func (e *testEnv) write(t *testing.T, rel, content string) string {
	t.Helper()
	path := filepath.Join(e.src, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func triggerEvent(path string) trigger.Event {
	return trigger.Event{Reason: "test", Path: path, Count: 1, At: time.Now()}
}

package trigger

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/logging"
)

func TestRun_ContinuesAfterHandlerError(t *testing.T) {
	ctx := logging.NewContext(t.Context(), logging.ForTest(t))
	events := make(chan Event, 3)
	events <- Event{Reason: "pressure"}
	events <- Event{Reason: "pressure"}
	events <- Event{Reason: "fsnotify"}
	close(events)

	var seen []string
	err := Run(ctx, events, func(_ context.Context, ev Event) error {
		seen = append(seen, ev.Reason)
		if len(seen) == 1 {
			return errors.New("disk busy")
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"pressure", "pressure", "fsnotify"}, seen)
}

func TestRun_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	err := Run(ctx, make(chan Event), func(context.Context, Event) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWatch_CoalescesBurst(t *testing.T) {
	dir := t.TempDir()
	ctx, cancel := context.WithCancel(logging.NewContext(t.Context(), logging.ForTest(t)))
	defer cancel()

	events, err := Watch(ctx, []string{dir, filepath.Join(dir, "missing")}, 300*time.Millisecond)
	require.NoError(t, err)

	for _, name := range []string{"a.json", "b.json", "c.json"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644))
	}

	select {
	case ev := <-events:
		assert.Equal(t, "fsnotify", ev.Reason)
		assert.Equal(t, dir, filepath.Dir(ev.Path))
		assert.GreaterOrEqual(t, ev.Count, 3)
	case <-time.After(5 * time.Second):
		t.Fatal("no event received")
	}

	cancel()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after cancel")
		}
	}
}

func TestWatch_NoPaths(t *testing.T) {
	_, err := Watch(t.Context(), []string{filepath.Join(t.TempDir(), "missing")}, time.Second)
	assert.ErrorIs(t, err, ErrNoWatchPaths)
}

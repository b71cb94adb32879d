// Package trigger turns external signals into snapshot requests.
//
// Anything that decides a snapshot is due sends an [Event] on a channel;
// [Run] consumes the channel and calls a handler for each event. [Watch]
// provides one such source: it watches directories with fsnotify and emits one
// event per burst of filesystem activity. A CPU or I/O pressure detector can
// feed the same channel without this package knowing how it samples.
package trigger

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/logging"
)

// DefaultDebounce is the coalescing window used when none is given.
const DefaultDebounce = 5 * time.Second

// ErrNoWatchPaths is returned when none of the requested paths can be watched.
var ErrNoWatchPaths = errors.New("no watchable paths")

// Event asks for a snapshot.
type Event struct {
	// Reason names the source, such as "fsnotify" or "pressure".
	Reason string
	// Path is the first path that changed, when known.
	Path string
	// Count is how many raw signals were coalesced into this event.
	Count int
	At    time.Time
}

// Handler reacts to an event.
type Handler func(context.Context, Event) error

// Run calls h for every event until events is closed or ctx is done.
// Handler errors are logged and do not stop the loop.
func Run(ctx context.Context, events <-chan Event, h Handler) error {
	logger := logging.FromContext(ctx)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			logger.Info("trigger received", "reason", ev.Reason, "path", ev.Path, "count", ev.Count)
			if err := h(ctx, ev); err != nil {
				logger.Warn("trigger handler failed", "reason", ev.Reason, "error", err)
			}
		}
	}
}

// Watch emits an Event for each burst of changes in the given directories.
// The first change opens a window of length debounce; every change within the
// window is folded into one event sent when it closes. Watching is not
// recursive. Permission-only changes are ignored so locking a watched tree
// does not trigger a snapshot.
//
// The returned channel is closed when ctx is done.
func Watch(ctx context.Context, paths []string, debounce time.Duration) (<-chan Event, error) {
	logger := logging.FromContext(ctx)
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating file watcher")
	}

	added := 0
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			continue
		}
		if err := w.Add(abs); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				logger.Debug("watch path does not exist", "path", abs)
			} else {
				logger.Warn("cannot watch path", "path", abs, "error", err)
			}
			continue
		}
		logger.Debug("watching", "path", abs)
		added++
	}
	if added == 0 {
		w.Close()
		return nil, ErrNoWatchPaths
	}

	out := make(chan Event)
	go loop(ctx, w, debounce, out)
	return out, nil
}

func loop(ctx context.Context, w *fsnotify.Watcher, debounce time.Duration, out chan<- Event) {
	logger := logging.FromContext(ctx)
	defer close(out)
	defer w.Close()

	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending Event
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case ev, ok := <-w.Events:
			if !ok {
				return
			}
			if ev.Op == fsnotify.Chmod {
				continue
			}
			if timerC == nil {
				pending = Event{Reason: "fsnotify", Path: ev.Name, At: time.Now()}
				timer = time.NewTimer(debounce)
				timerC = timer.C
			}
			pending.Count++

		case <-timerC:
			timerC = nil
			select {
			case out <- pending:
			case <-ctx.Done():
				return
			}

		case err, ok := <-w.Errors:
			if !ok {
				return
			}
			logger.Warn("file watcher error", "error", err)
		}
	}
}

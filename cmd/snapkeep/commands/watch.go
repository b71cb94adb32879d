package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
	"github.com/thoreinstein/snapkeep/internal/trigger"
)

var watchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "quiet period before a snapshot (default watch.debounce)")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Snapshot automatically when the extension directory changes",
	Long: `Watch the configured paths and take a snapshot after each burst of
changes, such as an extension update starting.

Runs until interrupted.`,
	Example: `  snapkeep watch
  snapkeep watch --debounce 30s`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runWatchWithWriter(cmd.Context(), os.Stdout, appConfig, watchDebounce)
	},
}

func runWatchWithWriter(ctx context.Context, w io.Writer, cfg *config.Config, debounce time.Duration) error {
	if debounce <= 0 {
		d, err := cfg.Watch.DebounceDuration()
		if err != nil {
			return mapError(errors.Mark(errors.Wrap(err, "watch.debounce"), errors.ErrInvalidConfig))
		}
		debounce = d
	}

	events, err := trigger.Watch(ctx, cfg.Watch.Paths, debounce)
	if err != nil {
		if errors.Is(err, trigger.ErrNoWatchPaths) {
			return errors.NewConfigError(err)
		}
		return mapError(err)
	}

	fmt.Fprintf(w, "Watching %d paths (debounce %s); press Ctrl+C to stop\n", len(cfg.Watch.Paths), debounce)

	req := buildRequest(cfg, nil, nil, nil)
	err = trigger.Run(ctx, events, snapshotOnEvent(w, cfg, req))
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return mapError(err)
}

// snapshotOnEvent adapts createSnapshot to a trigger handler.
func snapshotOnEvent(w io.Writer, cfg *config.Config, req snapshot.Request) trigger.Handler {
	return func(ctx context.Context, ev trigger.Event) error {
		logging.FromContext(ctx).Info("change detected", "reason", ev.Reason, "path", ev.Path, "events", ev.Count)

		res, err := createSnapshot(ctx, cfg, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s %s snapshot %s (%d files, %d failed)\n",
			gray(ev.At.Local().Format("15:04:05")), green("✓"), bold(res.ID), res.Captured, res.Failed)
		return nil
	}
}

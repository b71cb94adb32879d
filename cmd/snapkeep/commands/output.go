package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/history"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/redact"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

// Output styles. fatih/color disables itself for non-terminals and NO_COLOR.
var (
	bold   = color.New(color.Bold).SprintFunc()
	green  = color.New(color.FgGreen).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	gray   = color.New(color.FgHiBlack).SprintFunc()
)

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return errors.Wrap(enc.Encode(v), "encoding output")
}

func bytesString(n int64) string {
	return humanize.IBytes(uint64(max(n, 0)))
}

// display hides the home directory in human-readable output. Full paths
// go to the log only.
func display(s string) string {
	return redact.Home(s)
}

func printFailures(w io.Writer, failures []snapshot.Failure) {
	for _, f := range failures {
		fmt.Fprintf(w, "  %s %s: %s\n", red("✗"), display(f.Path), gray(display(f.Reason)))
	}
}

// newManager builds a snapshot manager from cfg.
func newManager(cfg *config.Config, logger *slog.Logger) *snapshot.Manager {
	return snapshot.NewManager(
		snapshot.WithBackupBase(cfg.BackupBase),
		snapshot.WithPrefix(cfg.Prefix),
		snapshot.WithLogger(logger),
	)
}

// journal records e in the history database and prunes it to the configured
// size. Failures are logged; they never fail the command.
func journal(ctx context.Context, cfg *config.Config, e history.Event) {
	logger := logging.FromContext(ctx)
	// An interrupted command still gets its outcome recorded
	ctx = context.WithoutCancel(ctx)

	store, err := history.Open(ctx, cfg.History.Path)
	if err != nil {
		logger.Warn("history unavailable", "error", err)
		return
	}
	defer store.Close()

	if _, err := store.Record(ctx, e); err != nil {
		logger.Warn("recording history failed", "action", e.Action, "error", err)
		return
	}
	if _, err := store.Prune(ctx, cfg.History.Keep); err != nil {
		logger.Warn("pruning history failed", "error", err)
	}
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/history"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

var (
	createRoots      []string
	createPatterns   []string
	createExtensions []string
	createJSON       bool
)

func init() {
	createCmd.Flags().StringSliceVar(&createRoots, "root", nil, "directory to search (repeatable; overrides discovery.roots)")
	createCmd.Flags().StringSliceVar(&createPatterns, "pattern", nil, "file name glob (repeatable; overrides discovery.patterns)")
	createCmd.Flags().StringSliceVar(&createExtensions, "ext", nil, "file extension (repeatable; overrides discovery.extensions)")
	createCmd.Flags().BoolVar(&createJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(createCmd)
}

var createCmd = &cobra.Command{
	Use:   "create-snapshot",
	Short: "Capture chat history files into a new snapshot",
	Long: `Search the configured roots for chat history files and copy them into a
new timestamped snapshot under the backup base.

A file that cannot be read is recorded as failed in the manifest; the snapshot
still succeeds with everything else. When no files match, no snapshot is
created.`,
	Example: `  # Snapshot using the configured roots
  snapkeep create-snapshot

  # Snapshot a single directory, JSON files only
  snapkeep create-snapshot --root ~/.config/Code --ext .json

  See Also:
    snapkeep list-snapshots   - List available snapshots
    snapkeep restore-snapshot - Restore from a snapshot`,
	Args: cobra.NoArgs,
	RunE: runCreate,
}

func runCreate(cmd *cobra.Command, _ []string) error {
	req := buildRequest(appConfig, createRoots, createPatterns, createExtensions)
	return runCreateWithWriter(cmd.Context(), os.Stdout, appConfig, req, createJSON)
}

// buildRequest applies flag overrides on top of the configured discovery settings.
func buildRequest(cfg *config.Config, roots, patterns, exts []string) snapshot.Request {
	req := snapshot.Request{
		Roots:      cfg.Discovery.Roots,
		Patterns:   cfg.Discovery.Patterns,
		Extensions: cfg.Discovery.Extensions,
		MaxDepth:   cfg.Discovery.MaxDepth,
	}
	if len(roots) > 0 {
		req.Roots = roots
	}
	if len(patterns) > 0 {
		req.Patterns = patterns
	}
	if len(exts) > 0 {
		req.Extensions = exts
	}
	return req
}

func runCreateWithWriter(ctx context.Context, w io.Writer, cfg *config.Config, req snapshot.Request, asJSON bool) error {
	res, err := createSnapshot(ctx, cfg, req)
	if err != nil {
		return mapError(err)
	}

	if asJSON {
		return writeJSON(w, res)
	}

	fmt.Fprintf(w, "%s Created snapshot %s\n", green("✓"), bold(res.ID))
	fmt.Fprintf(w, "  Captured %d of %d files (%s)\n", res.Captured, res.TotalFiles, bytesString(res.TotalBytes))
	fmt.Fprintf(w, "  %s\n", gray(display(res.Root)))
	if len(res.Failures) > 0 {
		fmt.Fprintf(w, "%s %d files could not be captured:\n", yellow("!"), len(res.Failures))
		printFailures(w, res.Failures)
	}
	if len(res.Warnings) > 0 {
		fmt.Fprintf(w, "  %s\n", gray(fmt.Sprintf("%d paths skipped during discovery (see -v)", len(res.Warnings))))
	}
	return nil
}

// createSnapshot runs Create and journals the outcome. The watch command
// shares it.
func createSnapshot(ctx context.Context, cfg *config.Config, req snapshot.Request) (*snapshot.CreateResult, error) {
	logger := logging.FromContext(ctx)
	mgr := newManager(cfg, logger)

	res, err := mgr.Create(ctx, req)
	if err != nil {
		journal(ctx, cfg, history.Event{
			Action: history.ActionCreate,
			Detail: err.Error(),
		})
		return nil, err
	}

	for _, warn := range res.Warnings {
		logger.Info("discovery skipped path", "path", warn.Path, "error", warn.Err)
	}

	journal(ctx, cfg, history.Event{
		Action:  history.ActionCreate,
		Subject: res.ID,
		Detail:  fmt.Sprintf("captured %d, failed %d", res.Captured, res.Failed),
		OK:      res.Failed == 0,
	})
	return res, nil
}

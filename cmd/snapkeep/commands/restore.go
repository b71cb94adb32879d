package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/internal/cli/prompt"
	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/history"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

var (
	restoreInteractive bool
	restoreYes         bool
	restoreJSON        bool
)

func init() {
	restoreCmd.Flags().BoolVarP(&restoreInteractive, "interactive", "i", false, "choose the snapshot from a list")
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "skip the confirmation prompt")
	restoreCmd.Flags().BoolVar(&restoreJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore-snapshot [id|latest]",
	Short: "Restore files from a snapshot",
	Long: `Copy every captured file in a snapshot back to its original location.

Existing files are overwritten. Files that are not in the snapshot are left
alone. A file that cannot be restored is reported and the rest continue.

Without an argument the newest snapshot is restored. With -i, snapshots are
listed and you pick one; a fuzzy finder is used on a terminal.`,
	Example: `  # Restore the newest snapshot
  snapkeep restore-snapshot

  # Restore a specific snapshot
  snapkeep restore-snapshot 20260123T100712

  # Pick one interactively
  snapkeep restore-snapshot -i

  See Also:
    snapkeep list-snapshots - List available snapshots`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

// restoreOptions carries the restore-snapshot flags.
type restoreOptions struct {
	ID          string
	Interactive bool
	Yes         bool
	JSON        bool
	// Fuzzy selects with the full-screen finder instead of a numbered list.
	Fuzzy bool
}

func runRestore(cmd *cobra.Command, args []string) error {
	opts := restoreOptions{
		ID:          snapshot.Latest,
		Interactive: restoreInteractive,
		Yes:         restoreYes,
		JSON:        restoreJSON,
		Fuzzy:       logging.IsInteractive(os.Stdin, os.Stdout),
	}
	if len(args) == 1 {
		if restoreInteractive {
			return mapError(errInteractiveWithID)
		}
		opts.ID = args[0]
	}
	return runRestoreWithIO(cmd.Context(), os.Stdin, os.Stdout, appConfig, opts)
}

func runRestoreWithIO(ctx context.Context, r io.Reader, w io.Writer, cfg *config.Config, opts restoreOptions) error {
	logger := logging.FromContext(ctx)
	mgr := newManager(cfg, logger)

	id := opts.ID
	if opts.Interactive {
		chosen, ok, err := chooseSnapshot(ctx, r, w, mgr, opts)
		if err != nil {
			return mapError(err)
		}
		if !ok {
			fmt.Fprintln(w, "Restore cancelled")
			return nil
		}
		id = chosen
	}

	res, err := mgr.Restore(ctx, id)
	if res != nil {
		journal(ctx, cfg, history.Event{
			Action:  history.ActionRestore,
			Subject: res.SnapshotID,
			Detail:  fmt.Sprintf("restored %d, failed %d", res.RestoredCount, res.FailedCount),
			OK:      err == nil && res.FailedCount == 0,
		})
	} else if err != nil {
		journal(ctx, cfg, history.Event{
			Action:  history.ActionRestore,
			Subject: id,
			Detail:  err.Error(),
		})
	}

	if res != nil {
		if opts.JSON {
			if jerr := writeJSON(w, res); jerr != nil && err == nil {
				return jerr
			}
		} else {
			printRestore(w, res)
		}
	}
	return mapError(err)
}

// chooseSnapshot lists snapshots and prompts for one. The backup base lock
// is released before the prompt; Restore takes it again.
func chooseSnapshot(ctx context.Context, r io.Reader, w io.Writer, mgr *snapshot.Manager, opts restoreOptions) (string, bool, error) {
	list, err := mgr.List(ctx)
	if err != nil {
		return "", false, err
	}

	selector := prompt.NewSelectorWithIO(r, w)

	var chosen *snapshot.Summary
	if opts.Fuzzy {
		chosen, err = prompt.FuzzySelectSnapshot(list.Snapshots)
	} else {
		chosen, err = selector.SelectSnapshot(list.Snapshots)
	}
	if err != nil {
		return "", false, err
	}

	if opts.Yes {
		return chosen.ID, true, nil
	}

	question := fmt.Sprintf("Restore %d files from %s? Existing files will be overwritten", chosen.Captured, chosen.ID)
	ok, err := selector.Confirm(question)
	if err != nil {
		return "", false, err
	}
	return chosen.ID, ok, nil
}

func printRestore(w io.Writer, res *snapshot.RestoreResult) {
	mark := green("✓")
	if res.FailedCount > 0 {
		mark = yellow("!")
	}
	fmt.Fprintf(w, "%s Restored %d files from snapshot %s\n", mark, res.RestoredCount, bold(res.SnapshotID))
	if res.FailedCount > 0 {
		fmt.Fprintf(w, "%s %d files could not be restored:\n", yellow("!"), res.FailedCount)
		printFailures(w, res.Failures)
	}
}

package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/thoreinstein/snapkeep/internal/config"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/extension"
	"github.com/thoreinstein/snapkeep/internal/history"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/paths"
	"github.com/thoreinstein/snapkeep/internal/protect"
)

var protectJSON bool

func init() {
	for _, c := range []*cobra.Command{lockCmd, unlockCmd, statusCmd} {
		c.Flags().BoolVar(&protectJSON, "json", false, "Output in JSON format")
		rootCmd.AddCommand(c)
	}
}

const protectTargetHelp = `Without a target, the first directory in protect.extensions_dir matching
protect.patterns is used.`

var lockCmd = &cobra.Command{
	Use:   "lock [target]",
	Short: "Write-protect the extension directory",
	Long: `Remove every write permission bit under the target so editor updates
cannot replace it.

The lock is advisory: the file owner or root can change the bits back.

` + protectTargetHelp,
	Example: `  # Lock the detected extension
  snapkeep lock

  # Lock a specific directory
  snapkeep lock ~/.vscode/extensions/augment.vscode-augment-0.4.1

  See Also: snapkeep unlock, snapkeep status`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProtectWithWriter(cmd.Context(), os.Stdout, appConfig, history.ActionLock, args, protectJSON)
	},
}

var unlockCmd = &cobra.Command{
	Use:   "unlock [target]",
	Short: "Make the extension directory writable again",
	Long: `Restore the owner write bit on every entry under the target.

` + protectTargetHelp,
	Example: `  snapkeep unlock

  See Also: snapkeep lock, snapkeep status`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProtectWithWriter(cmd.Context(), os.Stdout, appConfig, history.ActionUnlock, args, protectJSON)
	},
}

var statusCmd = &cobra.Command{
	Use:   "status [target]",
	Short: "Show whether the extension directory is locked",
	Long: `Report the lock state of the target. It is locked only when no entry
under it has any write bit set.

` + protectTargetHelp,
	Example: `  snapkeep status
  snapkeep status --json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runProtectWithWriter(cmd.Context(), os.Stdout, appConfig, "status", args, protectJSON)
	},
}

// protectOutput is the JSON shape of lock, unlock and status.
type protectOutput struct {
	protect.State
	Extension string `json:"extension,omitempty"`
	Version   string `json:"version,omitempty"`
}

func runProtectWithWriter(ctx context.Context, w io.Writer, cfg *config.Config, action string, args []string, asJSON bool) error {
	logger := logging.FromContext(ctx)

	out, err := protectTarget(cfg, args)
	if err != nil {
		return mapError(err)
	}

	ctrl := protect.NewController(logger)
	var state protect.State
	switch action {
	case history.ActionLock:
		state, err = ctrl.Lock(out.Target)
	case history.ActionUnlock:
		state, err = ctrl.Unlock(out.Target)
	default:
		state, err = ctrl.Status(out.Target)
	}
	out.State = state

	if action != "status" {
		ev := history.Event{Action: action, Subject: out.Target, OK: err == nil}
		if err != nil {
			ev.Detail = err.Error()
		}
		journal(ctx, cfg, ev)
	}
	if err != nil {
		return mapError(err)
	}

	if asJSON {
		return writeJSON(w, out)
	}

	label := green("unlocked")
	if out.Locked {
		label = yellow("locked")
	}
	fmt.Fprintf(w, "%s is %s\n", display(out.Target), bold(label))
	if out.Extension != "" {
		fmt.Fprintf(w, "  %s\n", gray("extension "+out.Extension+" version "+out.Version))
	}
	return nil
}

// protectTarget picks the explicit target or locates the extension.
func protectTarget(cfg *config.Config, args []string) (protectOutput, error) {
	if len(args) == 1 {
		target, err := paths.Absolute(args[0])
		if err != nil {
			return protectOutput{}, errors.Mark(err, errors.ErrInvalidArgument)
		}
		return protectOutput{State: protect.State{Target: target}}, nil
	}

	ext, err := extension.Find(cfg.Protect.ExtensionsDir, cfg.Protect.Patterns)
	if err != nil {
		return protectOutput{}, err
	}
	return protectOutput{
		State:     protect.State{Target: ext.Path},
		Extension: ext.Name,
		Version:   ext.Version,
	}, nil
}

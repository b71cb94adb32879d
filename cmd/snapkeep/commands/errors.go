package commands

import (
	"context"

	"github.com/thoreinstein/snapkeep/internal/cli"
	"github.com/thoreinstein/snapkeep/internal/cli/prompt"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/extension"
	"github.com/thoreinstein/snapkeep/internal/manifest"
	"github.com/thoreinstein/snapkeep/internal/protect"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// mapError attaches an exit code and a suggestion to err. Errors that already
// carry one pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var exitErr *errors.ExitError
	if errors.As(err, &exitErr) {
		return err
	}

	switch {
	case errors.Is(err, cli.ErrPrivileged):
		return errors.NewUserError(err, "Run snapkeep as your regular user, without sudo")
	case errors.Is(err, snapshot.ErrNotFound):
		return errors.NewUserError(err, "Run: snapkeep list-snapshots")
	case errors.Is(err, prompt.ErrNoSnapshots):
		return errors.NewUserError(err, "Run: snapkeep create-snapshot")
	case errors.Is(err, extension.ErrNotFound):
		return errors.NewUserError(err, "Pass the directory to protect, or set protect.extensions_dir")
	case errors.Is(err, protect.ErrTargetNotFound):
		return errors.NewUserError(err, "")
	case errors.Is(err, manifest.ErrCorrupt):
		return errors.NewUserError(err, "Choose another snapshot from: snapkeep list-snapshots")
	case errors.Is(err, snapshot.ErrNothingToSnapshot):
		return errors.NewUserError(err, "Check discovery.roots and discovery.patterns with: snapkeep config show")
	case errors.Is(err, prompt.ErrSelectionCancelled), errors.Is(err, prompt.ErrInvalidSelection):
		return errors.NewUserError(err, "")
	case errors.Is(err, errors.ErrInvalidConfig):
		return errors.NewConfigError(err)
	case errors.Is(err, errors.ErrInvalidArgument), errors.Is(err, errors.ErrNotFound):
		return errors.NewUserError(err, "")
	case errors.Is(err, fileutil.ErrLocked):
		return errors.NewSystemError(err, "Another snapkeep process is using the backup base; retry when it finishes")
	case errors.Is(err, snapshot.ErrBackupRoot):
		return errors.NewSystemError(err, "Check that backup_base is writable and the disk has free space")
	case errors.Is(err, protect.ErrConflict):
		return errors.NewSystemError(err, "Some files are owned by another user; fix their ownership and retry")
	case errors.Is(err, context.Canceled):
		return errors.NewSystemError(errors.Wrap(err, "interrupted"), "")
	default:
		return errors.NewExitError(err, errors.ExitSystem)
	}
}

var errInteractiveWithID = errors.Wrap(errors.ErrInvalidArgument, "--interactive does not take a snapshot id")

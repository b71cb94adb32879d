package protect

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/logging"
)

const (
	writeBits = 0o222
	ownerW    = 0o200

	// modeBits are the bits chmod can set.
	modeBits = fs.ModePerm | fs.ModeSetuid | fs.ModeSetgid | fs.ModeSticky
)

var (
	// ErrConflict matches every failure to change the requested permissions.
	ErrConflict = errors.New("lock conflict")

	// ErrTargetNotFound indicates the target path does not exist.
	ErrTargetNotFound = errors.Wrap(errors.ErrNotFound, "lock target")
)

// ConflictError reports a permission change that could not be made. The
// target has been returned to its prior state.
type ConflictError struct {
	Op   string
	Path string
	Err  error
}

func (e *ConflictError) Error() string {
	return e.Op + " " + e.Path + ": " + e.Err.Error()
}

func (e *ConflictError) Unwrap() error {
	return errors.Mark(e.Err, ErrConflict)
}

// Is makes the standard library's errors.Is match ErrConflict as well.
func (e *ConflictError) Is(target error) bool {
	return target == ErrConflict
}

// State is the observed write protection of a target.
type State struct {
	Target string `json:"target_path"`
	Locked bool   `json:"locked"`
}

// Controller locks and unlocks directory trees.
type Controller struct {
	logger *slog.Logger
	chmod  func(string, fs.FileMode) error
}

// NewController returns a Controller. A nil logger discards.
func NewController(logger *slog.Logger) *Controller {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Controller{logger: logger, chmod: os.Chmod}
}

// Lock clears all write bits under target.
func (c *Controller) Lock(target string) (State, error) {
	return c.transition("lock", target, func(m fs.FileMode) fs.FileMode {
		return m &^ writeBits
	})
}

// Unlock sets the owner write bit under target.
func (c *Controller) Unlock(target string) (State, error) {
	return c.transition("unlock", target, func(m fs.FileMode) fs.FileMode {
		return m | ownerW
	})
}

// Status reports whether target is locked.
func (c *Controller) Status(target string) (State, error) {
	abs, err := resolve(target)
	if err != nil {
		return State{Target: target}, err
	}

	locked := true
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Mode().Perm()&writeBits != 0 {
			locked = false
			return fs.SkipAll
		}
		return nil
	})
	if err != nil {
		return State{Target: abs}, errors.Wrapf(err, "inspecting %s", abs)
	}
	return State{Target: abs, Locked: locked}, nil
}

type change struct {
	path string
	mode fs.FileMode
}

func (c *Controller) transition(op, target string, next func(fs.FileMode) fs.FileMode) (State, error) {
	abs, err := resolve(target)
	if err != nil {
		return State{Target: target}, err
	}

	var done []change
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return &ConflictError{Op: op, Path: path, Err: err}
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return &ConflictError{Op: op, Path: path, Err: err}
		}

		old := info.Mode() & modeBits
		want := next(old)
		if want == old {
			return nil
		}
		if err := c.chmod(path, want); err != nil {
			return &ConflictError{Op: op, Path: path, Err: err}
		}
		done = append(done, change{path: path, mode: old})
		return nil
	})
	if err != nil {
		c.revert(done)
		c.logger.Warn(op+" failed, permissions reverted", "target", abs, "reverted", len(done), "error", err)
		st, _ := c.Status(abs)
		return st, err
	}

	c.logger.Info(op+" applied", "target", abs, "changed", len(done))
	return State{Target: abs, Locked: op == "lock"}, nil
}

// revert restores modes in reverse order so directories regain their bits
// after their contents.
func (c *Controller) revert(done []change) {
	for i := len(done) - 1; i >= 0; i-- {
		if err := c.chmod(done[i].path, done[i].mode); err != nil {
			c.logger.Error("reverting permissions", "path", done[i].path, "error", err)
		}
	}
}

func resolve(target string) (string, error) {
	if target == "" {
		return "", errors.Wrap(errors.ErrInvalidArgument, "lock target is empty")
	}
	abs, err := filepath.Abs(target)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", target)
	}
	// A symlinked target is followed once; links inside the tree are not
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return "", errors.Wrapf(ErrTargetNotFound, "%s", abs)
		}
		return "", errors.Wrapf(err, "resolving %s", abs)
	}
	return resolved, nil
}

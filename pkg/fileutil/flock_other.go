//go:build !unix

package fileutil

import (
	"os"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// ErrLocked indicates another process holds the directory lock.
var ErrLocked = errors.New("directory is locked by another process")

// DirLock is a placeholder on platforms without flock(2); it only verifies
// the directory exists.
type DirLock struct{}

// LockDir checks that dir exists. No cross-process exclusion is provided.
func LockDir(dir string) (*DirLock, error) {
	if _, err := os.Stat(dir); err != nil {
		return nil, errors.Wrap(err, "opening directory for lock")
	}
	return &DirLock{}, nil
}

// Unlock is a no-op.
func (l *DirLock) Unlock() error { return nil }

// IsNoSpace always reports false on this platform.
func IsNoSpace(error) bool { return false }

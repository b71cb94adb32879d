//go:build unix

package fileutil

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// ErrLocked indicates another process holds the directory lock.
var ErrLocked = errors.New("directory is locked by another process")

// DirLock is an exclusive advisory lock held on a directory.
type DirLock struct {
	f *os.File
}

// LockDir takes an exclusive, non-blocking flock(2) on the directory itself.
// No lock file is created, so locking never writes to the directory.
// Contention returns ErrLocked. Release with [DirLock.Unlock].
func LockDir(dir string) (*DirLock, error) {
	f, err := os.Open(dir)
	if err != nil {
		return nil, errors.Wrap(err, "opening directory for lock")
	}

	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, errors.Wrapf(ErrLocked, "%s", dir)
		}
		return nil, errors.Wrap(err, "flock")
	}

	return &DirLock{f: f}, nil
}

// Unlock releases the lock. It is safe to call on a nil or released lock.
func (l *DirLock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	f := l.f
	l.f = nil

	uerr := unix.Flock(int(f.Fd()), unix.LOCK_UN)
	cerr := f.Close()
	if uerr != nil {
		return errors.Wrap(uerr, "releasing flock")
	}
	return errors.Wrap(cerr, "closing lock descriptor")
}

// IsNoSpace reports whether err is a disk-full condition.
func IsNoSpace(err error) bool {
	return errors.Is(err, unix.ENOSPC) || errors.Is(err, unix.EDQUOT)
}

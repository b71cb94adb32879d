package snapshot

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/thoreinstein/snapkeep/internal/discovery"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/paths"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// DefaultPrefix names snapshot directories when no prefix is configured.
const DefaultPrefix = "chat_backup"

// Sentinel errors for snapshot operations.
var (
	// ErrNotFound indicates the requested snapshot does not exist.
	ErrNotFound = errors.Wrap(errors.ErrNotFound, "snapshot")

	// ErrBackupRoot indicates the backup base cannot be created or used.
	ErrBackupRoot = errors.New("backup root unavailable")

	// ErrNothingToSnapshot indicates discovery found no candidate files.
	ErrNothingToSnapshot = errors.New("no files to snapshot")

	// ErrIntegrity indicates stored content no longer matches its manifest record.
	ErrIntegrity = errors.New("snapshot content does not match manifest")
)

// Discoverer finds candidate files. *discovery.Finder implements it.
type Discoverer interface {
	Discover(ctx context.Context, q discovery.Query) (*discovery.Result, error)
}

// Manager owns the snapshots under one backup base.
type Manager struct {
	base       string
	prefix     string
	logger     *slog.Logger
	discoverer Discoverer
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithBackupBase sets the directory holding snapshots.
func WithBackupBase(dir string) Option {
	return func(m *Manager) {
		if dir != "" {
			m.base = dir
		}
	}
}

// WithPrefix sets the snapshot directory name prefix.
func WithPrefix(prefix string) Option {
	return func(m *Manager) {
		if prefix != "" {
			m.prefix = prefix
		}
	}
}

// WithLogger sets the logger. Without it the Manager is silent.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithDiscoverer replaces the filesystem walker used by Create.
func WithDiscoverer(d Discoverer) Option {
	return func(m *Manager) {
		m.discoverer = d
	}
}

// WithClock sets the time source used to allocate snapshot ids.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager with the given options.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		base:   paths.BackupBase(),
		prefix: DefaultPrefix,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = logging.NewDiscard()
	}
	if m.discoverer == nil {
		m.discoverer = discovery.NewFinder(m.logger)
	}
	if abs, err := filepath.Abs(m.base); err == nil {
		m.base = abs
	}
	return m
}

// BackupBase returns the directory holding snapshots.
func (m *Manager) BackupBase() string {
	return m.base
}

// SnapshotDir returns the directory of the snapshot with the given id.
func (m *Manager) SnapshotDir(id string) string {
	return filepath.Join(m.base, m.dirName(id))
}

func (m *Manager) dirName(id string) string {
	return m.prefix + "_" + id
}

// errBaseMissing is returned by lockBase when the backup base does not exist.
var errBaseMissing = errors.New("backup base does not exist")

// lockBase locks an existing backup base without creating it.
func (m *Manager) lockBase() (*fileutil.DirLock, error) {
	info, err := os.Stat(m.base)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errBaseMissing
		}
		return nil, errors.Mark(errors.Wrap(err, "reading backup base"), ErrBackupRoot)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(ErrBackupRoot, "%s is not a directory", m.base)
	}
	return fileutil.LockDir(m.base)
}

func unlock(logger *slog.Logger, l *fileutil.DirLock) {
	if err := l.Unlock(); err != nil {
		logger.Warn("releasing backup base lock", "error", err)
	}
}

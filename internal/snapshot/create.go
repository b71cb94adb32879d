package snapshot

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/thoreinstein/snapkeep/internal/discovery"
	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/manifest"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// maxSuffix bounds the collision search within a single second.
const maxSuffix = 1000

// Create discovers the files described by req and captures them into a new
// snapshot.
//
// Per-file copy failures are recorded in the manifest and reported in the
// result; they do not fail the call. Create fails, leaving no snapshot
// behind, when the backup base is unusable, another process holds its lock,
// discovery finds nothing, the volume fills up before any file is captured,
// ctx is cancelled, or the manifest cannot be written.
func (m *Manager) Create(ctx context.Context, req Request) (*CreateResult, error) {
	if err := os.MkdirAll(m.base, 0o700); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "creating backup base %s", m.base), ErrBackupRoot)
	}

	lock, err := fileutil.LockDir(m.base)
	if err != nil {
		return nil, err
	}
	defer unlock(m.logger, lock)

	found, err := m.discoverer.Discover(ctx, discovery.Query{
		Roots:      req.Roots,
		Patterns:   req.Patterns,
		Extensions: req.Extensions,
		MaxDepth:   req.MaxDepth,
		Exclude:    []string{m.base},
	})
	if err != nil {
		return nil, errors.Wrap(err, "discovering files")
	}
	if len(found.Paths) == 0 {
		return nil, ErrNothingToSnapshot
	}

	now := m.now().UTC()
	id, root, err := m.allocate(now)
	if err != nil {
		return nil, err
	}
	logger := m.logger.With("snapshot", id)
	logger.Info("creating snapshot", "root", root, "candidates", len(found.Paths))

	man := &manifest.Manifest{
		SchemaVersion: manifest.SchemaVersion,
		SnapshotID:    id,
		CreatedAt:     now,
		SnapshotRoot:  root,
		FileRecords:   make([]manifest.FileRecord, 0, len(found.Paths)),
	}
	result := &CreateResult{
		Discovered: len(found.Paths),
		Warnings:   found.Warnings,
	}

	for _, src := range found.Paths {
		if err := ctx.Err(); err != nil {
			m.discard(root)
			return nil, err
		}

		rec, err := capture(root, src)
		if err != nil {
			if fileutil.IsNoSpace(err) && man.Captured() == 0 {
				m.discard(root)
				return nil, errors.Mark(errors.Wrap(err, "backup volume is full"), ErrBackupRoot)
			}
			logger.Warn("file not captured", "path", src, "error", err)
			rec = manifest.FileRecord{
				OriginalPath:       src,
				StoredRelativePath: manifest.StoredPath(src),
				Status:             manifest.StatusFailed,
				Reason:             err.Error(),
			}
			result.Failures = append(result.Failures, Failure{Path: src, Reason: rec.Reason})
		} else {
			logger.Log(ctx, logging.LevelTrace, "captured", "path", src, "bytes", rec.SizeBytes)
		}
		man.Add(rec)
	}

	if err := manifest.Save(root, man); err != nil {
		m.discard(root)
		return nil, errors.Wrapf(err, "saving manifest for %s", id)
	}

	result.Summary = summarize(man, root)
	logger.Info("snapshot created",
		"captured", result.Captured,
		"failed", result.Failed,
		"bytes", result.TotalBytes)
	return result, nil
}

// allocate claims a fresh snapshot directory for t, bumping the suffix while
// the name is taken.
func (m *Manager) allocate(t time.Time) (string, string, error) {
	for n := range maxSuffix {
		id := NewID(t, n)
		dir := m.SnapshotDir(id)
		err := os.Mkdir(dir, 0o700)
		if err == nil {
			return id, dir, nil
		}
		if !os.IsExist(err) {
			return "", "", errors.Mark(errors.Wrap(err, "creating snapshot directory"), ErrBackupRoot)
		}
	}
	return "", "", errors.Wrapf(ErrBackupRoot, "more than %d snapshots in one second", maxSuffix)
}

// capture copies src into the snapshot rooted at root.
func capture(root, src string) (manifest.FileRecord, error) {
	stored := manifest.StoredPath(src)
	dst := filepath.Join(root, stored)

	if err := os.MkdirAll(filepath.Dir(dst), 0o700); err != nil {
		return manifest.FileRecord{}, errors.Wrap(err, "creating snapshot subdirectory")
	}

	info, err := fileutil.CopyFile(src, dst)
	if err != nil {
		return manifest.FileRecord{}, err
	}

	return manifest.FileRecord{
		OriginalPath:       src,
		StoredRelativePath: stored,
		SizeBytes:          info.Size,
		Status:             manifest.StatusCaptured,
		SHA256:             info.SHA256,
		Mode:               info.Mode,
		ModTime:            info.ModTime,
	}, nil
}

// discard removes an incomplete snapshot directory.
func (m *Manager) discard(root string) {
	if err := os.RemoveAll(root); err != nil {
		m.logger.Error("removing incomplete snapshot", "root", root, "error", err)
	}
}

package snapshot

import (
	"context"
	"os"
	"path/filepath"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/internal/manifest"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// Restore copies every captured file of the selected snapshot back to its
// original path, overwriting whatever is there. Files not in the snapshot are
// never touched.
//
// An unknown id returns ErrNotFound before anything is written. A manifest
// that fails to load returns a *manifest.CorruptError. Per-file failures are
// collected in the result. When ctx is cancelled the partial result is
// returned together with ctx.Err(); restoring again is safe.
func (m *Manager) Restore(ctx context.Context, idOrLatest string) (*RestoreResult, error) {
	lock, err := m.lockBase()
	if err != nil {
		if errors.Is(err, errBaseMissing) {
			return nil, errors.Wrapf(ErrNotFound, "%s", idOrLatest)
		}
		return nil, err
	}
	defer unlock(m.logger, lock)

	id, err := m.resolve(ctx, idOrLatest)
	if err != nil {
		return nil, err
	}

	root := m.SnapshotDir(id)
	man, err := manifest.LoadDir(root)
	if err != nil {
		return nil, err
	}

	logger := m.logger.With("snapshot", id)
	logger.Info("restoring snapshot", "files", man.Captured())

	res := &RestoreResult{SnapshotID: id, Failures: []Failure{}}
	for _, rec := range man.FileRecords {
		if rec.Status != manifest.StatusCaptured {
			continue
		}
		if err := ctx.Err(); err != nil {
			return res, err
		}

		if err := restoreFile(root, rec); err != nil {
			logger.Warn("file not restored", "path", rec.OriginalPath, "error", err)
			res.FailedCount++
			res.Failures = append(res.Failures, Failure{Path: rec.OriginalPath, Reason: err.Error()})
			continue
		}
		logger.Log(ctx, logging.LevelTrace, "restored", "path", rec.OriginalPath)
		res.RestoredCount++
	}

	logger.Info("restore finished", "restored", res.RestoredCount, "failed", res.FailedCount)
	return res, nil
}

func restoreFile(root string, rec manifest.FileRecord) error {
	src := filepath.Join(root, rec.StoredRelativePath)

	info, err := os.Stat(src)
	if err != nil {
		return errors.Wrap(err, "reading stored copy")
	}
	if info.Size() != rec.SizeBytes {
		return errors.Wrapf(ErrIntegrity, "stored copy is %d bytes, manifest says %d", info.Size(), rec.SizeBytes)
	}
	if rec.SHA256 != "" {
		sum, err := fileutil.HashFile(src)
		if err != nil {
			return err
		}
		if sum != rec.SHA256 {
			return errors.Wrap(ErrIntegrity, "sha256 mismatch")
		}
	}

	if err := os.MkdirAll(filepath.Dir(rec.OriginalPath), 0o755); err != nil {
		return errors.Wrap(err, "creating parent directory")
	}

	f, err := os.Open(src)
	if err != nil {
		return errors.Wrap(err, "opening stored copy")
	}
	defer f.Close()

	mode := rec.Mode.Perm()
	if mode == 0 {
		mode = 0o644
	}
	if _, err := fileutil.AtomicWriteFrom(rec.OriginalPath, f, mode); err != nil {
		return err
	}
	return fileutil.ApplyMetadata(rec.OriginalPath, mode, rec.ModTime)
}

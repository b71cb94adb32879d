package snapshot

import (
	"context"
	"os"
	"slices"
	"strings"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/manifest"
)

// List returns every readable snapshot, newest first. Directories whose
// manifest fails to load are reported in Problems. A missing backup base
// yields an empty result.
func (m *Manager) List(ctx context.Context) (*ListResult, error) {
	lock, err := m.lockBase()
	if err != nil {
		if errors.Is(err, errBaseMissing) {
			return &ListResult{}, nil
		}
		return nil, err
	}
	defer unlock(m.logger, lock)

	return m.scan(ctx)
}

// Resolve maps an id or "latest" to an existing snapshot id.
func (m *Manager) Resolve(ctx context.Context, idOrLatest string) (string, error) {
	lock, err := m.lockBase()
	if err != nil {
		if errors.Is(err, errBaseMissing) {
			return "", errors.Wrapf(ErrNotFound, "%s", idOrLatest)
		}
		return "", err
	}
	defer unlock(m.logger, lock)

	return m.resolve(ctx, idOrLatest)
}

// ids returns the snapshot ids under the backup base, newest first, judged
// by directory name alone.
func (m *Manager) ids(ctx context.Context) ([]string, error) {
	entries, err := os.ReadDir(m.base)
	if err != nil {
		return nil, errors.Wrap(err, "reading backup base")
	}

	var ids []string
	prefix := m.prefix + "_"
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id, ok := strings.CutPrefix(entry.Name(), prefix)
		if entry.IsDir() && ok && ValidID(id) {
			ids = append(ids, id)
		}
	}

	slices.SortFunc(ids, func(a, b string) int {
		return CompareIDs(b, a)
	})
	return ids, nil
}

func (m *Manager) scan(ctx context.Context) (*ListResult, error) {
	ids, err := m.ids(ctx)
	if err != nil {
		return nil, err
	}

	res := &ListResult{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dir := m.SnapshotDir(id)
		man, err := manifest.LoadDir(dir)
		if err == nil && man.SnapshotID != id {
			err = errors.Newf("manifest names snapshot %s", man.SnapshotID)
		}
		if err != nil {
			m.logger.Warn("skipping unreadable snapshot", "dir", dir, "error", err)
			res.Problems = append(res.Problems, Problem{Dir: dir, Err: err})
			continue
		}
		res.Snapshots = append(res.Snapshots, summarize(man, dir))
	}
	return res, nil
}

// resolve expects the caller to hold the backup base lock. "latest" is the
// highest id on disk even when its manifest is unreadable; loading it is
// left to the caller so a damaged newest snapshot is reported, not skipped.
func (m *Manager) resolve(ctx context.Context, idOrLatest string) (string, error) {
	if idOrLatest == "" || idOrLatest == Latest {
		ids, err := m.ids(ctx)
		if err != nil {
			return "", err
		}
		if len(ids) == 0 {
			return "", errors.Wrap(ErrNotFound, "no snapshots in backup base")
		}
		return ids[0], nil
	}

	if !ValidID(idOrLatest) {
		return "", errors.Wrapf(ErrNotFound, "%q is not a snapshot id", idOrLatest)
	}
	info, err := os.Stat(m.SnapshotDir(idOrLatest))
	if err != nil || !info.IsDir() {
		return "", errors.Wrapf(ErrNotFound, "%s", idOrLatest)
	}
	return idOrLatest, nil
}

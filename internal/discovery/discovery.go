// Package discovery resolves the files a snapshot should capture.
//
// Each root is walked without following symlinks, bounded by a maximum depth.
// A regular file is a candidate when its base name matches one of the glob
// patterns and its extension is in the extension set, both compared
// case-insensitively. Inaccessible subtrees become warnings rather than
// failures.
package discovery

import (
	"context"
	"io/fs"
	"log/slog"
	"path/filepath"
	"slices"
	"strings"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/logging"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// DefaultMaxDepth is how many directory levels below a root are searched
// when a Query leaves MaxDepth unset.
const DefaultMaxDepth = 16

// ErrBadPattern is returned for a malformed glob pattern.
var ErrBadPattern = errors.New("invalid discovery pattern")

// Query describes what to search for.
type Query struct {
	Roots []string

	// Patterns are glob patterns matched against base names. Empty matches all.
	Patterns []string

	// Extensions such as ".json" or "log". Empty matches all.
	Extensions []string

	// MaxDepth bounds the walk; zero means DefaultMaxDepth.
	MaxDepth int

	// Exclude lists directory prefixes that are never entered.
	Exclude []string
}

// Warning records a path that could not be searched.
type Warning struct {
	Path string
	Err  error
}

func (w Warning) String() string {
	return w.Path + ": " + w.Err.Error()
}

// Result is the outcome of a discovery run.
type Result struct {
	// Paths are absolute, deduplicated and sorted.
	Paths    []string
	Warnings []Warning
}

// Finder walks roots looking for candidate files.
type Finder struct {
	logger *slog.Logger
}

// NewFinder returns a Finder that logs through logger. A nil logger discards.
func NewFinder(logger *slog.Logger) *Finder {
	if logger == nil {
		logger = logging.NewDiscard()
	}
	return &Finder{logger: logger}
}

// Discover runs q with a Finder that discards its logs.
func Discover(ctx context.Context, q Query) (*Result, error) {
	return NewFinder(nil).Discover(ctx, q)
}

// Discover walks every root in q and returns the matching files.
// Only context cancellation and malformed patterns are errors.
func (f *Finder) Discover(ctx context.Context, q Query) (*Result, error) {
	m, err := newMatcher(q.Patterns, q.Extensions)
	if err != nil {
		return nil, err
	}

	maxDepth := q.MaxDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxDepth
	}

	excludes := make([]string, 0, len(q.Exclude))
	for _, ex := range q.Exclude {
		if ex == "" {
			continue
		}
		abs, err := filepath.Abs(ex)
		if err != nil {
			continue
		}
		if resolved, err := filepath.EvalSymlinks(abs); err == nil {
			abs = resolved
		}
		excludes = append(excludes, abs)
	}

	w := &walker{
		ctx:      ctx,
		logger:   f.logger,
		match:    m,
		maxDepth: maxDepth,
		excludes: excludes,
		seen:     make(map[string]struct{}),
		result:   &Result{},
	}

	for _, root := range q.Roots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := w.walkRoot(root); err != nil {
			return nil, err
		}
	}

	slices.Sort(w.result.Paths)
	f.logger.Debug("discovery finished",
		"roots", len(q.Roots),
		"candidates", len(w.result.Paths),
		"warnings", len(w.result.Warnings))
	return w.result, nil
}

type walker struct {
	ctx      context.Context
	logger   *slog.Logger
	match    *matcher
	maxDepth int
	excludes []string
	seen     map[string]struct{}
	result   *Result
}

func (w *walker) walkRoot(root string) error {
	abs, err := filepath.Abs(root)
	if err != nil {
		w.warn(root, err)
		return nil
	}

	// A symlinked root is followed once; nothing below it is.
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			w.logger.Debug("discovery root does not exist", "root", abs)
			return nil
		}
		w.warn(abs, err)
		return nil
	}

	if w.excluded(resolved) {
		w.logger.Debug("discovery root is excluded", "root", resolved)
		return nil
	}

	return filepath.WalkDir(resolved, func(path string, d fs.DirEntry, err error) error {
		if cerr := w.ctx.Err(); cerr != nil {
			return cerr
		}
		if err != nil {
			w.warn(path, err)
			return nil
		}

		if d.IsDir() {
			if path == resolved {
				return nil
			}
			if w.excluded(path) {
				return fs.SkipDir
			}
			if depth(resolved, path) >= w.maxDepth {
				w.logger.Log(w.ctx, logging.LevelTrace, "depth limit reached", "dir", path)
				return fs.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			w.logger.Log(w.ctx, logging.LevelTrace, "skipping symlink", "path", path)
			return nil
		}
		if !d.Type().IsRegular() || fileutil.IsTempFile(d.Name()) {
			return nil
		}
		if !w.match.matches(d.Name()) {
			return nil
		}

		w.add(path)
		return nil
	})
}

func (w *walker) add(path string) {
	path = filepath.Clean(path)
	if _, dup := w.seen[path]; dup {
		return
	}
	w.seen[path] = struct{}{}
	w.result.Paths = append(w.result.Paths, path)
	w.logger.Log(w.ctx, logging.LevelTrace, "candidate", "path", path)
}

func (w *walker) warn(path string, err error) {
	w.result.Warnings = append(w.result.Warnings, Warning{Path: path, Err: err})
	w.logger.Warn("skipping unreadable path", "path", path, "error", err)
}

func (w *walker) excluded(path string) bool {
	for _, ex := range w.excludes {
		if path == ex || strings.HasPrefix(path, ex+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

// depth returns how many directory levels path sits below root.
func depth(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return strings.Count(rel, string(filepath.Separator)) + 1
}

// Package extension locates an installed editor extension and reads its version.
package extension

import (
	"encoding/json"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// UnknownVersion is reported when no version can be determined.
const UnknownVersion = "unknown"

// DefaultPatterns match the Augment extension directory.
var DefaultPatterns = []string{"*augment*"}

// ErrNotFound indicates no extension directory matched.
var ErrNotFound = errors.Wrap(errors.ErrNotFound, "extension")

// Extension is an installed extension directory.
type Extension struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Version string `json:"version"`
}

// Find returns the first directory in dir, in lexicographic order, whose name
// matches one of patterns case-insensitively.
func Find(dir string, patterns []string) (*Extension, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrNotFound, "extensions directory %s does not exist", dir)
		}
		return nil, errors.Wrapf(err, "reading %s", dir)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	for _, name := range names {
		if !matchAny(patterns, name) {
			continue
		}
		path := filepath.Join(dir, name)
		return &Extension{Name: name, Path: path, Version: Version(path)}, nil
	}
	return nil, errors.Wrapf(ErrNotFound, "no match for %s in %s", strings.Join(patterns, ", "), dir)
}

func matchAny(patterns []string, name string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if ok, _ := filepath.Match(strings.ToLower(p), lower); ok {
			return true
		}
	}
	return false
}

// Version reads an extension's version from its directory name
// (publisher.name-1.2.3) or, failing that, from package.json.
func Version(path string) string {
	for _, part := range strings.Split(filepath.Base(path), "-") {
		if isVersion(part) {
			return part
		}
	}

	data, err := fileutil.ReadFileWithLimit(filepath.Join(path, "package.json"))
	if err != nil {
		return UnknownVersion
	}
	var pkg struct {
		Version string `json:"version"`
	}
	if err := json.Unmarshal(data, &pkg); err != nil || pkg.Version == "" {
		return UnknownVersion
	}
	return pkg.Version
}

// isVersion reports whether s is dotted digits such as "0.482.1".
func isVersion(s string) bool {
	digits := strings.ReplaceAll(s, ".", "")
	if digits == "" {
		return false
	}
	for _, r := range digits {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

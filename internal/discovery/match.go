package discovery

import (
	"path/filepath"
	"strings"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

type matcher struct {
	patterns   []string
	extensions map[string]struct{}
}

func newMatcher(patterns, extensions []string) (*matcher, error) {
	m := &matcher{extensions: make(map[string]struct{}, len(extensions))}

	for _, p := range patterns {
		if p == "" {
			continue
		}
		p = strings.ToLower(p)
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, errors.Wrapf(ErrBadPattern, "%q", p)
		}
		m.patterns = append(m.patterns, p)
	}

	for _, ext := range extensions {
		ext = NormalizeExtension(ext)
		if ext == "" {
			continue
		}
		m.extensions[ext] = struct{}{}
	}

	return m, nil
}

// matches reports whether a base name passes both the pattern and the
// extension filters.
func (m *matcher) matches(name string) bool {
	lower := strings.ToLower(name)

	if len(m.extensions) > 0 {
		if _, ok := m.extensions[filepath.Ext(lower)]; !ok {
			return false
		}
	}

	if len(m.patterns) == 0 {
		return true
	}
	for _, p := range m.patterns {
		if ok, _ := filepath.Match(p, lower); ok {
			return true
		}
	}
	return false
}

// NormalizeExtension lowercases ext and ensures a single leading dot.
func NormalizeExtension(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	ext = strings.TrimLeft(ext, ".")
	if ext == "" {
		return ""
	}
	return "." + ext
}

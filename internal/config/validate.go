package config

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/paths"
)

// Validation errors for configuration fields.
var (
	// ErrVersionTooLow indicates the version field is below the minimum.
	ErrVersionTooLow = errors.New("version must be >= 1")

	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = paths.ErrInvalidPath

	// ErrInvalidValue indicates a non-path field holds an unusable value.
	ErrInvalidValue = errors.New("invalid value")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error
	addPath := func(field, path string, required bool) {
		if path == "" && !required {
			return
		}
		if err := validatePath(path); err != nil {
			errs = append(errs, &PathError{Field: field, Path: path, Err: err})
		}
	}
	addValue := func(field, value, reason string) {
		errs = append(errs, &ValueError{Field: field, Value: value, Err: errors.Wrap(ErrInvalidValue, reason)})
	}

	if cfg.Version < 1 {
		errs = append(errs, ErrVersionTooLow)
	}

	addPath("backup_base", cfg.BackupBase, true)
	addPath("protect.extensions_dir", cfg.Protect.ExtensionsDir, false)
	addPath("history.path", cfg.History.Path, true)
	for _, r := range cfg.Discovery.Roots {
		addPath("discovery.roots", r, true)
	}
	for _, p := range cfg.Watch.Paths {
		addPath("watch.paths", p, true)
	}

	if cfg.Prefix == "" || strings.ContainsAny(cfg.Prefix, `/\`) || cfg.Prefix == "." || cfg.Prefix == ".." {
		addValue("prefix", cfg.Prefix, "must be a non-empty name without path separators")
	}

	for _, p := range cfg.Discovery.Patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			addValue("discovery.patterns", p, "malformed glob pattern")
		}
	}
	for _, p := range cfg.Protect.Patterns {
		if _, err := filepath.Match(p, ""); err != nil {
			addValue("protect.patterns", p, "malformed glob pattern")
		}
	}

	if cfg.Discovery.MaxDepth < 0 {
		addValue("discovery.max_depth", strconv.Itoa(cfg.Discovery.MaxDepth), "must not be negative")
	}
	if d, err := cfg.Watch.DebounceDuration(); err != nil || d <= 0 {
		addValue("watch.debounce", cfg.Watch.Debounce, "must be a positive duration such as 5s")
	}
	if cfg.History.Keep < 0 {
		addValue("history.keep", strconv.Itoa(cfg.History.Keep), "must not be negative")
	}

	return errs
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	// Check for null bytes which are never valid in paths
	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	// Clean the path and check it's not empty after cleaning
	cleaned := filepath.Clean(path)
	if path == "" || cleaned == "." {
		return ErrInvalidPath
	}

	return nil
}

// PathError represents an error for a specific path field.
type PathError struct {
	Field string
	Path  string
	Err   error
}

func (e *PathError) Error() string {
	return e.Field + ": " + e.Err.Error() + ": " + e.Path
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ValueError represents an unusable value in a non-path field.
type ValueError struct {
	Field string
	Value string
	Err   error
}

func (e *ValueError) Error() string {
	return e.Field + ": " + e.Err.Error() + ": " + e.Value
}

func (e *ValueError) Unwrap() error {
	return e.Err
}

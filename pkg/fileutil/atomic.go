// Package fileutil provides file system utilities: atomic writes, hashing
// copies and advisory directory locks.
package fileutil

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// tempPattern names in-flight temp files. Discovery and listing never match it.
const tempPattern = ".snapkeep-atomic-*.tmp"

// AtomicWriteFrom streams r into path atomically using a temp file + rename.
// An interrupted write leaves any existing file at path intact.
//
// The caller is responsible for ensuring the parent directory exists.
// Returns the number of bytes written.
func AtomicWriteFrom(path string, r io.Reader, perm os.FileMode) (int64, error) {
	dir := filepath.Dir(path)

	// Same directory so the rename stays on one filesystem
	tmp, err := os.CreateTemp(dir, tempPattern)
	if err != nil {
		return 0, errors.Wrap(err, "creating temp file")
	}

	tmpName := tmp.Name()
	defer func() {
		// Only remove if rename failed (file still exists)
		if _, statErr := os.Lstat(tmpName); statErr == nil {
			os.Remove(tmpName)
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return n, errors.Wrap(err, "writing temp file")
	}

	if err := tmp.Chmod(perm); err != nil {
		tmp.Close()
		return n, errors.Wrap(err, "setting file permissions")
	}

	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return n, errors.Wrap(err, "syncing temp file")
	}

	if err := tmp.Close(); err != nil {
		return n, errors.Wrap(err, "closing temp file")
	}

	if err := os.Rename(tmpName, path); err != nil {
		return n, errors.Wrap(err, "renaming temp file")
	}

	return n, nil
}

// AtomicWriteFile writes data to a file atomically using a temp file + rename pattern.
//
// The caller is responsible for ensuring the parent directory exists.
// Permissions are applied to the final file via the perm parameter.
func AtomicWriteFile(path string, data []byte, perm os.FileMode) error {
	_, err := AtomicWriteFrom(path, bytes.NewReader(data), perm)
	return err
}

// AtomicWriteJSONWithPerm writes v as indented JSON to path atomically with specified permissions.
// Uses 2-space indentation and appends a trailing newline.
func AtomicWriteJSONWithPerm(path string, v any, perm os.FileMode) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.Wrap(err, "marshaling JSON")
	}

	data = append(data, '\n')

	return AtomicWriteFile(path, data, perm)
}

// AtomicWriteYAMLWithPerm writes v as YAML to path atomically with specified permissions.
func AtomicWriteYAMLWithPerm(path string, v any, perm os.FileMode) (err error) {
	// yaml.Marshal panics on unmarshalable types; recover and return error
	defer func() {
		if r := recover(); r != nil {
			err = errors.Newf("marshaling YAML: %v", r)
		}
	}()

	data, err := yaml.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "marshaling YAML")
	}

	if len(data) > 0 && data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}

	return AtomicWriteFile(path, data, perm)
}

// IsTempFile reports whether name is an in-flight atomic write temp file.
func IsTempFile(name string) bool {
	ok, _ := filepath.Match(tempPattern, name)
	return ok
}

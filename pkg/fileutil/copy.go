package fileutil

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"os"
	"time"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// CopyInfo describes the content and metadata of a copied file.
type CopyInfo struct {
	Size    int64
	SHA256  string
	Mode    fs.FileMode
	ModTime time.Time
}

// CopyFile copies the regular file src to dst, which must not exist yet.
// Permission bits and modification time are preserved and the SHA-256 of the
// content is computed while copying. A failed copy removes dst.
func CopyFile(src, dst string) (*CopyInfo, error) {
	srcFile, err := os.Open(src)
	if err != nil {
		return nil, errors.Wrap(err, "opening source file")
	}
	defer srcFile.Close()

	srcInfo, err := srcFile.Stat()
	if err != nil {
		return nil, errors.Wrap(err, "stat source file")
	}
	if !srcInfo.Mode().IsRegular() {
		return nil, errors.Newf("not a regular file: %s", srcInfo.Mode().Type())
	}

	// Owner-only until the copy completes
	dstFile, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return nil, errors.Wrap(err, "creating destination file")
	}

	h := sha256.New()
	n, err := io.Copy(io.MultiWriter(dstFile, h), srcFile)
	if err != nil {
		dstFile.Close()
		os.Remove(dst)
		return nil, errors.Wrap(err, "copying file")
	}

	if err := dstFile.Close(); err != nil {
		os.Remove(dst)
		return nil, errors.Wrap(err, "closing destination file")
	}

	info := &CopyInfo{
		Size:    n,
		SHA256:  hex.EncodeToString(h.Sum(nil)),
		Mode:    srcInfo.Mode().Perm(),
		ModTime: srcInfo.ModTime(),
	}

	if err := ApplyMetadata(dst, info.Mode, info.ModTime); err != nil {
		os.Remove(dst)
		return nil, err
	}

	return info, nil
}

// ApplyMetadata sets the permission bits and modification time of path.
// A zero modTime leaves the timestamps alone.
func ApplyMetadata(path string, mode fs.FileMode, modTime time.Time) error {
	if err := os.Chmod(path, mode.Perm()); err != nil {
		return errors.Wrap(err, "setting permissions")
	}
	if !modTime.IsZero() {
		if err := os.Chtimes(path, modTime, modTime); err != nil {
			return errors.Wrap(err, "setting modification time")
		}
	}
	return nil
}

// HashFile computes the hex-encoded SHA-256 of a file.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", errors.Wrap(err, "opening file")
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", errors.Wrap(err, "reading file")
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

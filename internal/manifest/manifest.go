package manifest

import (
	"encoding/json"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// SchemaVersion is the manifest format version written by this package.
const SchemaVersion = 1

const (
	// FileName is the manifest's name inside a snapshot root.
	FileName = "manifest.json"

	// FilesDir is the snapshot subdirectory holding captured content.
	FilesDir = "files"

	// MaxSize bounds how much of a manifest file Load will read.
	MaxSize = 64 << 20
)

// Status is the outcome of capturing one file.
type Status string

// File outcomes.
const (
	StatusCaptured Status = "captured"
	StatusFailed   Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusCaptured || s == StatusFailed
}

// FileRecord describes one file's fate during snapshot creation.
type FileRecord struct {
	OriginalPath       string `json:"original_path"`
	StoredRelativePath string `json:"stored_relative_path"`
	SizeBytes          int64  `json:"size_bytes"`
	Status             Status `json:"status"`

	// SHA256 is the hex digest of captured content. Older manifests may omit it.
	SHA256 string `json:"sha256,omitempty"`

	// Reason explains a failed record.
	Reason string `json:"reason,omitempty"`

	Mode    fs.FileMode `json:"mode,omitempty"`
	ModTime time.Time   `json:"mod_time,omitzero"`
}

// Manifest is the record stored at the root of every snapshot.
type Manifest struct {
	SchemaVersion int          `json:"schema_version"`
	SnapshotID    string       `json:"snapshot_id"`
	CreatedAt     time.Time    `json:"created_at"`
	SnapshotRoot  string       `json:"snapshot_root"`
	FileRecords   []FileRecord `json:"file_records"`
	TotalFiles    int          `json:"total_files"`
	TotalBytes    int64        `json:"total_bytes"`
}

// Captured returns the number of captured records.
func (m *Manifest) Captured() int {
	n := 0
	for _, r := range m.FileRecords {
		if r.Status == StatusCaptured {
			n++
		}
	}
	return n
}

// Failed returns the number of failed records.
func (m *Manifest) Failed() int {
	return len(m.FileRecords) - m.Captured()
}

// Add appends a record and updates the totals.
func (m *Manifest) Add(r FileRecord) {
	m.FileRecords = append(m.FileRecords, r)
	m.TotalFiles = len(m.FileRecords)
	if r.Status == StatusCaptured {
		m.TotalBytes += r.SizeBytes
	}
}

// Validate checks the structural invariants of m.
func (m *Manifest) Validate() error {
	if m.SchemaVersion != SchemaVersion {
		return errors.Newf("unsupported schema_version %d", m.SchemaVersion)
	}
	if m.SnapshotID == "" {
		return errors.New("snapshot_id is empty")
	}
	if m.CreatedAt.IsZero() {
		return errors.New("created_at is zero")
	}
	if m.TotalFiles != len(m.FileRecords) {
		return errors.Newf("total_files is %d but %d file records are listed", m.TotalFiles, len(m.FileRecords))
	}

	var sum int64
	for i, r := range m.FileRecords {
		if err := r.validate(); err != nil {
			return errors.Wrapf(err, "file_records[%d]", i)
		}
		if r.Status == StatusCaptured {
			sum += r.SizeBytes
		}
	}
	if sum != m.TotalBytes {
		return errors.Newf("total_bytes is %d but captured records sum to %d", m.TotalBytes, sum)
	}
	return nil
}

func (r FileRecord) validate() error {
	if !r.Status.Valid() {
		return errors.Newf("unknown status %q", r.Status)
	}
	if r.SizeBytes < 0 {
		return errors.Newf("negative size_bytes %d", r.SizeBytes)
	}
	if !filepath.IsAbs(r.OriginalPath) {
		return errors.Newf("original_path %q is not absolute", r.OriginalPath)
	}
	orig, err := OriginalPath(r.StoredRelativePath)
	if err != nil {
		return err
	}
	if orig != filepath.Clean(r.OriginalPath) {
		return errors.Newf("stored_relative_path %q does not map to %q", r.StoredRelativePath, r.OriginalPath)
	}
	return nil
}

// Save validates m and writes it atomically to dir/manifest.json.
func Save(dir string, m *Manifest) error {
	if err := m.Validate(); err != nil {
		return errors.Wrap(err, "refusing to save invalid manifest")
	}

	out := *m
	if out.FileRecords == nil {
		out.FileRecords = []FileRecord{}
	}

	path := filepath.Join(dir, FileName)
	if err := fileutil.AtomicWriteJSONWithPerm(path, &out, 0o600); err != nil {
		return errors.Wrap(err, "writing manifest")
	}
	return nil
}

// wire mirrors the JSON layout with pointers so absent fields can be told
// apart from zero values.
type wireManifest struct {
	SchemaVersion *int          `json:"schema_version"`
	SnapshotID    *string       `json:"snapshot_id"`
	CreatedAt     *time.Time    `json:"created_at"`
	SnapshotRoot  *string       `json:"snapshot_root"`
	FileRecords   *[]wireRecord `json:"file_records"`
	TotalFiles    *int          `json:"total_files"`
	TotalBytes    *int64        `json:"total_bytes"`
}

type wireRecord struct {
	OriginalPath       *string     `json:"original_path"`
	StoredRelativePath *string     `json:"stored_relative_path"`
	SizeBytes          *int64      `json:"size_bytes"`
	Status             *Status     `json:"status"`
	SHA256             string      `json:"sha256"`
	Reason             string      `json:"reason"`
	Mode               fs.FileMode `json:"mode"`
	ModTime            time.Time   `json:"mod_time"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := fileutil.ReadFileLimit(path, MaxSize)
	if err != nil {
		return nil, newCorruptError(path, err)
	}
	m, err := Decode(data)
	if err != nil {
		return nil, newCorruptError(path, err)
	}
	return m, nil
}

// LoadDir loads the manifest stored in the snapshot root dir.
func LoadDir(dir string) (*Manifest, error) {
	return Load(filepath.Join(dir, FileName))
}

// Decode parses and validates manifest JSON.
func Decode(data []byte) (*Manifest, error) {
	var w wireManifest
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, errors.Wrap(err, "parsing JSON")
	}

	switch {
	case w.SchemaVersion == nil:
		return nil, missing("schema_version")
	case *w.SchemaVersion != SchemaVersion:
		return nil, errors.Newf("unsupported schema_version %d", *w.SchemaVersion)
	case w.SnapshotID == nil:
		return nil, missing("snapshot_id")
	case w.CreatedAt == nil:
		return nil, missing("created_at")
	case w.SnapshotRoot == nil:
		return nil, missing("snapshot_root")
	case w.FileRecords == nil:
		return nil, missing("file_records")
	case w.TotalFiles == nil:
		return nil, missing("total_files")
	case w.TotalBytes == nil:
		return nil, missing("total_bytes")
	}

	m := &Manifest{
		SchemaVersion: *w.SchemaVersion,
		SnapshotID:    *w.SnapshotID,
		CreatedAt:     *w.CreatedAt,
		SnapshotRoot:  *w.SnapshotRoot,
		FileRecords:   make([]FileRecord, 0, len(*w.FileRecords)),
		TotalFiles:    *w.TotalFiles,
		TotalBytes:    *w.TotalBytes,
	}

	for i, wr := range *w.FileRecords {
		switch {
		case wr.OriginalPath == nil:
			return nil, missing(recordField(i, "original_path"))
		case wr.StoredRelativePath == nil:
			return nil, missing(recordField(i, "stored_relative_path"))
		case wr.SizeBytes == nil:
			return nil, missing(recordField(i, "size_bytes"))
		case wr.Status == nil:
			return nil, missing(recordField(i, "status"))
		}
		m.FileRecords = append(m.FileRecords, FileRecord{
			OriginalPath:       *wr.OriginalPath,
			StoredRelativePath: *wr.StoredRelativePath,
			SizeBytes:          *wr.SizeBytes,
			Status:             *wr.Status,
			SHA256:             wr.SHA256,
			Reason:             wr.Reason,
			Mode:               wr.Mode,
			ModTime:            wr.ModTime,
		})
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

func missing(field string) error {
	return errors.Newf("required field %s is missing", field)
}

func recordField(i int, name string) string {
	return "file_records[" + strconv.Itoa(i) + "]." + name
}

// StoredPath maps an absolute original path to its location relative to the
// snapshot root.
func StoredPath(original string) string {
	clean := filepath.Clean(original)
	clean = strings.TrimLeft(clean, string(filepath.Separator))
	return filepath.Join(FilesDir, clean)
}

// OriginalPath reverses StoredPath. It rejects paths that are not clean,
// not under FilesDir, or that would escape the snapshot root.
func OriginalPath(stored string) (string, error) {
	if stored == "" {
		return "", errors.New("stored_relative_path is empty")
	}
	if !filepath.IsLocal(stored) || filepath.Clean(stored) != stored {
		return "", errors.Newf("stored_relative_path %q is not a clean relative path", stored)
	}
	prefix := FilesDir + string(filepath.Separator)
	rest, ok := strings.CutPrefix(stored, prefix)
	if !ok || rest == "" {
		return "", errors.Newf("stored_relative_path %q is not under %s/", stored, FilesDir)
	}
	return string(filepath.Separator) + rest, nil
}

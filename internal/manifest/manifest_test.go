package manifest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

func sample(root string) *Manifest {
	m := &Manifest{
		SchemaVersion: SchemaVersion,
		SnapshotID:    "20260123T100712",
		CreatedAt:     time.Date(2026, 1, 23, 10, 7, 12, 0, time.UTC),
		SnapshotRoot:  root,
	}
	m.Add(FileRecord{
		OriginalPath:       "/home/u/a.json",
		StoredRelativePath: StoredPath("/home/u/a.json"),
		SizeBytes:          100,
		Status:             StatusCaptured,
		SHA256:             strings.Repeat("a", 64),
		Mode:               0o644,
		ModTime:            time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	m.Add(FileRecord{
		OriginalPath:       "/home/u/c.txt",
		StoredRelativePath: StoredPath("/home/u/c.txt"),
		Status:             StatusFailed,
		Reason:             "permission denied",
	})
	return m
}

func TestSaveLoad_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	want := sample(dir)

	require.NoError(t, Save(dir, want))

	info, err := os.Stat(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	got, err := LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, want.SnapshotID, got.SnapshotID)
	assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
	assert.Equal(t, 2, got.TotalFiles)
	assert.Equal(t, int64(100), got.TotalBytes)
	assert.Equal(t, 1, got.Captured())
	assert.Equal(t, 1, got.Failed())
	assert.Equal(t, want.FileRecords[0].SHA256, got.FileRecords[0].SHA256)
	assert.Equal(t, "permission denied", got.FileRecords[1].Reason)
	assert.Equal(t, os.FileMode(0o644), got.FileRecords[0].Mode)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files should remain")
}

func TestSave_RejectsInvalid(t *testing.T) {
	dir := t.TempDir()
	m := sample(dir)
	m.TotalBytes = 7

	err := Save(dir, m)
	require.Error(t, err)
	_, statErr := os.Stat(filepath.Join(dir, FileName))
	assert.True(t, os.IsNotExist(statErr))
}

func TestSave_EmptyRecordsWrittenAsArray(t *testing.T) {
	dir := t.TempDir()
	m := &Manifest{
		SchemaVersion: SchemaVersion,
		SnapshotID:    "20260123T100712",
		CreatedAt:     time.Now().UTC(),
		SnapshotRoot:  dir,
	}
	require.NoError(t, Save(dir, m))

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"file_records": []`)

	_, err = LoadDir(dir)
	require.NoError(t, err)
}

const validJSON = `{
  "schema_version": 1,
  "snapshot_id": "20260123T100712",
  "created_at": "2026-01-23T10:07:12Z",
  "snapshot_root": "/b/chat_backup_20260123T100712",
  "file_records": [
    {"original_path": "/h/a.json", "stored_relative_path": "files/h/a.json", "size_bytes": 100, "status": "captured"},
    {"original_path": "/h/b.log", "stored_relative_path": "files/h/b.log", "size_bytes": 50, "status": "captured"}
  ],
  "total_files": 2,
  "total_bytes": 150
}`

func TestDecode_Valid(t *testing.T) {
	m, err := Decode([]byte(validJSON))
	require.NoError(t, err)
	assert.Equal(t, 2, m.Captured())
	assert.Empty(t, m.FileRecords[0].SHA256)
}

func TestDecode_IgnoresUnknownFields(t *testing.T) {
	data := strings.Replace(validJSON, `"total_files": 2,`, `"total_files": 2, "compression": "none", "future": {"x": 1},`, 1)
	data = strings.Replace(data, `"size_bytes": 50,`, `"size_bytes": 50, "owner": "u",`, 1)

	_, err := Decode([]byte(data))
	require.NoError(t, err)
}

func TestLoad_Corrupt(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"not json", `{"schema_version": 1,`},
		{"missing schema_version", strings.Replace(validJSON, `"schema_version": 1,`, ``, 1)},
		{"unsupported schema_version", strings.Replace(validJSON, `"schema_version": 1`, `"schema_version": 2`, 1)},
		{"missing snapshot_id", strings.Replace(validJSON, `"snapshot_id": "20260123T100712",`, ``, 1)},
		{"missing total_bytes", strings.Replace(validJSON, `,
  "total_bytes": 150`, ``, 1)},
		{"count mismatch", strings.Replace(validJSON, `"total_files": 2`, `"total_files": 3`, 1)},
		{"bytes mismatch", strings.Replace(validJSON, `"total_bytes": 150`, `"total_bytes": 151`, 1)},
		{"unknown status", strings.Replace(validJSON, `"size_bytes": 50, "status": "captured"`, `"size_bytes": 50, "status": "maybe"`, 1)},
		{"relative original", strings.Replace(validJSON, `"original_path": "/h/a.json"`, `"original_path": "h/a.json"`, 1)},
		{"escaping stored path", strings.Replace(validJSON, `"files/h/a.json"`, `"files/../../etc/passwd"`, 1)},
		{"stored path mismatch", strings.Replace(validJSON, `"files/h/a.json"`, `"files/h/other.json"`, 1)},
		{"record missing status", strings.Replace(validJSON, `, "status": "captured"}`, `}`, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.data), 0o600))

			_, err := Load(path)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrCorrupt), "want ErrCorrupt, got %v", err)

			var ce *CorruptError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, path, ce.Path)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrCorrupt))
}

func TestStoredPath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/home/u/a.json", "files/home/u/a.json"},
		{"/home/u/../u/b.log", "files/home/u/b.log"},
		{"/x", "files/x"},
	}
	for _, tt := range tests {
		got := StoredPath(tt.in)
		assert.Equal(t, tt.want, got)

		back, err := OriginalPath(got)
		require.NoError(t, err)
		assert.Equal(t, filepath.Clean(tt.in), back)
	}
}

func TestOriginalPath_Rejects(t *testing.T) {
	for _, in := range []string{
		"",
		"files",
		"files/",
		"other/home/a",
		"/files/home/a",
		"files/../x",
		"files//home",
		"../files/home",
	} {
		_, err := OriginalPath(in)
		assert.Error(t, err, "input %q", in)
	}
}

package snapshot

import (
	"time"

	"github.com/thoreinstein/snapkeep/internal/discovery"
	"github.com/thoreinstein/snapkeep/internal/manifest"
)

// Request describes what Create should capture.
type Request struct {
	Roots      []string
	Patterns   []string
	Extensions []string
	MaxDepth   int
}

// Summary describes one snapshot.
type Summary struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	Root       string    `json:"root"`
	TotalFiles int       `json:"total_files"`
	Captured   int       `json:"captured"`
	Failed     int       `json:"failed"`
	TotalBytes int64     `json:"total_bytes"`
}

func summarize(m *manifest.Manifest, root string) Summary {
	return Summary{
		ID:         m.SnapshotID,
		CreatedAt:  m.CreatedAt,
		Root:       root,
		TotalFiles: m.TotalFiles,
		Captured:   m.Captured(),
		Failed:     m.Failed(),
		TotalBytes: m.TotalBytes,
	}
}

// Failure is a per-file error collected during create or restore.
type Failure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// CreateResult is returned by Create.
type CreateResult struct {
	Summary

	// Discovered is the number of candidates discovery returned.
	Discovered int                 `json:"discovered"`
	Failures   []Failure           `json:"failures,omitempty"`
	Warnings   []discovery.Warning `json:"-"`
}

// Problem is a snapshot directory that could not be listed.
type Problem struct {
	Dir string
	Err error
}

// ListResult is returned by List.
type ListResult struct {
	// Snapshots are ordered newest first.
	Snapshots []Summary
	Problems  []Problem
}

// RestoreResult is returned by Restore.
type RestoreResult struct {
	SnapshotID    string    `json:"snapshot_id"`
	RestoredCount int       `json:"restored_count"`
	FailedCount   int       `json:"failed_count"`
	Failures      []Failure `json:"failures"`
}

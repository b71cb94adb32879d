// Package manifest reads and writes the manifest.json stored at the root of
// every snapshot.
//
// A manifest lists one [FileRecord] per discovered file together with the
// totals that describe the snapshot:
//
//	{
//	  "schema_version": 1,
//	  "snapshot_id": "20260123T100712",
//	  "created_at": "2026-01-23T10:07:12Z",
//	  "snapshot_root": "/home/user/.local/share/snapkeep/backups/chat_backup_20260123T100712",
//	  "file_records": [ ... ],
//	  "total_files": 3,
//	  "total_bytes": 150
//	}
//
// [Save] validates the totals and writes through a temporary file that is
// renamed into place, so a reader never observes a half-written manifest.
// [Load] ignores unknown fields but rejects unknown schema versions, missing
// required fields and records whose stored path would escape the snapshot
// root. Every load failure is a [*CorruptError] matching [ErrCorrupt].
//
// Captured files live under "files/" followed by their absolute path with the
// leading separator removed. [StoredPath] and [OriginalPath] convert between
// the two forms.
package manifest

// Package snapshot creates, lists and restores snapshots of discovered files.
//
// Each snapshot is a directory under the backup base:
//
//	<backup-base>/
//	└── <prefix>_<id>/
//	    ├── manifest.json
//	    └── files/
//	        └── home/user/.config/Code/.../chat.json
//
// The id is the UTC creation time with second resolution
// (20260123T100712). Two snapshots created within the same second get a
// numeric suffix (20260123T100712-1). Ids order chronologically with the
// suffix compared numerically; see [CompareIDs].
//
// # Creating
//
// [Manager.Create] runs discovery, copies every candidate into a new snapshot
// directory and writes the manifest last. A file that cannot be copied is
// recorded as failed and the remaining files are still captured. When the
// context is cancelled or the manifest cannot be written, the incomplete
// directory is removed so no manifest ever references missing content.
//
// # Restoring
//
// [Manager.Restore] copies every captured file back to its original path,
// creating parent directories as needed. Existing files are overwritten;
// files absent from the snapshot are left alone. Per-file failures are
// collected in the [RestoreResult].
//
// # Concurrency
//
// Create, List, Resolve and Restore hold an exclusive flock on the backup base
// for their duration. A second process receives [fileutil.ErrLocked] instead
// of waiting. Nothing in this package prompts, so the lock is never held
// across user interaction.
//
// The engine never deletes a completed snapshot.
package snapshot

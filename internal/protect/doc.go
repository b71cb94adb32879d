// Package protect write-protects a directory tree by toggling permission bits.
//
// A [Controller] moves a target between two states:
//
//	UNLOCKED --Lock--> LOCKED
//	LOCKED --Unlock--> UNLOCKED
//
// Lock clears every write bit on every entry of the tree. Unlock restores the
// owner write bit. Both are idempotent. Status reports the tree as locked only
// when no entry carries any write bit, so a partially writable tree is
// unlocked.
//
// # Limits
//
// The lock is advisory. It lives entirely in permission bits: the superuser
// ignores them, and the owner of any entry can chmod it back at will. A
// package manager running with elevated privileges will replace a locked
// extension regardless. Use the lock to stop accidental in-place updates by
// the editor running as the same user, not as a security boundary.
//
// A target that is itself a symlink is resolved first and the tree it points
// to is locked. Symlinks inside the tree are left alone, since chmod would
// follow them to files outside it.
//
// If a permission change fails part way through, every mode already changed is
// put back and a [*ConflictError] is returned, leaving the target as it was.
package protect

// Package paths resolves the filesystem locations snapkeep uses.
//
// Defaults follow the XDG Base Directory specification via github.com/adrg/xdg:
//
//	$XDG_CONFIG_HOME/snapkeep/config.yaml   configuration
//	$XDG_DATA_HOME/snapkeep/backups/        backup base (one directory per snapshot)
//	$XDG_DATA_HOME/snapkeep/history.db      action history journal
//
// It also carries the default editor locations searched for chat state and
// the "~" expansion used for user-supplied paths.
package paths

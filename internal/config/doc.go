// Package config provides configuration management for the snapkeep CLI.
//
// Engine packages never read configuration themselves. Commands load a
// [Config] once and pass the relevant values into the snapshot, protect,
// trigger and history packages explicitly.
//
// # Configuration File
//
// The configuration file is config.yaml, searched for in the current
// directory and then in $XDG_CONFIG_HOME/snapkeep. Every key has a default,
// so the file is optional:
//
//	version: 1
//	backup_base: ~/.local/share/snapkeep/backups
//	prefix: chat_backup
//	discovery:
//	  roots:
//	    - ~/.config/Code/User/globalStorage
//	  patterns: ["*augment*", "*chat*", "*conversation*"]
//	  extensions: [".json", ".log", ".txt", ".db"]
//	  max_depth: 16
//	protect:
//	  extensions_dir: ~/.vscode/extensions
//	  patterns: ["*augment*"]
//	watch:
//	  paths: [~/.vscode/extensions]
//	  debounce: 5s
//	history:
//	  path: ~/.local/share/snapkeep/history.db
//	  keep: 50
//
// A leading "~" in any path is expanded when the file is loaded.
//
// # Environment
//
// Every key can be overridden with a SNAPKEEP_ variable, dots replaced by
// underscores: SNAPKEEP_BACKUP_BASE, SNAPKEEP_DISCOVERY_MAX_DEPTH.
//
// # Validation
//
// [Validate] returns every problem at once rather than stopping at the first:
//
//	if errs := config.Validate(cfg); len(errs) > 0 {
//	    for _, e := range errs {
//	        fmt.Println(e)
//	    }
//	}
//
// Path problems are [*PathError] values; other fields report [*ValueError].
package config

package paths

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/cockroachdb/errors"
)

// AppName names the application's XDG subdirectories.
const AppName = "snapkeep"

// Sentinel errors for path resolution.
var (
	// ErrHomeDirNotFound indicates the user's home directory could not be determined.
	ErrHomeDirNotFound = errors.New("home directory not found")

	// ErrInvalidPath indicates the provided path is malformed or invalid.
	ErrInvalidPath = errors.New("invalid path")
)

// DefaultDirPerm is the default permission for newly created directories (private).
const DefaultDirPerm = 0o700

// EnsureDir creates the directory and any necessary parents with specified permissions.
// If perm is 0, DefaultDirPerm (0700) is used.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	return os.MkdirAll(path, perm)
}

// Home returns the user's home directory, or "" if it cannot be determined.
// Use ResolveHome for proper error handling.
func Home() string {
	h, _ := ResolveHome()
	return h
}

// ResolveHome returns the user's home directory.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
func ConfigHome() string {
	return xdg.ConfigHome
}

// DataHome returns the XDG data home directory.
func DataHome() string {
	return xdg.DataHome
}

// ConfigDir returns <ConfigHome>/snapkeep.
func ConfigDir() string {
	return filepath.Join(ConfigHome(), AppName)
}

// BackupBase returns the default backup base: <DataHome>/snapkeep/backups.
func BackupBase() string {
	return filepath.Join(DataHome(), AppName, "backups")
}

// HistoryDB returns the default history journal path: <DataHome>/snapkeep/history.db.
func HistoryDB() string {
	return filepath.Join(DataHome(), AppName, "history.db")
}

// ExpandHome expands a leading "~" or "~/" to the user's home directory.
// Other paths, including "~user", are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}

	if path == "~" {
		return home
	}
	return filepath.Join(home, path[2:])
}

// Absolute expands "~" and returns a cleaned absolute path.
func Absolute(path string) (string, error) {
	if path == "" || strings.ContainsRune(path, '\x00') {
		return "", errors.Wrapf(ErrInvalidPath, "%q", path)
	}
	abs, err := filepath.Abs(ExpandHome(path))
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", path)
	}
	return abs, nil
}

// DefaultDiscoveryRoots returns the editor locations that hold extension chat
// state, for both the stable and Insiders builds.
func DefaultDiscoveryRoots() []string {
	return []string{
		"~/.config/Code/User/globalStorage",
		"~/.config/Code/User/workspaceStorage",
		"~/.config/Code/logs",
		"~/.config/Code - Insiders/User/globalStorage",
		"~/.config/Code - Insiders/User/workspaceStorage",
		"~/.config/Code - Insiders/logs",
		"~/.vscode/extensions",
		"~/.vscode-insiders/extensions",
	}
}

// DefaultExtensionsDir returns the editor's extension install directory.
func DefaultExtensionsDir() string {
	return "~/.vscode/extensions"
}

// Package config provides configuration management for snapkeep using Viper.
package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/paths"
	"github.com/thoreinstein/snapkeep/pkg/fileutil"
)

// AppName is the application name used for config file naming.
const AppName = paths.AppName

// EnvPrefix prefixes environment overrides, e.g. SNAPKEEP_BACKUP_BASE.
const EnvPrefix = "SNAPKEEP"

// Config represents the top-level configuration structure.
type Config struct {
	Version    int             `mapstructure:"version" yaml:"version" toml:"version"`
	BackupBase string          `mapstructure:"backup_base" yaml:"backup_base" toml:"backup_base"`
	Prefix     string          `mapstructure:"prefix" yaml:"prefix" toml:"prefix"`
	Discovery  DiscoveryConfig `mapstructure:"discovery" yaml:"discovery" toml:"discovery"`
	Protect    ProtectConfig   `mapstructure:"protect" yaml:"protect" toml:"protect"`
	Watch      WatchConfig     `mapstructure:"watch" yaml:"watch" toml:"watch"`
	History    HistoryConfig   `mapstructure:"history" yaml:"history" toml:"history"`
}

// DiscoveryConfig selects the files a snapshot captures.
type DiscoveryConfig struct {
	Roots      []string `mapstructure:"roots" yaml:"roots" toml:"roots"`
	Patterns   []string `mapstructure:"patterns" yaml:"patterns" toml:"patterns"`
	Extensions []string `mapstructure:"extensions" yaml:"extensions" toml:"extensions"`
	MaxDepth   int      `mapstructure:"max_depth" yaml:"max_depth" toml:"max_depth"`
}

// ProtectConfig locates the extension that lock, unlock and status act on
// when no target is given.
type ProtectConfig struct {
	ExtensionsDir string   `mapstructure:"extensions_dir" yaml:"extensions_dir" toml:"extensions_dir"`
	Patterns      []string `mapstructure:"patterns" yaml:"patterns" toml:"patterns"`
}

// WatchConfig drives the watch command.
type WatchConfig struct {
	Paths []string `mapstructure:"paths" yaml:"paths" toml:"paths"`
	// Debounce is a Go duration string such as "5s".
	Debounce string `mapstructure:"debounce" yaml:"debounce" toml:"debounce"`
}

// DebounceDuration parses Debounce.
func (w WatchConfig) DebounceDuration() (time.Duration, error) {
	return time.ParseDuration(w.Debounce)
}

// HistoryConfig locates the action journal.
type HistoryConfig struct {
	Path string `mapstructure:"path" yaml:"path" toml:"path"`
	Keep int    `mapstructure:"keep" yaml:"keep" toml:"keep"`
}

// Default returns the configuration used when no file or override is present.
func Default() *Config {
	return &Config{
		Version:    1,
		BackupBase: paths.BackupBase(),
		Prefix:     "chat_backup",
		Discovery: DiscoveryConfig{
			Roots:      paths.DefaultDiscoveryRoots(),
			Patterns:   []string{"*augment*", "*chat*", "*conversation*"},
			Extensions: []string{".json", ".log", ".txt", ".db"},
			MaxDepth:   16,
		},
		Protect: ProtectConfig{
			ExtensionsDir: paths.DefaultExtensionsDir(),
			Patterns:      []string{"*augment*"},
		},
		Watch: WatchConfig{
			Paths:    []string{"~/.vscode/extensions", "~/.vscode-insiders/extensions"},
			Debounce: "5s",
		},
		History: HistoryConfig{
			Path: paths.HistoryDB(),
			Keep: 50,
		},
	}
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	// Config file settings
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	// SNAPKEEP_DISCOVERY_MAX_DEPTH overrides discovery.max_depth
	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	d := Default()
	viper.SetDefault("version", d.Version)
	viper.SetDefault("backup_base", d.BackupBase)
	viper.SetDefault("prefix", d.Prefix)
	viper.SetDefault("discovery.roots", d.Discovery.Roots)
	viper.SetDefault("discovery.patterns", d.Discovery.Patterns)
	viper.SetDefault("discovery.extensions", d.Discovery.Extensions)
	viper.SetDefault("discovery.max_depth", d.Discovery.MaxDepth)
	viper.SetDefault("protect.extensions_dir", d.Protect.ExtensionsDir)
	viper.SetDefault("protect.patterns", d.Protect.Patterns)
	viper.SetDefault("watch.paths", d.Watch.Paths)
	viper.SetDefault("watch.debounce", d.Watch.Debounce)
	viper.SetDefault("history.path", d.History.Path)
	viper.SetDefault("history.keep", d.History.Keep)
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations and falls back to
// defaults when no file is found.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case path != "" && (errors.As(err, &notFound) || os.IsNotExist(err) || errors.Is(err, os.ErrNotExist)):
			return nil, errors.Wrapf(errors.ErrNotFound, "config file %s", path)
		case errors.As(err, &notFound):
			// Implicit load without a file uses defaults
		default:
			return nil, errors.Mark(errors.Wrap(err, "reading config file"), errors.ErrInvalidConfig)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "unmarshaling config"), errors.ErrInvalidConfig)
	}
	cfg.expand()

	return &cfg, nil
}

// ConfigFileUsed returns the file Load read, or "" when defaults were used.
func ConfigFileUsed() string {
	return viper.ConfigFileUsed()
}

// expand replaces a leading "~" in every path field.
func (c *Config) expand() {
	c.BackupBase = paths.ExpandHome(c.BackupBase)
	c.Protect.ExtensionsDir = paths.ExpandHome(c.Protect.ExtensionsDir)
	c.History.Path = paths.ExpandHome(c.History.Path)
	for i, r := range c.Discovery.Roots {
		c.Discovery.Roots[i] = paths.ExpandHome(r)
	}
	for i, p := range c.Watch.Paths {
		c.Watch.Paths[i] = paths.ExpandHome(p)
	}
}

// Formats accepted by Marshal.
const (
	FormatYAML = "yaml"
	FormatTOML = "toml"
)

// Marshal renders cfg as YAML or TOML.
func Marshal(cfg *Config, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case FormatYAML, "yml", "":
		data, err := yaml.Marshal(cfg)
		return data, errors.Wrap(err, "marshaling YAML")
	case FormatTOML:
		data, err := toml.Marshal(cfg)
		return data, errors.Wrap(err, "marshaling TOML")
	default:
		return nil, errors.Wrapf(errors.ErrInvalidArgument, "unknown format %q (want yaml or toml)", format)
	}
}

// WriteDefault writes the default configuration to path as YAML. An existing
// file is left alone unless force is set.
func WriteDefault(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return errors.Newf("config file %s already exists", path)
		}
	}
	if err := paths.EnsureDir(filepath.Dir(path), paths.DefaultDirPerm); err != nil {
		return err
	}
	return fileutil.AtomicWriteYAMLWithPerm(path, Default(), 0o600)
}

// DefaultPath is where config init writes.
func DefaultPath() string {
	return filepath.Join(paths.ConfigDir(), "config.yaml")
}

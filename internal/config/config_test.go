package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/snapkeep/internal/errors"
)

// isolate resets viper and runs the test from an empty directory.
func isolate(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Chdir(t.TempDir())
	Init()
}

func TestInit(t *testing.T) {
	isolate(t)

	if viper.GetInt("version") != 1 {
		t.Errorf("expected version default 1, got %d", viper.GetInt("version"))
	}
	if got := viper.GetStringSlice("discovery.patterns"); len(got) != 3 {
		t.Errorf("expected 3 default patterns, got %v", got)
	}
}

func TestLoad_NoConfigFile(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "chat_backup", cfg.Prefix)
	assert.Equal(t, 16, cfg.Discovery.MaxDepth)
	assert.Empty(t, Validate(cfg))

	for _, root := range cfg.Discovery.Roots {
		assert.False(t, strings.HasPrefix(root, "~"), "root %q not expanded", root)
	}
}

func TestLoad_WithConfigFile(t *testing.T) {
	isolate(t)

	dir := t.TempDir()
	configPath := filepath.Join(dir, "config.yaml")
	content := []byte(`backup_base: ~/snaps
prefix: nightly
discovery:
  roots: [/srv/state]
  extensions: [json]
watch:
  debounce: 2s
`)
	require.NoError(t, os.WriteFile(configPath, content, 0o600))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "snaps"), cfg.BackupBase)
	assert.Equal(t, "nightly", cfg.Prefix)
	assert.Equal(t, []string{"/srv/state"}, cfg.Discovery.Roots)
	assert.Equal(t, []string{"json"}, cfg.Discovery.Extensions)
	assert.Len(t, cfg.Discovery.Patterns, 3, "unset keys keep their defaults")

	d, err := cfg.Watch.DebounceDuration()
	require.NoError(t, err)
	assert.Equal(t, "2s", d.String())
}

func TestLoad_EnvOverride(t *testing.T) {
	isolate(t)
	t.Setenv("SNAPKEEP_PREFIX", "fromenv")
	t.Setenv("SNAPKEEP_DISCOVERY_MAX_DEPTH", "4")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "fromenv", cfg.Prefix)
	assert.Equal(t, 4, cfg.Discovery.MaxDepth)
}

func TestLoad_ExplicitPathNotFound(t *testing.T) {
	isolate(t)

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestLoad_Malformed(t *testing.T) {
	isolate(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("discovery: [unclosed"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.Version = 0
	cfg.BackupBase = ""
	cfg.Prefix = "a/b"
	cfg.Discovery.Patterns = []string{"[bad"}
	cfg.Discovery.MaxDepth = -1
	cfg.Watch.Debounce = "soon"
	cfg.History.Keep = -3

	errs := Validate(cfg)
	require.Len(t, errs, 7)
	assert.ErrorIs(t, errs[0], ErrVersionTooLow)

	var pe *PathError
	require.ErrorAs(t, errs[1], &pe)
	assert.Equal(t, "backup_base", pe.Field)
	assert.ErrorIs(t, pe, ErrInvalidPath)

	fields := map[string]bool{}
	for _, err := range errs[2:] {
		var ve *ValueError
		require.ErrorAs(t, err, &ve)
		fields[ve.Field] = true
	}
	assert.Equal(t, map[string]bool{
		"prefix":              true,
		"discovery.patterns":  true,
		"discovery.max_depth": true,
		"watch.debounce":      true,
		"history.keep":        true,
	}, fields)

	assert.Len(t, Validate(nil), 1)
}

func TestMarshal(t *testing.T) {
	cfg := Default()

	data, err := Marshal(cfg, FormatYAML)
	require.NoError(t, err)
	var fromYAML Config
	require.NoError(t, yaml.Unmarshal(data, &fromYAML))
	assert.Equal(t, cfg.Discovery, fromYAML.Discovery)

	data, err = Marshal(cfg, FormatTOML)
	require.NoError(t, err)
	var fromTOML Config
	require.NoError(t, toml.Unmarshal(data, &fromTOML))
	assert.Equal(t, cfg.History, fromTOML.History)

	_, err = Marshal(cfg, "xml")
	assert.True(t, errors.Is(err, errors.ErrInvalidArgument))
}

func TestWriteDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapkeep", "config.yaml")

	require.NoError(t, WriteDefault(path, false))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	assert.Error(t, WriteDefault(path, false))
	assert.NoError(t, WriteDefault(path, true))

	isolate(t)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Empty(t, Validate(cfg))
}

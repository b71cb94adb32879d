package commands

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/snapkeep/internal/errors"
	"github.com/thoreinstein/snapkeep/internal/history"
	"github.com/thoreinstein/snapkeep/internal/snapshot"
)

func TestBuildRequest_FlagsOverrideConfig(t *testing.T) {
	env := newTestEnv(t)

	req := buildRequest(env.cfg, nil, nil, nil)
	assert.Equal(t, env.cfg.Discovery.Roots, req.Roots)
	assert.Equal(t, []string{"*chat*"}, req.Patterns)
	assert.Equal(t, env.cfg.Discovery.MaxDepth, req.MaxDepth)

	req = buildRequest(env.cfg, []string{"/other"}, []string{"*x*"}, []string{".log"})
	assert.Equal(t, []string{"/other"}, req.Roots)
	assert.Equal(t, []string{"*x*"}, req.Patterns)
	assert.Equal(t, []string{".log"}, req.Extensions)
}

func TestCreateListRestore(t *testing.T) {
	env := newTestEnv(t)
	a := env.write(t, "augment/chat.json", `{"a":1}`)
	b := env.write(t, "augment/nested/old_chat.json", `{"b":2}`)
	env.write(t, "augment/readme.md", "ignored")

	var out bytes.Buffer
	req := buildRequest(env.cfg, nil, nil, nil)
	require.NoError(t, runCreateWithWriter(env.ctx, &out, env.cfg, req, false))
	assert.Contains(t, out.String(), "Created snapshot")
	assert.Contains(t, out.String(), "Captured 2 of 2 files")

	out.Reset()
	require.NoError(t, runListWithWriter(env.ctx, &out, env.cfg, true))

	var listed listOutput
	require.NoError(t, json.Unmarshal(out.Bytes(), &listed))
	require.Len(t, listed.Snapshots, 1)
	assert.Equal(t, 2, listed.Snapshots[0].Captured)
	assert.Equal(t, env.cfg.BackupBase, listed.BackupBase)

	require.NoError(t, os.WriteFile(a, []byte("wiped"), 0o600))
	require.NoError(t, os.Remove(b))

	out.Reset()
	require.NoError(t, runRestoreWithIO(env.ctx, strings.NewReader(""), &out, env.cfg, restoreOptions{ID: snapshot.Latest}))
	assert.Contains(t, out.String(), "Restored 2 files from snapshot "+listed.Snapshots[0].ID)
	assert.Equal(t, `{"a":1}`, readFile(t, a))
	assert.Equal(t, `{"b":2}`, readFile(t, b))

	out.Reset()
	require.NoError(t, runHistoryWithWriter(env.ctx, &out, env.cfg, 0, true))

	var events []history.Event
	require.NoError(t, json.Unmarshal(out.Bytes(), &events))
	require.Len(t, events, 2)
	assert.Equal(t, history.ActionRestore, events[0].Action)
	assert.Equal(t, history.ActionCreate, events[1].Action)
	assert.True(t, events[0].OK)
	assert.Equal(t, listed.Snapshots[0].ID, events[1].Subject)
}

func TestList_Empty(t *testing.T) {
	env := newTestEnv(t)

	var out bytes.Buffer
	require.NoError(t, runListWithWriter(env.ctx, &out, env.cfg, false))
	assert.Contains(t, out.String(), "No snapshots available")

	_, err := os.Stat(env.cfg.BackupBase)
	assert.True(t, os.IsNotExist(err), "listing must not create the backup base")

	out.Reset()
	require.NoError(t, runListWithWriter(env.ctx, &out, env.cfg, true))
	assert.Contains(t, out.String(), `"snapshots": []`)
}

func TestList_Tabular(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "chat.json", "{}")
	_, err := createSnapshot(env.ctx, env.cfg, buildRequest(env.cfg, nil, nil, nil))
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, runListWithWriter(env.ctx, &out, env.cfg, false))
	assert.Contains(t, out.String(), "ID")
	assert.Contains(t, out.String(), "CREATED")
	assert.Contains(t, out.String(), "2 B")
}

func TestCreate_NothingToSnapshot(t *testing.T) {
	env := newTestEnv(t)

	err := runCreateWithWriter(env.ctx, &bytes.Buffer{}, env.cfg, buildRequest(env.cfg, nil, nil, nil), false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, snapshot.ErrNothingToSnapshot))
	assert.Equal(t, errors.ExitUser, errors.CodeOf(err))
}

func TestRestore_UnknownID(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "chat.json", "{}")
	_, err := createSnapshot(env.ctx, env.cfg, buildRequest(env.cfg, nil, nil, nil))
	require.NoError(t, err)

	err = runRestoreWithIO(env.ctx, strings.NewReader(""), &bytes.Buffer{}, env.cfg, restoreOptions{ID: "20000101T000000"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, snapshot.ErrNotFound))
	assert.Equal(t, errors.ExitUser, errors.CodeOf(err))
}

func TestRestore_Interactive(t *testing.T) {
	env := newTestEnv(t)
	chat := env.write(t, "chat.json", "first")
	first, err := createSnapshot(env.ctx, env.cfg, buildRequest(env.cfg, nil, nil, nil))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(chat, []byte("second"), 0o600))
	_, err = createSnapshot(env.ctx, env.cfg, buildRequest(env.cfg, nil, nil, nil))
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(chat, []byte("current"), 0o600))

	t.Run("declined", func(t *testing.T) {
		var out bytes.Buffer
		opts := restoreOptions{Interactive: true}
		require.NoError(t, runRestoreWithIO(env.ctx, strings.NewReader("2\nn\n"), &out, env.cfg, opts))
		assert.Contains(t, out.String(), "Restore cancelled")
		assert.Equal(t, "current", readFile(t, chat))
	})

	t.Run("older snapshot confirmed", func(t *testing.T) {
		var out bytes.Buffer
		opts := restoreOptions{Interactive: true}
		require.NoError(t, runRestoreWithIO(env.ctx, strings.NewReader("2\ny\n"), &out, env.cfg, opts))
		assert.Contains(t, out.String(), "Available snapshots:")
		assert.Contains(t, out.String(), "Restored 1 files from snapshot "+first.ID)
		assert.Equal(t, "first", readFile(t, chat))
	})

	t.Run("yes skips confirmation", func(t *testing.T) {
		var out bytes.Buffer
		opts := restoreOptions{Interactive: true, Yes: true, JSON: true}
		require.NoError(t, runRestoreWithIO(env.ctx, strings.NewReader("\n"), &out, env.cfg, opts))

		// The selection prompt precedes the JSON document
		doc := out.String()[strings.Index(out.String(), "{"):]
		var res snapshot.RestoreResult
		require.NoError(t, json.Unmarshal([]byte(doc), &res))
		assert.Equal(t, 1, res.RestoredCount)
		assert.Equal(t, "second", readFile(t, chat))
	})

	t.Run("cancelled input", func(t *testing.T) {
		err := runRestoreWithIO(env.ctx, strings.NewReader(""), &bytes.Buffer{}, env.cfg, restoreOptions{Interactive: true})
		assert.Equal(t, errors.ExitUser, errors.CodeOf(err))
	})
}

func TestRestore_InteractiveWithoutSnapshots(t *testing.T) {
	env := newTestEnv(t)

	err := runRestoreWithIO(env.ctx, strings.NewReader("\n"), &bytes.Buffer{}, env.cfg, restoreOptions{Interactive: true})
	require.Error(t, err)
	assert.Equal(t, errors.ExitUser, errors.CodeOf(err))
	assert.Contains(t, errors.Summary(err), "snapkeep create-snapshot")
}

func TestSnapshotOnEvent(t *testing.T) {
	env := newTestEnv(t)
	env.write(t, "chat.json", "{}")

	var out bytes.Buffer
	handler := snapshotOnEvent(&out, env.cfg, buildRequest(env.cfg, nil, nil, nil))
	require.NoError(t, handler(env.ctx, triggerEvent(filepath.Join(env.src, "chat.json"))))
	assert.Contains(t, out.String(), "snapshot ")
	assert.Contains(t, out.String(), "(1 files, 0 failed)")

	entries, err := os.ReadDir(env.cfg.BackupBase)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestWatch_NoPaths(t *testing.T) {
	env := newTestEnv(t)

	err := runWatchWithWriter(env.ctx, &bytes.Buffer{}, env.cfg, 0)
	require.Error(t, err)
	assert.Equal(t, errors.ExitUser, errors.CodeOf(err))
}

func TestWatch_BadDebounce(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.Watch.Debounce = "soon"

	err := runWatchWithWriter(env.ctx, &bytes.Buffer{}, env.cfg, 0)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

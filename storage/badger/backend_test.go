package badger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/cartwise/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestOpenBackend_FileSystem(t *testing.T) {
	dir := t.TempDir() + "/logs"
	backend, err := OpenBackend(dir, false)
	require.NoError(t, err, "missing directories are created")
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true)
	require.NoError(t, err)

	require.NoError(t, backend.Close())
	assert.True(t, backend.IsClosed())

	err = backend.WithTx(func(tx *badger.Txn) error { return nil }, false)
	assert.ErrorIs(t, err, storage.ErrStorageClosed)
}

func TestOpenBackend_Errors(t *testing.T) {
	_, err := OpenBackend("", false)
	assert.ErrorIs(t, err, storage.ErrInvalidPath)

	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0644))
	_, err = OpenBackend(file, false)
	assert.ErrorIs(t, err, storage.ErrInvalidPath)
}

func TestBackend_CollectGarbage(t *testing.T) {
	backend, err := OpenBackend(t.TempDir(), false, WithSyncWrites(true), WithValueLogFileSize(1<<20))
	require.NoError(t, err)

	assert.NoError(t, backend.CollectGarbage(0.5))
	require.NoError(t, backend.Close())
	assert.ErrorIs(t, backend.CollectGarbage(0.5), storage.ErrStorageClosed)

	mem, err := OpenBackend("", true)
	require.NoError(t, err)
	defer mem.Close()
	assert.NoError(t, mem.CollectGarbage(0.5), "in-memory databases have no value log")
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	a := &slogAdapter{logger: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))}

	a.Infof("replaying %d files\n", 3)
	assert.Empty(t, buf.String(), "info is demoted to debug")

	a.Warningf("value log %s is %d%% stale\n", "000001.vlog", 60)
	assert.Contains(t, buf.String(), `msg="value log 000001.vlog is 60% stale"`)
}

package badger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenBackend_InMemory(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
	assert.NotNil(t, backend.logger)
}

func TestOpenBackend_FileSystem(t *testing.T) {
	tmpDir := filepath.Join(t.TempDir(), "nested", "cache")
	backend, err := OpenBackend(tmpDir, false, nil)
	require.NoError(t, err)
	require.NotNil(t, backend)
	defer backend.Close()

	assert.False(t, backend.IsClosed())
	assert.DirExists(t, tmpDir)
}

func TestOpenBackend_NotADirectory(t *testing.T) {
	tmpFile := filepath.Join(t.TempDir(), "file.txt")
	require.NoError(t, os.WriteFile(tmpFile, []byte("x"), 0o644))

	_, err := OpenBackend(tmpFile, false, nil)
	assert.Error(t, err)
}

func TestBackendClose(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	require.NotNil(t, backend)

	assert.False(t, backend.IsClosed())

	err = backend.Close()
	require.NoError(t, err)

	assert.True(t, backend.IsClosed())
}

func TestWithTx(t *testing.T) {
	backend, err := OpenBackend("", true, nil)
	require.NoError(t, err)
	defer backend.Close()

	key := []byte("k")

	t.Run("committed write is visible", func(t *testing.T) {
		err := backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set(key, []byte("v")); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		require.NoError(t, err)

		err = backend.WithTx(func(tx *badger.Txn) error {
			_, err := tx.Get(key)
			return err
		}, false)
		assert.NoError(t, err)
	})

	t.Run("failed transaction is discarded", func(t *testing.T) {
		other := []byte("other")
		err := backend.WithTx(func(tx *badger.Txn) error {
			if err := tx.Set(other, []byte("v")); err != nil {
				return err
			}
			return assert.AnError
		}, true)
		assert.Equal(t, assert.AnError, err)

		err = backend.WithTx(func(tx *badger.Txn) error {
			_, err := tx.Get(other)
			return err
		}, false)
		assert.ErrorIs(t, err, badger.ErrKeyNotFound)
	})
}

func TestCacheOptions(t *testing.T) {
	opts := cacheOptions("/tmp/cache", false, nil)
	assert.Equal(t, "/tmp/cache", opts.Dir)
	assert.Equal(t, 1, opts.NumVersionsToKeep)
	assert.False(t, opts.SyncWrites)
	assert.False(t, opts.InMemory)

	mem := cacheOptions("/ignored", true, nil)
	assert.True(t, mem.InMemory)
	assert.Empty(t, mem.Dir)
}

func TestBackendClose_FileSystemReopens(t *testing.T) {
	dir := t.TempDir()
	backend, err := OpenBackend(dir, false, nil)
	require.NoError(t, err)
	require.NoError(t, backend.WithTx(func(tx *badger.Txn) error {
		if err := tx.Set([]byte("k"), []byte("v")); err != nil {
			return err
		}
		return tx.Commit()
	}, true))
	require.NoError(t, backend.Close())

	reopened, err := OpenBackend(dir, false, nil)
	require.NoError(t, err)
	defer reopened.Close()
	assert.NoError(t, reopened.WithTx(func(tx *badger.Txn) error {
		_, err := tx.Get([]byte("k"))
		return err
	}, false))
}

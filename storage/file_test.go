package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuschain/transcript-ledger-backend/interfaces"
)

func TestFileBackend_StoreAndFetch(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	ctx := context.Background()
	data := []byte("signed transcript PDF bytes")

	id, err := backend.Store(ctx, data, interfaces.TranscriptType)
	require.NoError(t, err)
	assert.Equal(t, interfaces.ComputeID(data), id)

	got, err := backend.Fetch(ctx, id, interfaces.TranscriptType)
	require.NoError(t, err)
	assert.Equal(t, data, got)

	// Content types are namespaced, so the same ID is absent under the
	// other type.
	_, err = backend.Fetch(ctx, id, interfaces.AttendanceType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestFileBackend_FetchMissing(t *testing.T) {
	backend, err := NewFileBackend(t.TempDir(), testLogger())
	require.NoError(t, err)

	id := interfaces.ComputeID([]byte("never stored"))
	_, err = backend.Fetch(context.Background(), id, interfaces.TranscriptType)
	assert.ErrorIs(t, err, interfaces.ErrContentNotFound)
}

func TestFileBackend_Available(t *testing.T) {
	dir := t.TempDir()
	backend, err := NewFileBackend(dir, testLogger())
	require.NoError(t, err)

	assert.True(t, backend.Available(context.Background()))
}

func TestStorageBackendFactory(t *testing.T) {
	factory := NewStorageBackendFactory(testLogger())

	t.Run("file scheme", func(t *testing.T) {
		backend, err := factory.StorageBackendFor("file://" + t.TempDir())
		require.NoError(t, err)
		assert.IsType(t, &FileBackend{}, backend)
	})

	t.Run("ipfs scheme", func(t *testing.T) {
		backend, err := factory.StorageBackendFor("ipfs://127.0.0.1:5001/?timeout=5s")
		require.NoError(t, err)
		assert.IsType(t, &IPFSBackend{}, backend)
	})

	t.Run("s3 scheme", func(t *testing.T) {
		backend, err := factory.StorageBackendFor("s3://bucket/attachments/?region=eu-west-1")
		require.NoError(t, err)
		assert.IsType(t, &S3Backend{}, backend)
	})

	t.Run("vault scheme", func(t *testing.T) {
		backend, err := factory.StorageBackendFor("vault://vault.local:8200/secret/ledger?scheme=http")
		require.NoError(t, err)
		assert.IsType(t, &VaultBackend{}, backend)
	})

	t.Run("vault scheme missing path", func(t *testing.T) {
		_, err := factory.StorageBackendFor("vault://vault.local:8200/secret")
		assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
	})

	t.Run("unsupported scheme", func(t *testing.T) {
		_, err := factory.StorageBackendFor("gopher://example.com/thing")
		assert.ErrorIs(t, err, interfaces.ErrInvalidLocationURI)
	})

	t.Run("multi backend skips bad URIs", func(t *testing.T) {
		backend, err := factory.CreateMultiBackend([]string{
			"gopher://bad",
			"file://" + t.TempDir(),
		})
		require.NoError(t, err)
		assert.True(t, backend.Available(context.Background()))
	})

	t.Run("multi backend fails with no valid URIs", func(t *testing.T) {
		_, err := factory.CreateMultiBackend([]string{"gopher://bad"})
		assert.Error(t, err)
	})
}

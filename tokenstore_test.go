package cosynight

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileTokenStore(t *testing.T) {
	ctx := context.Background()

	t.Run("round trip", func(t *testing.T) {
		store := NewFileTokenStore(filepath.Join(t.TempDir(), "nested", "dir", "token.json"))

		want := validToken()
		require.NoError(t, store.SaveToken(ctx, want))
		assert.True(t, store.Exists())

		got, err := store.LoadToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	})

	t.Run("file permissions", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		store := NewFileTokenStore(path)
		require.NoError(t, store.SaveToken(ctx, validToken()))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
		assert.NoFileExists(t, path+".tmp")
	})

	t.Run("overwrite replaces whole record", func(t *testing.T) {
		store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
		require.NoError(t, store.SaveToken(ctx, staleToken()))
		require.NoError(t, store.SaveToken(ctx, validToken()))

		got, err := store.LoadToken(ctx)
		require.NoError(t, err)
		assert.Equal(t, validToken(), got)
	})

	t.Run("missing file is ErrNoToken", func(t *testing.T) {
		store := NewFileTokenStore(filepath.Join(t.TempDir(), "nope.json"))
		_, err := store.LoadToken(ctx)
		assert.ErrorIs(t, err, ErrNoToken)
		assert.False(t, store.Exists())
	})

	t.Run("corrupt file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"access_token":"half`), 0600))

		_, err := NewFileTokenStore(path).LoadToken(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrNoToken)
	})

	t.Run("corrupt file loads as unauthenticated", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "token.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"access_token":"half`), 0600))

		client := newTestClient(t, NewFileTokenStore(path), newFakeTransport())
		assert.Equal(t, Unauthenticated, client.State())
	})

	t.Run("delete", func(t *testing.T) {
		store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
		require.NoError(t, store.SaveToken(ctx, validToken()))
		require.NoError(t, store.Delete(ctx))
		require.NoError(t, store.Delete(ctx))
		assert.False(t, store.Exists())
	})

	t.Run("nil token", func(t *testing.T) {
		store := NewFileTokenStore(filepath.Join(t.TempDir(), "token.json"))
		assert.Error(t, store.SaveToken(ctx, nil))
	})
}

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()

	store := NewMemoryTokenStore(nil)
	_, err := store.LoadToken(ctx)
	assert.ErrorIs(t, err, ErrNoToken)

	tok := validToken()
	require.NoError(t, store.SaveToken(ctx, tok))
	tok.AccessToken = "mutated"

	got, err := store.LoadToken(ctx)
	require.NoError(t, err)
	assert.Equal(t, "valid-access", got.AccessToken, "store keeps its own copy")
	assert.Equal(t, 1, store.Saves())

	require.NoError(t, store.Delete(ctx))
	_, err = store.LoadToken(ctx)
	assert.ErrorIs(t, err, ErrNoToken)
}

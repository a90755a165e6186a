// Package kvtest holds behavior tests shared by every KeyValueStore implementation.
package kvtest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/ports"
)

// Run exercises store against the KeyValueStore contract.
func Run(t *testing.T, store ports.KeyValueStore) {
	t.Helper()
	ctx := context.Background()

	t.Run("missing key", func(t *testing.T) {
		v, ok, err := store.Get(ctx, "echo-verse-playlists-nobody")
		require.NoError(t, err)
		assert.False(t, ok)
		assert.Empty(t, v)
	})

	t.Run("set get overwrite", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k1", `[{"id":"p1"}]`))
		v, ok, err := store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `[{"id":"p1"}]`, v)

		require.NoError(t, store.Set(ctx, "k1", "[]"))
		v, _, err = store.Get(ctx, "k1")
		require.NoError(t, err)
		assert.Equal(t, "[]", v)
	})

	t.Run("empty value is present", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k-empty", ""))
		_, ok, err := store.Get(ctx, "k-empty")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "k2", "v"))
		require.NoError(t, store.Delete(ctx, "k2"))
		require.NoError(t, store.Delete(ctx, "k2"), "deleting an absent key is not an error")
		_, ok, err := store.Get(ctx, "k2")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("keys are independent", func(t *testing.T) {
		require.NoError(t, store.Set(ctx, "echo-verse-playlists-alice", "a"))
		require.NoError(t, store.Set(ctx, "echo-verse-playlists-bob", "b"))
		a, _, err := store.Get(ctx, "echo-verse-playlists-alice")
		require.NoError(t, err)
		b, _, err := store.Get(ctx, "echo-verse-playlists-bob")
		require.NoError(t, err)
		assert.Equal(t, "a", a)
		assert.Equal(t, "b", b)
	})

	t.Run("cancelled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		assert.Error(t, store.Set(cctx, "k3", "v"))
	})
}

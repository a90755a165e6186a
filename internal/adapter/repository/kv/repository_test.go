package kv

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/adapter/kv/memory"
	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/logger"
	"github.com/echoverse/echoverse/internal/ports"
)

func TestPlaylistRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repo := NewPlaylistRepository(store, logger.NewTestLogger())

	empty, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	created := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	playlists := []domain.Playlist{{
		ID:        "p1",
		Name:      "Road trip",
		UserID:    "alice",
		Tracks:    []domain.Track{{ID: "song1", Title: "Midnight Serenade", Duration: 237 * time.Second}},
		CreatedAt: created,
		UpdatedAt: created,
	}}
	require.NoError(t, repo.Save(ctx, "alice", playlists))

	raw, ok, err := store.Get(ctx, "echo-verse-playlists-alice")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, raw, `"songs":[`)

	loaded, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, playlists, loaded)

	other, err := repo.Load(ctx, "bob")
	require.NoError(t, err)
	assert.Empty(t, other, "collections are per user")
}

func TestPlaylistRepository_NilTracksNormalized(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, PlaylistKey("guest-user"), `[{"id":"p1","name":"x"}]`))

	loaded, err := NewPlaylistRepository(store, logger.NewTestLogger()).Load(ctx, "guest-user")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.NotNil(t, loaded[0].Tracks)
}

func TestPlaylistRepository_Corrupt(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	require.NoError(t, store.Set(ctx, PlaylistKey("alice"), "{not json"))

	_, err := NewPlaylistRepository(store, logger.NewTestLogger()).Load(ctx, "alice")
	var repoErr *domain.RepositoryError
	require.ErrorAs(t, err, &repoErr)
	assert.Equal(t, "load", repoErr.Op)
}

func TestPlaylistRepository_SaveNil(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repo := NewPlaylistRepository(store, logger.NewTestLogger())

	require.NoError(t, repo.Save(ctx, "alice", nil))
	raw, _, err := store.Get(ctx, PlaylistKey("alice"))
	require.NoError(t, err)
	assert.Equal(t, "[]", raw)
}

func TestPreferencesRepository(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repo := NewPreferencesRepository(store)

	prefs, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ports.DefaultPreferences(), prefs)

	prefs.SidebarCollapsed = true
	prefs.Volume = 0.3
	prefs.Repeat = "one"
	require.NoError(t, repo.Save(ctx, "alice", prefs))

	loaded, err := repo.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, prefs, loaded)

	require.NoError(t, repo.Clear(ctx, "alice"))
	loaded, err = repo.Load(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, ports.DefaultPreferences(), loaded)
}

func TestPreferencesRepository_PartialAndInvalid(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repo := NewPreferencesRepository(store)

	require.NoError(t, store.Set(ctx, PreferencesKeyPrefix+"a", `{"sidebarCollapsed":true}`))
	prefs, err := repo.Load(ctx, "a")
	require.NoError(t, err)
	assert.True(t, prefs.SidebarCollapsed)
	assert.Equal(t, 0.5, prefs.Volume)

	require.NoError(t, store.Set(ctx, PreferencesKeyPrefix+"b", `{"volume":7}`))
	prefs, err = repo.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, 0.5, prefs.Volume)

	require.NoError(t, store.Set(ctx, PreferencesKeyPrefix+"c", `[`))
	_, err = repo.Load(ctx, "c")
	assert.Error(t, err)
}

// Package kv implements the typed repositories on top of a ports.KeyValueStore.
// Records are stored as JSON strings.
package kv

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// PlaylistKeyPrefix prefixes the user identity in playlist collection keys.
const PlaylistKeyPrefix = "echo-verse-playlists-"

// PlaylistKey returns the storage key of userID's playlist collection.
func PlaylistKey(userID string) string {
	return PlaylistKeyPrefix + userID
}

// PlaylistRepository implements ports.PlaylistRepository.
// Each user's whole collection is one JSON array under PlaylistKey(user).
type PlaylistRepository struct {
	store  ports.KeyValueStore
	logger *slog.Logger
}

// NewPlaylistRepository creates a new playlist repository.
func NewPlaylistRepository(store ports.KeyValueStore, logger *slog.Logger) *PlaylistRepository {
	return &PlaylistRepository{
		store:  store,
		logger: logger.With(slog.String("repository", "playlist")),
	}
}

// Load implements ports.PlaylistRepository.
func (r *PlaylistRepository) Load(ctx context.Context, userID string) ([]domain.Playlist, error) {
	data, ok, err := r.store.Get(ctx, PlaylistKey(userID))
	if err != nil {
		return nil, domain.NewRepositoryError("load", "playlist", "failed to read collection", err)
	}
	if !ok || data == "" {
		return []domain.Playlist{}, nil
	}

	var playlists []domain.Playlist
	if err := json.Unmarshal([]byte(data), &playlists); err != nil {
		return nil, domain.NewRepositoryError("load", "playlist", "failed to unmarshal collection", err)
	}
	for i := range playlists {
		if playlists[i].Tracks == nil {
			playlists[i].Tracks = []domain.Track{}
		}
	}

	r.logger.Debug("collection loaded", slog.String("user_id", userID), slog.Int("count", len(playlists)))
	return playlists, nil
}

// Save implements ports.PlaylistRepository.
func (r *PlaylistRepository) Save(ctx context.Context, userID string, playlists []domain.Playlist) error {
	if playlists == nil {
		playlists = []domain.Playlist{}
	}
	data, err := json.Marshal(playlists)
	if err != nil {
		return domain.NewRepositoryError("save", "playlist", "failed to marshal collection", err)
	}
	if err := r.store.Set(ctx, PlaylistKey(userID), string(data)); err != nil {
		return domain.NewRepositoryError("save", "playlist", "failed to write collection", err)
	}
	return nil
}

var _ ports.PlaylistRepository = (*PlaylistRepository)(nil)

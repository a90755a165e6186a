package service

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// PlaylistOption configures a PlaylistService.
type PlaylistOption func(*PlaylistService)

// WithPlaylistClock replaces the timestamp source.
func WithPlaylistClock(now func() time.Time) PlaylistOption {
	return func(s *PlaylistService) { s.now = now }
}

// WithPlaylistIDs replaces the playlist id generator.
func WithPlaylistIDs(newID func() string) PlaylistOption {
	return func(s *PlaylistService) { s.newID = newID }
}

// PlaylistService is the per-user playlist collection.
// The in-memory collection is authoritative; every mutation writes the whole
// collection through to the repository on a best-effort basis.
// All operations are thread-safe via sync.RWMutex.
type PlaylistService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PlaylistRepository
	bus        ports.EventBus
	now        func() time.Time
	newID      func() string

	// State
	userID    string
	playlists []domain.Playlist

	// Concurrency control
	mu sync.RWMutex
}

// NewPlaylistService creates a playlist service with an empty guest session.
func NewPlaylistService(
	logger *slog.Logger,
	repository ports.PlaylistRepository,
	bus ports.EventBus,
	opts ...PlaylistOption,
) *PlaylistService {
	s := &PlaylistService{
		logger:     logger.With(slog.String("service", "playlist")),
		repository: repository,
		bus:        bus,
		now:        time.Now,
		newID:      uuid.NewString,
		userID:     domain.GuestIdentity,
		playlists:  []domain.Playlist{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OpenSession switches the collection to user's (guest when nil) and reads it
// from the repository. A failed read starts the session empty.
func (s *PlaylistService) OpenSession(ctx context.Context, user *domain.User) {
	userID := user.StorageKey()

	playlists, err := s.repository.Load(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load playlists, starting empty",
			slog.String("user_id", userID), slog.Any("error", err))
		playlists = nil
	}
	if playlists == nil {
		playlists = []domain.Playlist{}
	}

	s.mu.Lock()
	s.userID = userID
	s.playlists = playlists
	count := len(playlists)
	s.mu.Unlock()

	s.logger.Info("playlist session opened", slog.String("user_id", userID), slog.Int("playlists", count))
	s.bus.Publish(domain.NewPlaylistChangedEvent(domain.PlaylistsLoaded, domain.Playlist{UserID: userID}, nil))
}

// UserID returns the storage identity of the open session.
func (s *PlaylistService) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// List returns a copy of every playlist in creation order.
func (s *PlaylistService) List() []domain.Playlist {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.Playlist, len(s.playlists))
	for i, p := range s.playlists {
		out[i] = p.Clone()
	}
	return out
}

// Get returns a copy of the playlist with the given id.
func (s *PlaylistService) Get(id string) (domain.Playlist, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i := s.indexLocked(id)
	if i < 0 {
		return domain.Playlist{}, domain.NewNotFoundError("playlist", id)
	}
	return s.playlists[i].Clone(), nil
}

// Create adds a new empty playlist.
func (s *PlaylistService) Create(ctx context.Context, name, description string) (domain.Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return domain.Playlist{}, domain.NewValidationError("name", name, "playlist name cannot be empty")
	}

	s.mu.Lock()
	now := s.now()
	playlist := domain.Playlist{
		ID:          s.newID(),
		Name:        name,
		Description: strings.TrimSpace(description),
		Tracks:      []domain.Track{},
		UserID:      s.userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	s.playlists = append(s.playlists, playlist)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.Info("playlist created", slog.String("playlist_id", playlist.ID), slog.String("name", name))
	s.bus.Publish(domain.NewPlaylistChangedEvent(domain.PlaylistCreated, playlist.Clone(), nil))
	return playlist.Clone(), nil
}

// Update merges patch into the playlist and bumps UpdatedAt.
func (s *PlaylistService) Update(ctx context.Context, id string, patch domain.PlaylistPatch) (domain.Playlist, error) {
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return domain.Playlist{}, domain.NewValidationError("name", *patch.Name, "playlist name cannot be empty")
	}

	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.Playlist{}, domain.NewNotFoundError("playlist", id)
	}

	p := &s.playlists[i]
	if patch.Name != nil {
		p.Name = strings.TrimSpace(*patch.Name)
	}
	if patch.Description != nil {
		p.Description = strings.TrimSpace(*patch.Description)
	}
	if patch.CoverLocator != nil {
		p.CoverLocator = *patch.CoverLocator
	}
	p.UpdatedAt = s.now()
	updated := p.Clone()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaylistChangedEvent(domain.PlaylistUpdated, updated.Clone(), nil))
	return updated, nil
}

// Delete removes the playlist with the given id.
func (s *PlaylistService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	i := s.indexLocked(id)
	if i < 0 {
		s.mu.Unlock()
		return domain.NewNotFoundError("playlist", id)
	}

	removed := s.playlists[i]
	s.playlists = append(s.playlists[:i:i], s.playlists[i+1:]...)
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.logger.Info("playlist deleted", slog.String("playlist_id", id))
	s.bus.Publish(domain.NewPlaylistChangedEvent(domain.PlaylistDeleted, removed, nil))
	return nil
}

// AddTrack appends track to the playlist. A track whose id is already present
// is left alone and reported with added=false and a nil error.
func (s *PlaylistService) AddTrack(ctx context.Context, playlistID string, track domain.Track) (bool, error) {
	s.mu.Lock()
	i := s.indexLocked(playlistID)
	if i < 0 {
		s.mu.Unlock()
		return false, domain.NewNotFoundError("playlist", playlistID)
	}

	p := &s.playlists[i]
	if p.IndexOfTrack(track.ID) >= 0 {
		snapshot := p.Clone()
		s.mu.Unlock()

		s.logger.Debug("track already in playlist",
			slog.String("playlist_id", playlistID), slog.String("track_id", track.ID))
		s.bus.Publish(domain.NewPlaylistChangedEvent(domain.PlaylistTrackExists, snapshot, &track))
		return false, nil
	}

	p.Tracks = append(p.Tracks, track)
	p.UpdatedAt = s.now()
	snapshot := p.Clone()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaylistChangedEvent(domain.PlaylistTrackAdded, snapshot, &track))
	return true, nil
}

// RemoveTrack removes the first track with trackID from the playlist.
func (s *PlaylistService) RemoveTrack(ctx context.Context, playlistID, trackID string) error {
	s.mu.Lock()
	i := s.indexLocked(playlistID)
	if i < 0 {
		s.mu.Unlock()
		return domain.NewNotFoundError("playlist", playlistID)
	}

	p := &s.playlists[i]
	j := p.IndexOfTrack(trackID)
	if j < 0 {
		s.mu.Unlock()
		return domain.NewNotFoundError("track", trackID)
	}

	track := p.Tracks[j]
	p.Tracks = append(p.Tracks[:j:j], p.Tracks[j+1:]...)
	p.UpdatedAt = s.now()
	snapshot := p.Clone()
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.bus.Publish(domain.NewPlaylistChangedEvent(domain.PlaylistTrackRemoved, snapshot, &track))
	return nil
}

func (s *PlaylistService) indexLocked(id string) int {
	for i, p := range s.playlists {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// persistLocked writes the whole collection. Failures are logged only.
func (s *PlaylistService) persistLocked(ctx context.Context) {
	if err := s.repository.Save(ctx, s.userID, s.playlists); err != nil {
		s.logger.Warn("failed to persist playlists",
			slog.String("user_id", s.userID), slog.Any("error", err))
	}
}

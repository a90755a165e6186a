package kv

import (
	"context"
	"encoding/json"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// PreferencesKeyPrefix prefixes the user identity in preference keys.
const PreferencesKeyPrefix = "echo-verse-preferences-"

// PreferencesRepository implements ports.PreferencesRepository.
type PreferencesRepository struct {
	store ports.KeyValueStore
}

// NewPreferencesRepository creates a new preferences repository.
func NewPreferencesRepository(store ports.KeyValueStore) *PreferencesRepository {
	return &PreferencesRepository{store: store}
}

// Load implements ports.PreferencesRepository.
// Fields missing from a stored record keep their defaults.
func (r *PreferencesRepository) Load(ctx context.Context, userID string) (ports.Preferences, error) {
	prefs := ports.DefaultPreferences()

	data, ok, err := r.store.Get(ctx, PreferencesKeyPrefix+userID)
	if err != nil {
		return prefs, domain.NewRepositoryError("load", "preferences", "failed to read preferences", err)
	}
	if !ok || data == "" {
		return prefs, nil
	}
	if err := json.Unmarshal([]byte(data), &prefs); err != nil {
		return ports.DefaultPreferences(), domain.NewRepositoryError("load", "preferences", "failed to unmarshal preferences", err)
	}
	if prefs.Volume < 0 || prefs.Volume > 1 {
		prefs.Volume = ports.DefaultPreferences().Volume
	}
	return prefs, nil
}

// Save implements ports.PreferencesRepository.
func (r *PreferencesRepository) Save(ctx context.Context, userID string, prefs ports.Preferences) error {
	data, err := json.Marshal(prefs)
	if err != nil {
		return domain.NewRepositoryError("save", "preferences", "failed to marshal preferences", err)
	}
	if err := r.store.Set(ctx, PreferencesKeyPrefix+userID, string(data)); err != nil {
		return domain.NewRepositoryError("save", "preferences", "failed to write preferences", err)
	}
	return nil
}

// Clear implements ports.PreferencesRepository.
func (r *PreferencesRepository) Clear(ctx context.Context, userID string) error {
	if err := r.store.Delete(ctx, PreferencesKeyPrefix+userID); err != nil {
		return domain.NewRepositoryError("clear", "preferences", "failed to delete preferences", err)
	}
	return nil
}

var _ ports.PreferencesRepository = (*PreferencesRepository)(nil)

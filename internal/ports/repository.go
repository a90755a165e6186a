// Package ports define repository interfaces for data persistence abstraction.
// These interfaces enable the repository pattern and allow swapping persistence mechanisms.
package ports

import (
	"context"

	"github.com/echoverse/echoverse/internal/domain"
)

// KeyValueStore is the raw string key-value storage the repositories build on.
// Memory, SQLite and Redis implementations exist.
//
// Thread-safety: Implementations must be thread-safe.
type KeyValueStore interface {
	// Get returns the value stored under key. ok is false if the key is absent.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying connection.
	Close() error
}

// PlaylistRepository persists a user's whole playlist collection.
// The collection is stored as one JSON array keyed by the user's storage identity.
//
// Thread-safety: Implementations must be thread-safe.
type PlaylistRepository interface {
	// Load returns the saved collection for userID.
	// A user with nothing saved gets an empty slice, not an error.
	Load(ctx context.Context, userID string) ([]domain.Playlist, error)

	// Save replaces the collection stored for userID.
	Save(ctx context.Context, userID string, playlists []domain.Playlist) error
}

// Preferences is the per-user settings record.
type Preferences struct {
	SidebarCollapsed bool    `json:"sidebarCollapsed"`
	Volume           float64 `json:"volume"`
	Muted            bool    `json:"muted"`
	Repeat           string  `json:"repeat,omitempty"`
}

// DefaultPreferences returns the settings of a user who never saved any.
func DefaultPreferences() Preferences {
	return Preferences{
		Volume: 0.5,
		Repeat: domain.RepeatAll.String(),
	}
}

// PreferencesRepository handles the persistence of user preferences.
//
// Thread-safety: Implementations must be thread-safe.
type PreferencesRepository interface {
	// Load returns the saved preferences for userID, or DefaultPreferences if none were saved.
	Load(ctx context.Context, userID string) (Preferences, error)

	// Save persists the preferences for userID.
	Save(ctx context.Context, userID string, prefs Preferences) error

	// Clear removes the saved preferences for userID.
	Clear(ctx context.Context, userID string) error
}

// AuthProvider authenticates users. Two variants exist: a mock that accepts
// anything and a signed-token provider. The variant is chosen at startup.
type AuthProvider interface {
	// LoginWithEmail authenticates by email address.
	LoginWithEmail(ctx context.Context, email string) (*domain.User, error)

	// LoginWithWallet authenticates by wallet connection.
	LoginWithWallet(ctx context.Context, wallet domain.Wallet) (*domain.User, error)

	// Logout ends the provider session of user.
	Logout(ctx context.Context, user *domain.User) error

	// Name returns the provider variant name.
	Name() string
}

// TokenIssuer is implemented by auth providers that hand out bearer tokens.
type TokenIssuer interface {
	// Issue returns a signed token for user.
	Issue(user *domain.User) (string, error)

	// Verify parses a token and returns the user it was issued for.
	Verify(token string) (*domain.User, error)
}

package service

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// SessionHook runs after the signed-in user changes. user is nil for a guest.
type SessionHook func(ctx context.Context, user *domain.User)

// SessionService tracks the signed-in user and switches per-user state
// (playlists, preferences) when it changes.
type SessionService struct {
	logger   *slog.Logger
	provider ports.AuthProvider
	bus      ports.EventBus
	hooks    []SessionHook

	mu    sync.RWMutex
	user  *domain.User
	token string
}

// NewSessionService creates a guest session.
func NewSessionService(
	logger *slog.Logger,
	provider ports.AuthProvider,
	bus ports.EventBus,
	hooks ...SessionHook,
) *SessionService {
	return &SessionService{
		logger:   logger.With(slog.String("service", "session"), slog.String("provider", provider.Name())),
		provider: provider,
		bus:      bus,
		hooks:    hooks,
	}
}

// Provider returns the active auth provider.
func (s *SessionService) Provider() ports.AuthProvider { return s.provider }

// Login signs in by email.
func (s *SessionService) Login(ctx context.Context, email string) (*domain.User, error) {
	user, err := s.provider.LoginWithEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	return s.switchTo(ctx, user)
}

// LoginWithWallet signs in by wallet connection.
func (s *SessionService) LoginWithWallet(ctx context.Context, wallet domain.Wallet) (*domain.User, error) {
	user, err := s.provider.LoginWithWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	return s.switchTo(ctx, user)
}

// Logout ends the session and falls back to the guest identity.
func (s *SessionService) Logout(ctx context.Context) error {
	s.mu.RLock()
	user := s.user
	s.mu.RUnlock()
	if user == nil {
		return nil
	}

	if err := s.provider.Logout(ctx, user); err != nil {
		return err
	}
	_, err := s.switchTo(ctx, nil)
	return err
}

// User returns a copy of the signed-in user, or nil for a guest.
func (s *SessionService) User() *domain.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return copyUser(s.user)
}

// Token returns the bearer token of the session, if the provider issues them.
func (s *SessionService) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// Authenticated reports whether a user is signed in.
func (s *SessionService) Authenticated() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user != nil
}

// StorageKey returns the identity persisted data is keyed by.
func (s *SessionService) StorageKey() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user.StorageKey()
}

// UpdateProfile changes the display name and email. Empty values clear them.
func (s *SessionService) UpdateProfile(ctx context.Context, displayName, email string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email != "" && !strings.Contains(email, "@") {
		return nil, domain.NewValidationError("email", email, "must be an email address")
	}

	return s.modify(func(u *domain.User) bool {
		u.DisplayName = strings.TrimSpace(displayName)
		u.Email = email
		u.EmailVerified = email != ""
		return true
	})
}

// LinkWallet attaches a wallet to the user and makes it the primary one.
func (s *SessionService) LinkWallet(ctx context.Context, wallet domain.Wallet) (*domain.User, error) {
	if strings.TrimSpace(wallet.Address) == "" {
		return nil, domain.NewValidationError("address", wallet.Address, "wallet address cannot be empty")
	}
	if wallet.ChainID == "" {
		wallet.ChainID = "1"
	}
	if wallet.Connector == "" {
		wallet.Connector = "metamask"
	}

	return s.modify(func(u *domain.User) bool {
		w := wallet
		u.Wallet = &w
		if !slices.ContainsFunc(u.LinkedWallets, func(l domain.Wallet) bool {
			return strings.EqualFold(l.Address, wallet.Address)
		}) {
			u.LinkedWallets = append(u.LinkedWallets, wallet)
		}
		return true
	})
}

// UnlinkWallet detaches a wallet. The primary wallet falls back to the next linked one.
func (s *SessionService) UnlinkWallet(ctx context.Context, address string) (*domain.User, error) {
	return s.modify(func(u *domain.User) bool {
		before := len(u.LinkedWallets)
		u.LinkedWallets = slices.DeleteFunc(u.LinkedWallets, func(l domain.Wallet) bool {
			return strings.EqualFold(l.Address, address)
		})
		if u.Wallet != nil && strings.EqualFold(u.Wallet.Address, address) {
			u.Wallet = nil
			if len(u.LinkedWallets) > 0 {
				w := u.LinkedWallets[0]
				u.Wallet = &w
			}
		}
		return len(u.LinkedWallets) != before
	})
}

// modify edits the signed-in user in place. Storage identity is the user id,
// so profile edits never move persisted data.
func (s *SessionService) modify(edit func(u *domain.User) bool) (*domain.User, error) {
	s.mu.Lock()
	if s.user == nil {
		s.mu.Unlock()
		return nil, domain.ErrNotAuthenticated
	}
	updated := copyUser(s.user)
	if !edit(updated) {
		s.mu.Unlock()
		return copyUser(updated), nil
	}
	s.user = updated
	snapshot := copyUser(updated)
	s.mu.Unlock()

	s.logger.Info("profile updated", slog.String("user", snapshot.DisplayIdentifier()))
	s.bus.Publish(domain.NewSessionChangedEvent(copyUser(snapshot)))
	return snapshot, nil
}

func (s *SessionService) switchTo(ctx context.Context, user *domain.User) (*domain.User, error) {
	var token string
	if issuer, ok := s.provider.(ports.TokenIssuer); ok && user != nil {
		t, err := issuer.Issue(user)
		if err != nil {
			return nil, err
		}
		token = t
	}

	s.mu.Lock()
	previous := s.user.StorageKey()
	s.user = copyUser(user)
	s.token = token
	s.mu.Unlock()

	s.logger.Info("session changed",
		slog.String("user", user.DisplayIdentifier()),
		slog.String("storage_key", user.StorageKey()))

	if previous != user.StorageKey() {
		for _, hook := range s.hooks {
			hook(ctx, copyUser(user))
		}
	}
	s.bus.Publish(domain.NewSessionChangedEvent(copyUser(user)))
	return copyUser(user), nil
}

func copyUser(u *domain.User) *domain.User {
	if u == nil {
		return nil
	}
	c := *u
	if u.Wallet != nil {
		w := *u.Wallet
		c.Wallet = &w
	}
	c.LinkedWallets = slices.Clone(u.LinkedWallets)
	return &c
}

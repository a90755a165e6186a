package auth

import (
	"context"
	"log/slog"
	"strings"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// Identity handed out by the mock provider.
const (
	MockUserID        = "mock-user-id"
	MockEmail         = "mock@example.com"
	MockWalletAddress = "0x1234567890abcdef1234567890abcdef12345678"
)

// Mock accepts every login.
type Mock struct {
	logger *slog.Logger
}

// NewMock creates the mock provider.
func NewMock(logger *slog.Logger) *Mock {
	return &Mock{logger: logger.With(slog.String("component", "auth"), slog.String("provider", ProviderMock))}
}

// Name implements ports.AuthProvider.
func (m *Mock) Name() string { return ProviderMock }

// LoginWithEmail implements ports.AuthProvider. An empty email logs in as the mock address.
func (m *Mock) LoginWithEmail(ctx context.Context, email string) (*domain.User, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		email = MockEmail
	}
	m.logger.Info("mock email login", slog.String("email", email))
	return &domain.User{
		ID:            MockUserID,
		Email:         email,
		DisplayName:   "Mock User",
		EmailVerified: true,
	}, nil
}

// LoginWithWallet implements ports.AuthProvider. An empty address logs in with the mock wallet.
func (m *Mock) LoginWithWallet(ctx context.Context, wallet domain.Wallet) (*domain.User, error) {
	if strings.TrimSpace(wallet.Address) == "" {
		wallet.Address = MockWalletAddress
	}
	wallet = normalizeWallet(wallet)
	m.logger.Info("mock wallet login", slog.String("address", wallet.Address))
	return &domain.User{
		ID:            MockUserID,
		DisplayName:   "Wallet User",
		Wallet:        &wallet,
		LinkedWallets: []domain.Wallet{wallet},
	}, nil
}

// Logout implements ports.AuthProvider.
func (m *Mock) Logout(ctx context.Context, user *domain.User) error {
	m.logger.Info("mock logout", slog.String("user", user.DisplayIdentifier()))
	return nil
}

var _ ports.AuthProvider = (*Mock)(nil)

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// TokenConfig configures the token provider.
type TokenConfig struct {
	Secret string
	Issuer string
	TTL    time.Duration

	// Now overrides the clock, for tests.
	Now func() time.Time
}

// userNamespace derives stable user ids from login identifiers.
var userNamespace = uuid.MustParse("6f1d1a52-4a3c-4f0e-9a43-2c1b8f6d9e77")

type claims struct {
	Email       string         `json:"email,omitempty"`
	DisplayName string         `json:"name,omitempty"`
	Wallet      *domain.Wallet `json:"wallet,omitempty"`
	jwt.RegisteredClaims
}

// Token authenticates by email or wallet and issues HS256 tokens.
// User ids are derived from the identifier so a returning user keeps their data.
type Token struct {
	logger *slog.Logger
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	issued  map[string][]string // user id -> token ids
	revoked map[string]struct{}
}

// NewToken creates the token provider.
func NewToken(logger *slog.Logger, cfg TokenConfig) (*Token, error) {
	if len(cfg.Secret) < 16 {
		return nil, errors.New("auth token secret must be at least 16 bytes")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "echoverse"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 24 * time.Hour
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Token{
		logger:  logger.With(slog.String("component", "auth"), slog.String("provider", ProviderToken)),
		secret:  []byte(cfg.Secret),
		issuer:  cfg.Issuer,
		ttl:     cfg.TTL,
		now:     cfg.Now,
		issued:  make(map[string][]string),
		revoked: make(map[string]struct{}),
	}, nil
}

// Name implements ports.AuthProvider.
func (p *Token) Name() string { return ProviderToken }

// LoginWithEmail implements ports.AuthProvider.
func (p *Token) LoginWithEmail(ctx context.Context, email string) (*domain.User, error) {
	addr, err := mail.ParseAddress(strings.TrimSpace(email))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidCredentials, err)
	}
	normalized := strings.ToLower(addr.Address)

	p.logger.Info("email login", slog.String("email", normalized))
	return &domain.User{
		ID:    uuid.NewSHA1(userNamespace, []byte("email:"+normalized)).String(),
		Email: normalized,
	}, nil
}

// LoginWithWallet implements ports.AuthProvider.
func (p *Token) LoginWithWallet(ctx context.Context, wallet domain.Wallet) (*domain.User, error) {
	wallet = normalizeWallet(wallet)
	if !ValidWalletAddress(wallet.Address) {
		return nil, fmt.Errorf("%w: malformed wallet address %q", domain.ErrInvalidCredentials, wallet.Address)
	}
	wallet.Address = strings.ToLower(wallet.Address)

	p.logger.Info("wallet login", slog.String("address", wallet.Address))
	return &domain.User{
		ID:            uuid.NewSHA1(userNamespace, []byte("wallet:"+wallet.Address)).String(),
		Wallet:        &wallet,
		LinkedWallets: []domain.Wallet{wallet},
	}, nil
}

// Logout implements ports.AuthProvider. Every token issued to user stops verifying.
func (p *Token) Logout(ctx context.Context, user *domain.User) error {
	if user == nil {
		return domain.ErrNotAuthenticated
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	for _, id := range p.issued[user.ID] {
		p.revoked[id] = struct{}{}
	}
	delete(p.issued, user.ID)
	p.logger.Info("logout", slog.String("user_id", user.ID))
	return nil
}

// Issue implements ports.TokenIssuer.
func (p *Token) Issue(user *domain.User) (string, error) {
	if user == nil || user.ID == "" {
		return "", domain.ErrNotAuthenticated
	}

	now := p.now()
	id := uuid.NewString()
	c := claims{
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Wallet:      user.Wallet,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        id,
			Subject:   user.ID,
			Issuer:    p.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(p.ttl)),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(p.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}

	p.mu.Lock()
	p.issued[user.ID] = append(p.issued[user.ID], id)
	p.mu.Unlock()
	return signed, nil
}

// Verify implements ports.TokenIssuer.
func (p *Token) Verify(token string) (*domain.User, error) {
	var c claims
	_, err := jwt.ParseWithClaims(token, &c,
		func(*jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrNotAuthenticated, err)
	}

	p.mu.Lock()
	_, revoked := p.revoked[c.ID]
	p.mu.Unlock()
	if revoked {
		return nil, fmt.Errorf("%w: token revoked", domain.ErrNotAuthenticated)
	}

	user := &domain.User{ID: c.Subject, Email: c.Email, DisplayName: c.DisplayName, Wallet: c.Wallet}
	if c.Wallet != nil {
		user.LinkedWallets = []domain.Wallet{*c.Wallet}
	}
	return user, nil
}

var (
	_ ports.AuthProvider = (*Token)(nil)
	_ ports.TokenIssuer  = (*Token)(nil)
)

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/logger"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestNewSelectsVariant(t *testing.T) {
	log := logger.NewTestLogger()

	p, err := New(log, Config{})
	require.NoError(t, err)
	assert.Equal(t, ProviderMock, p.Name())

	p, err = New(log, Config{Provider: "Token", Token: TokenConfig{Secret: testSecret}})
	require.NoError(t, err)
	assert.Equal(t, ProviderToken, p.Name())

	_, err = New(log, Config{Provider: "token", Token: TokenConfig{Secret: "short"}})
	assert.Error(t, err)

	_, err = New(log, Config{Provider: "oauth"})
	assert.Error(t, err)
}

func TestMockLogins(t *testing.T) {
	m := NewMock(logger.NewTestLogger())
	ctx := context.Background()

	u, err := m.LoginWithEmail(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, MockUserID, u.ID)
	assert.Equal(t, MockEmail, u.Email)
	assert.Equal(t, "Mock User", u.DisplayIdentifier())

	u, err = m.LoginWithWallet(ctx, domain.Wallet{})
	require.NoError(t, err)
	require.NotNil(t, u.Wallet)
	assert.Equal(t, MockWalletAddress, u.Wallet.Address)
	assert.Equal(t, "1", u.Wallet.ChainID)
	assert.Equal(t, "metamask", u.Wallet.Connector)
	assert.Equal(t, MockUserID, u.StorageKey())

	require.NoError(t, m.Logout(ctx, u))
}

func TestTokenLoginDerivesStableIDs(t *testing.T) {
	p, err := NewToken(logger.NewTestLogger(), TokenConfig{Secret: testSecret})
	require.NoError(t, err)
	ctx := context.Background()

	a, err := p.LoginWithEmail(ctx, "Listener@Example.com")
	require.NoError(t, err)
	b, err := p.LoginWithEmail(ctx, "listener@example.com")
	require.NoError(t, err)
	assert.Equal(t, a.ID, b.ID)
	assert.Equal(t, "listener@example.com", a.Email)

	_, err = p.LoginWithEmail(ctx, "not an email")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	w, err := p.LoginWithWallet(ctx, domain.Wallet{Address: "0xABCDEF0123456789abcdef0123456789ABCDEF01"})
	require.NoError(t, err)
	assert.Equal(t, "0xabcdef0123456789abcdef0123456789abcdef01", w.Wallet.Address)
	assert.NotEqual(t, a.ID, w.ID)

	_, err = p.LoginWithWallet(ctx, domain.Wallet{Address: "0x1234"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestTokenIssueVerify(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	p, err := NewToken(logger.NewTestLogger(), TokenConfig{
		Secret: testSecret,
		TTL:    time.Hour,
		Now:    func() time.Time { return now },
	})
	require.NoError(t, err)

	user, err := p.LoginWithWallet(context.Background(), domain.Wallet{Address: MockWalletAddress})
	require.NoError(t, err)

	token, err := p.Issue(user)
	require.NoError(t, err)

	got, err := p.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.WalletAddress(), got.WalletAddress())

	_, err = p.Verify(token + "x")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	now = now.Add(2 * time.Hour)
	_, err = p.Verify(token)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated, "expired")
}

func TestTokenLogoutRevokes(t *testing.T) {
	p, err := NewToken(logger.NewTestLogger(), TokenConfig{Secret: testSecret})
	require.NoError(t, err)
	ctx := context.Background()

	user, err := p.LoginWithEmail(ctx, "a@b.io")
	require.NoError(t, err)
	token, err := p.Issue(user)
	require.NoError(t, err)

	require.NoError(t, p.Logout(ctx, user))
	_, err = p.Verify(token)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	fresh, err := p.Issue(user)
	require.NoError(t, err)
	_, err = p.Verify(fresh)
	assert.NoError(t, err)

	assert.ErrorIs(t, p.Logout(ctx, nil), domain.ErrNotAuthenticated)
	_, err = p.Issue(nil)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)
}

func TestValidWalletAddress(t *testing.T) {
	assert.True(t, ValidWalletAddress(MockWalletAddress))
	assert.False(t, ValidWalletAddress("1234567890abcdef1234567890abcdef12345678"))
	assert.False(t, ValidWalletAddress("0xZZ34567890abcdef1234567890abcdef12345678"))
}

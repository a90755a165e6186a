package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/adapter/auth"
	"github.com/echoverse/echoverse/internal/adapter/eventbus"
	"github.com/echoverse/echoverse/internal/adapter/kv/memory"
	repokv "github.com/echoverse/echoverse/internal/adapter/repository/kv"
	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/logger"
	"github.com/echoverse/echoverse/internal/ports"
)

func newSessionFixture(t *testing.T, provider ports.AuthProvider) (*SessionService, *PlaylistService, *eventLog) {
	t.Helper()
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	t.Cleanup(func() { _ = bus.Close() })

	events := &eventLog{}
	bus.Subscribe(domain.EventSessionChanged, events.record)

	playlists := NewPlaylistService(log, repokv.NewPlaylistRepository(memory.New(), log), bus)
	session := NewSessionService(log, provider, bus,
		func(ctx context.Context, user *domain.User) { playlists.OpenSession(ctx, user) })
	return session, playlists, events
}

func TestSessionService_MockLoginSwitchesPlaylists(t *testing.T) {
	session, playlists, events := newSessionFixture(t, auth.NewMock(logger.NewTestLogger()))
	ctx := context.Background()

	assert.False(t, session.Authenticated())
	assert.Equal(t, domain.GuestIdentity, session.StorageKey())
	_, err := playlists.Create(ctx, "Guest mix", "")
	require.NoError(t, err)

	user, err := session.Login(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, auth.MockUserID, user.ID)
	assert.True(t, session.Authenticated())
	assert.Equal(t, auth.MockUserID, playlists.UserID())
	assert.Empty(t, playlists.List())
	assert.Empty(t, session.Token(), "mock provider issues no tokens")

	require.NoError(t, session.Logout(ctx))
	assert.Nil(t, session.User())
	assert.Equal(t, domain.GuestIdentity, playlists.UserID())
	require.Len(t, playlists.List(), 1)

	changes := events.ofType(domain.EventSessionChanged)
	require.Len(t, changes, 2)
	assert.Nil(t, changes[1].(domain.SessionChangedEvent).User)

	require.NoError(t, session.Logout(ctx), "logout as guest is a no-op")
}

func TestSessionService_TokenProviderIssuesTokens(t *testing.T) {
	provider, err := auth.NewToken(logger.NewTestLogger(), auth.TokenConfig{Secret: "0123456789abcdef0123"})
	require.NoError(t, err)
	session, _, _ := newSessionFixture(t, provider)
	ctx := context.Background()

	user, err := session.LoginWithWallet(ctx, domain.Wallet{Address: auth.MockWalletAddress})
	require.NoError(t, err)
	require.NotEmpty(t, session.Token())

	verified, err := provider.Verify(session.Token())
	require.NoError(t, err)
	assert.Equal(t, user.ID, verified.ID)

	token := session.Token()
	require.NoError(t, session.Logout(ctx))
	assert.Empty(t, session.Token())
	_, err = provider.Verify(token)
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, err = session.Login(ctx, "nope")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	assert.False(t, session.Authenticated())
}

func TestSessionService_ProfileAndWallets(t *testing.T) {
	session, _, events := newSessionFixture(t, auth.NewMock(logger.NewTestLogger()))
	ctx := context.Background()

	_, err := session.UpdateProfile(ctx, "DJ", "dj@example.com")
	assert.ErrorIs(t, err, domain.ErrNotAuthenticated)

	_, err = session.Login(ctx, "")
	require.NoError(t, err)

	user, err := session.UpdateProfile(ctx, " DJ Echo ", "dj@example.com")
	require.NoError(t, err)
	assert.Equal(t, "DJ Echo", user.DisplayIdentifier())
	assert.Equal(t, auth.MockUserID, user.StorageKey(), "profile edits keep the storage identity")

	_, err = session.UpdateProfile(ctx, "DJ", "not-an-email")
	assert.ErrorIs(t, err, domain.ErrValidation)

	user, err = session.LinkWallet(ctx, domain.Wallet{Address: "0xAAAA567890abcdef1234567890abcdef1234BBBB"})
	require.NoError(t, err)
	require.NotNil(t, user.Wallet)
	assert.Equal(t, "1", user.Wallet.ChainID)
	assert.Len(t, user.LinkedWallets, 1)

	user, err = session.LinkWallet(ctx, domain.Wallet{Address: "0xaaaa567890abcdef1234567890abcdef1234bbbb"})
	require.NoError(t, err)
	assert.Len(t, user.LinkedWallets, 1, "same address in another case is not linked twice")

	user, err = session.UnlinkWallet(ctx, "0xAAAA567890abcdef1234567890abcdef1234BBBB")
	require.NoError(t, err)
	assert.Nil(t, user.Wallet)
	assert.Empty(t, user.LinkedWallets)

	_, err = session.LinkWallet(ctx, domain.Wallet{})
	assert.ErrorIs(t, err, domain.ErrValidation)

	// returned users are copies
	user.DisplayName = "mutated"
	assert.Equal(t, "DJ Echo", session.User().DisplayName)

	assert.GreaterOrEqual(t, len(events.ofType(domain.EventSessionChanged)), 4)
}

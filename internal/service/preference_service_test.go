package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/adapter/eventbus"
	"github.com/echoverse/echoverse/internal/adapter/kv/memory"
	repokv "github.com/echoverse/echoverse/internal/adapter/repository/kv"
	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/logger"
	"github.com/echoverse/echoverse/internal/ports"
)

func newPreferenceFixture(t *testing.T) (*PreferenceService, *repokv.PreferencesRepository, *eventbus.SyncEventBus) {
	t.Helper()
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	repo := repokv.NewPreferencesRepository(memory.New())
	svc := NewPreferenceService(log, repo, bus)
	t.Cleanup(func() {
		_ = svc.Shutdown()
		_ = bus.Close()
	})
	return svc, repo, bus
}

func TestPreferenceService_Defaults(t *testing.T) {
	svc, _, _ := newPreferenceFixture(t)

	assert.Equal(t, ports.DefaultPreferences(), svc.Preferences())
	assert.False(t, svc.SidebarCollapsed())
	assert.Equal(t, domain.RepeatAll, svc.Repeat())
}

func TestPreferenceService_SidebarIsObservable(t *testing.T) {
	svc, repo, _ := newPreferenceFixture(t)
	ctx := context.Background()

	var mu sync.Mutex
	var seen []bool
	cancel := svc.OnSidebarChange(func(collapsed bool) {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, collapsed)
	})

	svc.SetSidebarCollapsed(ctx, true)
	svc.SetSidebarCollapsed(ctx, true) // unchanged, no notification
	assert.False(t, svc.ToggleSidebar(ctx))

	cancel()
	cancel()
	svc.ToggleSidebar(ctx)

	mu.Lock()
	assert.Equal(t, []bool{true, false}, seen)
	mu.Unlock()

	saved, err := repo.Load(ctx, domain.GuestIdentity)
	require.NoError(t, err)
	assert.True(t, saved.SidebarCollapsed)
}

func TestPreferenceService_TracksPlayerSettings(t *testing.T) {
	svc, repo, bus := newPreferenceFixture(t)
	ctx := context.Background()

	user := &domain.User{ID: "user-1"}
	svc.OpenSession(ctx, user)

	bus.Publish(domain.NewVolumeChangedEvent(0.25))
	bus.Publish(domain.NewMuteToggledEvent(true))
	bus.Publish(domain.NewRepeatChangedEvent(domain.RepeatOne))

	prefs := svc.Preferences()
	assert.InDelta(t, 0.25, prefs.Volume, 1e-9)
	assert.True(t, prefs.Muted)
	assert.Equal(t, domain.RepeatOne, svc.Repeat())

	saved, err := repo.Load(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, prefs, saved)

	guest, err := repo.Load(ctx, domain.GuestIdentity)
	require.NoError(t, err)
	assert.Equal(t, ports.DefaultPreferences(), guest, "guest record untouched")
}

func TestPreferenceService_OpenSessionNotifiesSidebar(t *testing.T) {
	svc, repo, _ := newPreferenceFixture(t)
	ctx := context.Background()

	stored := ports.DefaultPreferences()
	stored.SidebarCollapsed = true
	stored.Volume = 0.7
	require.NoError(t, repo.Save(ctx, "user-2", stored))

	var got []bool
	cancel := svc.OnSidebarChange(func(collapsed bool) { got = append(got, collapsed) })
	defer cancel()

	prefs := svc.OpenSession(ctx, &domain.User{ID: "user-2"})
	assert.Equal(t, stored, prefs)
	assert.Equal(t, []bool{true}, got)
}

type brokenPreferences struct{}

func (brokenPreferences) Load(context.Context, string) (ports.Preferences, error) {
	return ports.Preferences{}, errors.New("disk gone")
}
func (brokenPreferences) Save(context.Context, string, ports.Preferences) error {
	return errors.New("disk gone")
}
func (brokenPreferences) Clear(context.Context, string) error { return errors.New("disk gone") }

func TestPreferenceService_RepositoryFailures(t *testing.T) {
	log := logger.NewTestLogger()
	bus := eventbus.NewSyncEventBus(log)
	defer bus.Close()
	svc := NewPreferenceService(log, brokenPreferences{}, bus)
	defer svc.Shutdown()
	ctx := context.Background()

	assert.Equal(t, ports.DefaultPreferences(), svc.OpenSession(ctx, nil))

	svc.SetSidebarCollapsed(ctx, true)
	assert.True(t, svc.SidebarCollapsed(), "cache updates even when the write fails")

	err := svc.Reset(ctx)
	var serr *domain.ServiceError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Reset", serr.Op)
}

func TestPreferenceService_Reset(t *testing.T) {
	svc, repo, bus := newPreferenceFixture(t)
	ctx := context.Background()

	svc.SetSidebarCollapsed(ctx, true)
	bus.Publish(domain.NewVolumeChangedEvent(0.1))

	require.NoError(t, svc.Reset(ctx))
	assert.Equal(t, ports.DefaultPreferences(), svc.Preferences())

	saved, err := repo.Load(ctx, domain.GuestIdentity)
	require.NoError(t, err)
	assert.Equal(t, ports.DefaultPreferences(), saved)
}

func TestPreferenceService_ShutdownStopsTracking(t *testing.T) {
	svc, _, bus := newPreferenceFixture(t)

	require.NoError(t, svc.Shutdown())
	bus.Publish(domain.NewVolumeChangedEvent(0.3))
	assert.InDelta(t, 0.5, svc.Preferences().Volume, 1e-9)
}

package eventbus

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/logger"
)

func newTestBus(t *testing.T) *SyncEventBus {
	t.Helper()
	bus := NewSyncEventBus(logger.NewTestLogger())
	t.Cleanup(func() { _ = bus.Close() })
	return bus
}

func TestNewSyncEventBus(t *testing.T) {
	bus := NewSyncEventBus(nil)
	require.NotNil(t, bus)
	assert.Equal(t, 0, bus.SubscriberCount())
	assert.False(t, bus.HasSubscribers(domain.EventTrackStarted))
}

func TestPublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	var received []domain.Event
	id := bus.Subscribe(domain.EventTrackStarted, func(e domain.Event) {
		received = append(received, e)
	})
	require.NotEmpty(t, id)

	bus.Publish(domain.NewTrackStartedEvent(domain.Track{ID: "song1", Title: "Midnight Serenade"}))
	bus.Publish(domain.NewVolumeChangedEvent(0.5))

	require.Len(t, received, 1)
	started, ok := received[0].(domain.TrackStartedEvent)
	require.True(t, ok)
	assert.Equal(t, "song1", started.Track.ID)
	assert.False(t, started.Timestamp().IsZero())
}

func TestDeliveryOrder(t *testing.T) {
	bus := newTestBus(t)

	var order []string
	bus.SubscribeAll(func(domain.Event) { order = append(order, "all") })
	bus.Subscribe(domain.EventAccrualTick, func(domain.Event) { order = append(order, "first") })
	bus.Subscribe(domain.EventAccrualTick, func(domain.Event) { order = append(order, "second") })

	bus.Publish(domain.NewAccrualTickEvent(domain.DefaultRate, domain.DefaultRate))

	assert.Equal(t, []string{"first", "second", "all"}, order)
}

func TestUnsubscribe(t *testing.T) {
	bus := newTestBus(t)

	var a, b, c int32
	idA := bus.Subscribe(domain.EventMuteToggled, func(domain.Event) { atomic.AddInt32(&a, 1) })
	bus.Subscribe(domain.EventMuteToggled, func(domain.Event) { atomic.AddInt32(&b, 1) })
	idC := bus.SubscribeAll(func(domain.Event) { atomic.AddInt32(&c, 1) })
	require.Equal(t, 3, bus.SubscriberCount())

	bus.Unsubscribe(idA)
	bus.Unsubscribe(idC)
	bus.Unsubscribe("sub-unknown")
	bus.Publish(domain.NewMuteToggledEvent(true))

	assert.Equal(t, int32(0), atomic.LoadInt32(&a))
	assert.Equal(t, int32(1), atomic.LoadInt32(&b))
	assert.Equal(t, int32(0), atomic.LoadInt32(&c))
	assert.Equal(t, 1, bus.SubscriberCount())
}

func TestSubscribeFiltered(t *testing.T) {
	bus := newTestBus(t)

	var got []domain.PlaylistAction
	bus.SubscribeFiltered(func(e domain.Event) bool {
		pe, ok := e.(domain.PlaylistChangedEvent)
		return ok && pe.Playlist.UserID == "alice"
	}, func(e domain.Event) {
		got = append(got, e.(domain.PlaylistChangedEvent).Action)
	})

	bus.Publish(domain.NewPlaylistChangedEvent(domain.PlaylistCreated, domain.Playlist{UserID: "alice"}, nil))
	bus.Publish(domain.NewPlaylistChangedEvent(domain.PlaylistDeleted, domain.Playlist{UserID: "bob"}, nil))
	bus.Publish(domain.NewVolumeChangedEvent(1))

	assert.Equal(t, []domain.PlaylistAction{domain.PlaylistCreated}, got)
	assert.True(t, bus.HasSubscribers(domain.EventVolumeChanged))
}

func TestHandlerPanicDoesNotStopDelivery(t *testing.T) {
	bus := newTestBus(t)

	var called bool
	bus.Subscribe(domain.EventNotification, func(domain.Event) { panic("boom") })
	bus.Subscribe(domain.EventNotification, func(domain.Event) { called = true })

	assert.NotPanics(t, func() {
		bus.Publish(domain.NewNotificationEvent(domain.NotifyPlaybackError, "decode failed"))
	})
	assert.True(t, called)
}

func TestClose(t *testing.T) {
	bus := NewSyncEventBus(nil)

	var calls int
	bus.SubscribeAll(func(domain.Event) { calls++ })
	require.NoError(t, bus.Close())
	assert.ErrorIs(t, bus.Close(), ErrClosed)

	bus.Publish(domain.NewPlayerIdleEvent())
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, bus.SubscriberCount())
	assert.Panics(t, func() { bus.Subscribe(domain.EventPlayerIdle, func(domain.Event) {}) })
}

func TestNilArguments(t *testing.T) {
	bus := newTestBus(t)

	assert.Panics(t, func() { bus.Subscribe(domain.EventTrackReady, nil) })
	assert.Panics(t, func() { bus.SubscribeAll(nil) })
	assert.Panics(t, func() { bus.SubscribeFiltered(nil, func(domain.Event) {}) })
	assert.NotPanics(t, func() { bus.Publish(nil) })
}

func TestConcurrentPublishSubscribe(t *testing.T) {
	bus := newTestBus(t)

	var count atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			id := bus.Subscribe(domain.EventTrackProgress, func(domain.Event) { count.Add(1) })
			bus.Unsubscribe(id)
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				bus.Publish(domain.NewTrackProgressEvent(0, 0))
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, bus.SubscriberCount())
	assert.GreaterOrEqual(t, count.Load(), int64(0))
}

package mock

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
	"github.com/echoverse/echoverse/internal/testutil"
)

type recorder struct {
	mu     sync.Mutex
	events []ports.MediaEvent
}

func (r *recorder) listen(ev ports.MediaEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []ports.MediaEventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]ports.MediaEventKind, len(r.events))
	for i, ev := range r.events {
		kinds[i] = ev.Kind
	}
	return kinds
}

func TestOpenAndControl(t *testing.T) {
	engine := NewEngine(nil)
	defer engine.Shutdown()

	rec := &recorder{}
	media, err := engine.Open("https://example.test/a.wav", rec.listen)
	require.NoError(t, err)

	m := engine.Last()
	require.NotNil(t, m)
	assert.Equal(t, "https://example.test/a.wav", m.URL())
	assert.Equal(t, m, <-engine.Opened())
	assert.Empty(t, rec.kinds(), "open must not emit synchronously")

	require.NoError(t, media.SetVolume(0.4))
	require.NoError(t, media.SetMuted(true))
	require.NoError(t, media.Play())
	require.NoError(t, media.Seek(5*time.Second))

	assert.True(t, m.Playing())
	assert.True(t, m.Muted())
	assert.InDelta(t, 0.4, m.Volume(), 1e-9)
	assert.Equal(t, 5*time.Second, media.Position())
	assert.Equal(t, []time.Duration{5 * time.Second}, m.Seeks())

	require.NoError(t, media.Pause())
	assert.False(t, m.Playing())
}

func TestDrivenEvents(t *testing.T) {
	engine := NewEngine(nil)
	defer engine.Shutdown()

	rec := &recorder{}
	_, err := engine.Open("u", rec.listen)
	require.NoError(t, err)
	m := engine.Last()

	assert.True(t, m.CompleteBuffering(10*time.Second))
	assert.True(t, m.Stall())
	assert.True(t, m.Resume())
	assert.True(t, m.Advance(12*time.Second))
	assert.Equal(t, 10*time.Second, m.Position(), "advance is capped at the duration")
	assert.True(t, m.Fail(errors.New("decode")))
	assert.True(t, m.End())

	assert.Equal(t, []ports.MediaEventKind{
		ports.MediaReady, ports.MediaWaiting, ports.MediaCanPlay,
		ports.MediaTimeUpdate, ports.MediaFailed, ports.MediaEnded,
	}, rec.kinds())
}

func TestCloseDetachesListener(t *testing.T) {
	engine := NewEngine(nil)
	defer engine.Shutdown()

	rec := &recorder{}
	media, err := engine.Open("u", rec.listen)
	require.NoError(t, err)
	m := engine.Last()

	require.NoError(t, media.Close())
	require.NoError(t, media.Close())
	assert.True(t, m.Closed())
	assert.False(t, m.CompleteBuffering(time.Second))
	assert.Empty(t, rec.kinds())
	assert.ErrorIs(t, media.Play(), domain.ErrMediaClosed)
	assert.Empty(t, engine.OpenMedia())
}

func TestFailureInjection(t *testing.T) {
	engine := NewEngine(nil)
	defer engine.Shutdown()

	boom := errors.New("no device")
	engine.SetFailOpen(boom)
	_, err := engine.Open("u", func(ports.MediaEvent) {})
	assert.ErrorIs(t, err, boom)

	engine.SetFailOpen(nil)
	engine.SetFailPlay(boom)
	media, err := engine.Open("u", func(ports.MediaEvent) {})
	require.NoError(t, err)
	assert.ErrorIs(t, media.Play(), boom)
	assert.Equal(t, 1, engine.OpenCount())

	_, err = engine.Open("u", nil)
	assert.Error(t, err)
}

func TestShutdown(t *testing.T) {
	engine := NewEngine(nil)
	_, err := engine.Open("u", func(ports.MediaEvent) {})
	require.NoError(t, err)

	require.NoError(t, engine.Shutdown())
	require.NoError(t, engine.Shutdown())
	assert.True(t, engine.Last().Closed())

	_, err = engine.Open("u", func(ports.MediaEvent) {})
	assert.ErrorIs(t, err, domain.ErrMediaClosed)
}

func TestRealtimeMode(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)

	engine := NewEngine(nil, WithRealtime(5*time.Millisecond, 5*time.Millisecond,
		func(string) time.Duration { return 20 * time.Millisecond }))
	t.Cleanup(func() { _ = engine.Shutdown() })

	rec := &recorder{}
	media, err := engine.Open("u", func(ev ports.MediaEvent) {
		rec.listen(ev)
	})
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		k := rec.kinds()
		return len(k) > 0 && k[0] == ports.MediaReady
	}, time.Second, time.Millisecond)
	require.NoError(t, media.Play())

	require.Eventually(t, func() bool {
		k := rec.kinds()
		return len(k) > 0 && k[len(k)-1] == ports.MediaEnded
	}, time.Second, time.Millisecond)
}

func TestRealtimeShutdownStopsGoroutines(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)

	engine := NewEngine(nil, WithRealtime(time.Hour, time.Second, nil))
	_, err := engine.Open("u", func(ports.MediaEvent) {})
	require.NoError(t, err)
	require.NoError(t, engine.Shutdown())
}

package notify

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/adapter/eventbus"
	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/logger"
)

func TestBusPublishesNotification(t *testing.T) {
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())
	defer bus.Close()

	var got []domain.NotificationEvent
	bus.Subscribe(domain.EventNotification, func(e domain.Event) {
		got = append(got, e.(domain.NotificationEvent))
	})

	NewBus(bus, logger.NewTestLogger()).Notify(domain.NotifyPlaybackError, "playback failed")

	require.Len(t, got, 1)
	assert.Equal(t, domain.NotifyPlaybackError, got[0].Kind)
	assert.Equal(t, "playback failed", got[0].Message)
}

func TestLogLevels(t *testing.T) {
	var buf bytes.Buffer
	n := NewLog(slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))

	n.Notify(domain.NotifyResolutionError, "no content")
	n.Notify(domain.NotifyInfo, "imported 3 tracks")

	out := buf.String()
	assert.Contains(t, out, `level=WARN msg="no content" component=notify kind=resolution-error`)
	assert.Contains(t, out, `level=INFO msg="imported 3 tracks"`)
}

type panicky struct{}

func (panicky) Notify(domain.NotificationKind, string) { panic("sink exploded") }

type counter struct{ n int }

func (c *counter) Notify(domain.NotificationKind, string) { c.n++ }

func TestFanoutSurvivesPanics(t *testing.T) {
	c := &counter{}
	f := Fanout{panicky{}, c, panicky{}, c}

	assert.NotPanics(t, func() { f.Notify(domain.NotifyInfo, "hello") })
	assert.Equal(t, 2, c.n)
}

// Package notify provides the user-visible notification sinks.
// Sinks are fire-and-forget: they never block on the caller and never panic.
package notify

import (
	"context"
	"log/slog"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// Bus publishes notifications as domain.NotificationEvent for the shell to render.
type Bus struct {
	bus    ports.EventBus
	logger *slog.Logger
}

// NewBus creates a bus-backed notifier.
func NewBus(bus ports.EventBus, logger *slog.Logger) *Bus {
	return &Bus{bus: bus, logger: logger}
}

// Notify implements ports.Notifier.
func (n *Bus) Notify(kind domain.NotificationKind, message string) {
	defer recoverNotify(n.logger, kind)
	n.bus.Publish(domain.NewNotificationEvent(kind, message))
}

// Log writes notifications to the log. Errors are logged at WARN, the rest at INFO.
type Log struct {
	logger *slog.Logger
}

// NewLog creates a log-backed notifier.
func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger.With(slog.String("component", "notify"))}
}

// Notify implements ports.Notifier.
func (n *Log) Notify(kind domain.NotificationKind, message string) {
	level := slog.LevelInfo
	if kind != domain.NotifyInfo {
		level = slog.LevelWarn
	}
	n.logger.Log(context.Background(), level, message, slog.String("kind", string(kind)))
}

// Fanout delivers each notification to every sink in order.
type Fanout []ports.Notifier

// Notify implements ports.Notifier. A panicking sink does not stop the others.
func (f Fanout) Notify(kind domain.NotificationKind, message string) {
	for _, n := range f {
		func() {
			defer recoverNotify(nil, kind)
			n.Notify(kind, message)
		}()
	}
}

func recoverNotify(logger *slog.Logger, kind domain.NotificationKind) {
	if r := recover(); r != nil && logger != nil {
		logger.Error("notification sink panicked", slog.String("kind", string(kind)), slog.Any("panic", r))
	}
}

var (
	_ ports.Notifier = (*Bus)(nil)
	_ ports.Notifier = (*Log)(nil)
	_ ports.Notifier = Fanout(nil)
)

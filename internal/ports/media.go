// Package ports define interfaces for dependency inversion.
// These interfaces allow the core business logic to remain independent of external frameworks.
package ports

import (
	"context"
	"io"
	"time"

	"github.com/echoverse/echoverse/internal/domain"
)

// MediaEventKind identifies a notification raised by a media resource.
type MediaEventKind int

const (
	// MediaReady is raised once the media has enough data to start and knows its duration.
	MediaReady MediaEventKind = iota

	// MediaWaiting is raised when playback stalls for lack of data.
	MediaWaiting

	// MediaCanPlay is raised when data is available again after a stall.
	MediaCanPlay

	// MediaTimeUpdate is raised as the playback position advances.
	MediaTimeUpdate

	// MediaEnded is raised when playback reaches the end naturally.
	MediaEnded

	// MediaFailed is raised on a decode or network failure.
	MediaFailed
)

// String returns the event kind name for logging.
func (k MediaEventKind) String() string {
	switch k {
	case MediaReady:
		return "ready"
	case MediaWaiting:
		return "waiting"
	case MediaCanPlay:
		return "canplay"
	case MediaTimeUpdate:
		return "timeupdate"
	case MediaEnded:
		return "ended"
	case MediaFailed:
		return "error"
	default:
		return "unknown"
	}
}

// MediaEvent is a single notification from a media resource.
type MediaEvent struct {
	Kind     MediaEventKind
	Duration time.Duration // set on MediaReady
	Position time.Duration // set on MediaTimeUpdate
	Err      error         // set on MediaFailed
}

// MediaListener receives media events. Implementations may call it from any
// goroutine but never from inside a MediaEngine or Media method call.
type MediaListener func(MediaEvent)

// MediaEngine opens playable media resources from resolved URLs.
// Only one media resource is expected to be open per playback engine.
//
// Implementations must be thread-safe.
type MediaEngine interface {
	// Open starts loading the media at url and returns a handle to it.
	// Loading progress is reported through listener; Open itself does not block on buffering.
	Open(url string, listener MediaListener) (Media, error)

	// Shutdown releases all engine resources.
	Shutdown() error
}

// Media is a handle to one opened media resource.
type Media interface {
	// Play starts or resumes playback.
	Play() error

	// Pause pauses playback, preserving the position.
	Pause() error

	// Seek moves the playback position.
	Seek(position time.Duration) error

	// SetVolume sets the output volume (0.0 to 1.0).
	SetVolume(volume float64) error

	// SetMuted mutes or unmutes output without touching the volume.
	SetMuted(muted bool) error

	// Position returns the current playback position.
	Position() time.Duration

	// Close releases the resource and detaches the listener.
	// An event already in flight when Close is called may still arrive;
	// listeners must discard events from media they no longer own.
	Close() error
}

// LocatorResolver turns a content locator into a playable URL.
//
// Resolve returns a *domain.ResolutionError for unsupported schemes and
// locators with no content mapping. It may suspend (simulated network latency)
// and must honor ctx cancellation.
type LocatorResolver interface {
	Resolve(ctx context.Context, locator string) (string, error)
}

// ContentStore keeps imported audio and artwork and returns a locator for it.
// The locator must be resolvable by the LocatorResolver the player uses.
type ContentStore interface {
	Store(ctx context.Context, name string, r io.Reader) (locator string, err error)
}

// RateTable maps a track id to its per-second rate and tier.
// Lookup is pure and synchronous.
type RateTable interface {
	Lookup(trackID string) (domain.RateEntry, bool)
}

// Notifier surfaces user-visible messages. Notify is fire-and-forget and never panics.
type Notifier interface {
	Notify(kind domain.NotificationKind, message string)
}

// Ticker is a repeating clock.
type Ticker interface {
	// C returns the channel ticks are delivered on.
	C() <-chan time.Time

	// Stop turns off the ticker. No ticks are delivered after Stop returns.
	Stop()
}

// TickerFactory creates a Ticker firing every d.
type TickerFactory func(d time.Duration) Ticker

// Package domain defines events for the event-driven architecture.
// Events replace polling and callbacks and enable loose coupling between components.
package domain

import (
	"time"
)

// Event is the base interface for all events in the system.
// All events must implement this interface to be published via the event bus.
type Event interface {
	// Type returns the event type identifier
	Type() EventType

	// Timestamp returns when the event occurred
	Timestamp() time.Time
}

// EventType is a string identifier for different event types.
type EventType string

// Event type constants define all possible events in the system.
const (
	// Playback events
	EventTrackLoading   EventType = "track.loading"
	EventTrackReady     EventType = "track.ready"
	EventTrackStarted   EventType = "track.started"
	EventTrackPaused    EventType = "track.paused"
	EventTrackCompleted EventType = "track.completed"
	EventTrackProgress  EventType = "track.progress"
	EventTrackBuffering EventType = "track.buffering"
	EventTrackError     EventType = "track.error"
	EventPlayerIdle     EventType = "player.idle"

	// Volume events
	EventVolumeChanged EventType = "volume.changed"
	EventMuteToggled   EventType = "mute.toggled"

	// Playback mode events
	EventRepeatChanged EventType = "repeat.changed"

	// Queue events
	EventQueueChanged EventType = "queue.changed"

	// Accrual events
	EventAccrualRateChanged EventType = "accrual.rate_changed"
	EventAccrualTick        EventType = "accrual.tick"
	EventAccrualReset       EventType = "accrual.reset"

	// Playlist events
	EventPlaylistChanged EventType = "playlist.changed"

	// Notification events (rendered as dismissible toasts by the shell)
	EventNotification EventType = "notification"

	// Preference events
	EventSidebarToggled EventType = "sidebar.toggled"

	// Session events
	EventSessionChanged EventType = "session.changed"

	// Library scanning events
	EventScanStarted   EventType = "scan.started"
	EventScanProgress  EventType = "scan.progress"
	EventScanCompleted EventType = "scan.completed"
	EventScanCancelled EventType = "scan.cancelled"
)

// EventHandler is a function that handles events.
type EventHandler func(event Event)

// SubscriptionID uniquely identifies an event subscription.
type SubscriptionID string

// baseEvent provides common event functionality.
// All concrete events should embed this struct.
type baseEvent struct {
	timestamp time.Time
}

// Timestamp returns when the event occurred.
func (e baseEvent) Timestamp() time.Time {
	return e.timestamp
}

func newBaseEvent() baseEvent {
	return baseEvent{timestamp: time.Now()}
}

// TrackLoadingEvent is published when the engine starts loading a track.
type TrackLoadingEvent struct {
	baseEvent
	Track Track `json:"track"`
	Index int   `json:"index"`
}

// Type returns the event type.
func (e TrackLoadingEvent) Type() EventType { return EventTrackLoading }

// NewTrackLoadingEvent creates a new TrackLoadingEvent.
func NewTrackLoadingEvent(track Track, index int) TrackLoadingEvent {
	return TrackLoadingEvent{baseEvent: newBaseEvent(), Track: track, Index: index}
}

// TrackReadyEvent is published when media for the current track has playable data.
type TrackReadyEvent struct {
	baseEvent
	Track    Track         `json:"track"`
	Duration time.Duration `json:"duration"`
}

// Type returns the event type.
func (e TrackReadyEvent) Type() EventType { return EventTrackReady }

// NewTrackReadyEvent creates a new TrackReadyEvent.
func NewTrackReadyEvent(track Track, duration time.Duration) TrackReadyEvent {
	return TrackReadyEvent{baseEvent: newBaseEvent(), Track: track, Duration: duration}
}

// TrackStartedEvent is published when playback starts or resumes.
type TrackStartedEvent struct {
	baseEvent
	Track Track `json:"track"`
}

// Type returns the event type.
func (e TrackStartedEvent) Type() EventType { return EventTrackStarted }

// NewTrackStartedEvent creates a new TrackStartedEvent.
func NewTrackStartedEvent(track Track) TrackStartedEvent {
	return TrackStartedEvent{baseEvent: newBaseEvent(), Track: track}
}

// TrackPausedEvent is published when playback is paused.
type TrackPausedEvent struct {
	baseEvent
	Track    Track         `json:"track"`
	Position time.Duration `json:"position"`
}

// Type returns the event type.
func (e TrackPausedEvent) Type() EventType { return EventTrackPaused }

// NewTrackPausedEvent creates a new TrackPausedEvent.
func NewTrackPausedEvent(track Track, position time.Duration) TrackPausedEvent {
	return TrackPausedEvent{baseEvent: newBaseEvent(), Track: track, Position: position}
}

// TrackCompletedEvent is published when a track finishes playing naturally.
type TrackCompletedEvent struct {
	baseEvent
	Track Track `json:"track"`
	Index int   `json:"index"`
}

// Type returns the event type.
func (e TrackCompletedEvent) Type() EventType { return EventTrackCompleted }

// NewTrackCompletedEvent creates a new TrackCompletedEvent.
func NewTrackCompletedEvent(track Track, index int) TrackCompletedEvent {
	return TrackCompletedEvent{baseEvent: newBaseEvent(), Track: track, Index: index}
}

// TrackProgressEvent is published periodically during playback and after seeks.
type TrackProgressEvent struct {
	baseEvent
	Position time.Duration `json:"position"`
	Duration time.Duration `json:"duration"`
}

// Type returns the event type.
func (e TrackProgressEvent) Type() EventType { return EventTrackProgress }

// NewTrackProgressEvent creates a new TrackProgressEvent.
func NewTrackProgressEvent(position, duration time.Duration) TrackProgressEvent {
	return TrackProgressEvent{baseEvent: newBaseEvent(), Position: position, Duration: duration}
}

// TrackBufferingEvent is published when the buffering flag changes.
type TrackBufferingEvent struct {
	baseEvent
	Track     Track `json:"track"`
	Buffering bool  `json:"buffering"`
}

// Type returns the event type.
func (e TrackBufferingEvent) Type() EventType { return EventTrackBuffering }

// NewTrackBufferingEvent creates a new TrackBufferingEvent.
func NewTrackBufferingEvent(track Track, buffering bool) TrackBufferingEvent {
	return TrackBufferingEvent{baseEvent: newBaseEvent(), Track: track, Buffering: buffering}
}

// TrackErrorEvent is published when loading or playing a track fails.
type TrackErrorEvent struct {
	baseEvent
	Track   Track            `json:"track"`
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
	Error   error            `json:"-"`
}

// Type returns the event type.
func (e TrackErrorEvent) Type() EventType { return EventTrackError }

// NewTrackErrorEvent creates a new TrackErrorEvent.
func NewTrackErrorEvent(track Track, kind NotificationKind, err error) TrackErrorEvent {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return TrackErrorEvent{baseEvent: newBaseEvent(), Track: track, Kind: kind, Message: msg, Error: err}
}

// PlayerIdleEvent is published when the engine returns to Idle.
type PlayerIdleEvent struct {
	baseEvent
}

// Type returns the event type.
func (e PlayerIdleEvent) Type() EventType { return EventPlayerIdle }

// NewPlayerIdleEvent creates a new PlayerIdleEvent.
func NewPlayerIdleEvent() PlayerIdleEvent {
	return PlayerIdleEvent{baseEvent: newBaseEvent()}
}

// VolumeChangedEvent is published when the volume changes.
type VolumeChangedEvent struct {
	baseEvent
	Volume float64 `json:"volume"`
}

// Type returns the event type.
func (e VolumeChangedEvent) Type() EventType { return EventVolumeChanged }

// NewVolumeChangedEvent creates a new VolumeChangedEvent.
func NewVolumeChangedEvent(volume float64) VolumeChangedEvent {
	return VolumeChangedEvent{baseEvent: newBaseEvent(), Volume: volume}
}

// MuteToggledEvent is published when mute is toggled.
type MuteToggledEvent struct {
	baseEvent
	Muted bool `json:"muted"`
}

// Type returns the event type.
func (e MuteToggledEvent) Type() EventType { return EventMuteToggled }

// NewMuteToggledEvent creates a new MuteToggledEvent.
func NewMuteToggledEvent(muted bool) MuteToggledEvent {
	return MuteToggledEvent{baseEvent: newBaseEvent(), Muted: muted}
}

// RepeatChangedEvent is published when the repeat mode changes.
type RepeatChangedEvent struct {
	baseEvent
	Mode RepeatMode `json:"mode"`
}

// Type returns the event type.
func (e RepeatChangedEvent) Type() EventType { return EventRepeatChanged }

// NewRepeatChangedEvent creates a new RepeatChangedEvent.
func NewRepeatChangedEvent(mode RepeatMode) RepeatChangedEvent {
	return RepeatChangedEvent{baseEvent: newBaseEvent(), Mode: mode}
}

// QueueChangedEvent is published when the queue is replaced.
type QueueChangedEvent struct {
	baseEvent
	Queue []Track `json:"queue"`
	Index int     `json:"index"`
}

// Type returns the event type.
func (e QueueChangedEvent) Type() EventType { return EventQueueChanged }

// NewQueueChangedEvent creates a new QueueChangedEvent.
func NewQueueChangedEvent(queue []Track, index int) QueueChangedEvent {
	return QueueChangedEvent{baseEvent: newBaseEvent(), Queue: queue, Index: index}
}

// AccrualRateChangedEvent is published when the meter picks up a new rate.
type AccrualRateChangedEvent struct {
	baseEvent
	TrackID string `json:"trackId"`
	Rate    Amount `json:"rate"`
	Tier    Tier   `json:"tier,omitempty"`
}

// Type returns the event type.
func (e AccrualRateChangedEvent) Type() EventType { return EventAccrualRateChanged }

// NewAccrualRateChangedEvent creates a new AccrualRateChangedEvent.
func NewAccrualRateChangedEvent(trackID string, rate Amount, tier Tier) AccrualRateChangedEvent {
	return AccrualRateChangedEvent{baseEvent: newBaseEvent(), TrackID: trackID, Rate: rate, Tier: tier}
}

// AccrualTickEvent is published after each one-second accrual tick.
type AccrualTickEvent struct {
	baseEvent
	Rate  Amount `json:"rate"`
	Total Amount `json:"total"`
}

// Type returns the event type.
func (e AccrualTickEvent) Type() EventType { return EventAccrualTick }

// NewAccrualTickEvent creates a new AccrualTickEvent.
func NewAccrualTickEvent(rate, total Amount) AccrualTickEvent {
	return AccrualTickEvent{baseEvent: newBaseEvent(), Rate: rate, Total: total}
}

// AccrualResetEvent is published when the session total is explicitly reset.
type AccrualResetEvent struct {
	baseEvent
	Previous Amount `json:"previous"`
}

// Type returns the event type.
func (e AccrualResetEvent) Type() EventType { return EventAccrualReset }

// NewAccrualResetEvent creates a new AccrualResetEvent.
func NewAccrualResetEvent(previous Amount) AccrualResetEvent {
	return AccrualResetEvent{baseEvent: newBaseEvent(), Previous: previous}
}

// PlaylistAction describes what happened to a playlist.
type PlaylistAction string

const (
	PlaylistCreated      PlaylistAction = "created"
	PlaylistUpdated      PlaylistAction = "updated"
	PlaylistDeleted      PlaylistAction = "deleted"
	PlaylistTrackAdded   PlaylistAction = "track_added"
	PlaylistTrackExists  PlaylistAction = "track_exists"
	PlaylistTrackRemoved PlaylistAction = "track_removed"
	PlaylistsLoaded      PlaylistAction = "loaded"
)

// PlaylistChangedEvent is published after every playlist collection change.
type PlaylistChangedEvent struct {
	baseEvent
	Action   PlaylistAction `json:"action"`
	Playlist Playlist       `json:"playlist"`
	Track    *Track         `json:"track,omitempty"`
}

// Type returns the event type.
func (e PlaylistChangedEvent) Type() EventType { return EventPlaylistChanged }

// NewPlaylistChangedEvent creates a new PlaylistChangedEvent.
func NewPlaylistChangedEvent(action PlaylistAction, playlist Playlist, track *Track) PlaylistChangedEvent {
	return PlaylistChangedEvent{baseEvent: newBaseEvent(), Action: action, Playlist: playlist, Track: track}
}

// NotificationKind classifies user-visible notifications.
type NotificationKind string

const (
	NotifyPlaybackError   NotificationKind = "playback-error"
	NotifyResolutionError NotificationKind = "resolution-error"
	NotifyInfo            NotificationKind = "info"
)

// NotificationEvent carries a user-visible notification.
type NotificationEvent struct {
	baseEvent
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}

// Type returns the event type.
func (e NotificationEvent) Type() EventType { return EventNotification }

// NewNotificationEvent creates a new NotificationEvent.
func NewNotificationEvent(kind NotificationKind, message string) NotificationEvent {
	return NotificationEvent{baseEvent: newBaseEvent(), Kind: kind, Message: message}
}

// SidebarToggledEvent is published when the sidebar collapse state changes.
type SidebarToggledEvent struct {
	baseEvent
	Collapsed bool `json:"collapsed"`
}

// Type returns the event type.
func (e SidebarToggledEvent) Type() EventType { return EventSidebarToggled }

// NewSidebarToggledEvent creates a new SidebarToggledEvent.
func NewSidebarToggledEvent(collapsed bool) SidebarToggledEvent {
	return SidebarToggledEvent{baseEvent: newBaseEvent(), Collapsed: collapsed}
}

// SessionChangedEvent is published on login, logout and profile changes.
type SessionChangedEvent struct {
	baseEvent
	User *User `json:"user"`
}

// Type returns the event type.
func (e SessionChangedEvent) Type() EventType { return EventSessionChanged }

// NewSessionChangedEvent creates a new SessionChangedEvent.
func NewSessionChangedEvent(user *User) SessionChangedEvent {
	return SessionChangedEvent{baseEvent: newBaseEvent(), User: user}
}

// ScanStartedEvent is published when a library scan starts.
type ScanStartedEvent struct {
	baseEvent
	Path string `json:"path"`
}

// Type returns the event type.
func (e ScanStartedEvent) Type() EventType { return EventScanStarted }

// NewScanStartedEvent creates a new ScanStartedEvent.
func NewScanStartedEvent(path string) ScanStartedEvent {
	return ScanStartedEvent{baseEvent: newBaseEvent(), Path: path}
}

// ScanProgressEvent is published periodically during a library scan.
type ScanProgressEvent struct {
	baseEvent
	Progress ScanProgress `json:"progress"`
}

// Type returns the event type.
func (e ScanProgressEvent) Type() EventType { return EventScanProgress }

// NewScanProgressEvent creates a new ScanProgressEvent.
func NewScanProgressEvent(progress ScanProgress) ScanProgressEvent {
	return ScanProgressEvent{baseEvent: newBaseEvent(), Progress: progress}
}

// ScanCompletedEvent is published when a library scan completes.
type ScanCompletedEvent struct {
	baseEvent
	TracksFound []Track `json:"tracks"`
}

// Type returns the event type.
func (e ScanCompletedEvent) Type() EventType { return EventScanCompleted }

// NewScanCompletedEvent creates a new ScanCompletedEvent.
func NewScanCompletedEvent(tracks []Track) ScanCompletedEvent {
	return ScanCompletedEvent{baseEvent: newBaseEvent(), TracksFound: tracks}
}

// ScanCancelledEvent is published when a library scan is canceled.
type ScanCancelledEvent struct {
	baseEvent
	Reason string `json:"reason"`
}

// Type returns the event type.
func (e ScanCancelledEvent) Type() EventType { return EventScanCancelled }

// NewScanCancelledEvent creates a new ScanCancelledEvent.
func NewScanCancelledEvent(reason string) ScanCancelledEvent {
	return ScanCancelledEvent{baseEvent: newBaseEvent(), Reason: reason}
}

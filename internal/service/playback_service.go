// Package service provides business logic for the Echoverse player.
package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// PlaybackConfig tunes the playback engine.
type PlaybackConfig struct {
	// ResolveTimeout bounds locator resolution; zero waits indefinitely.
	ResolveTimeout time.Duration

	// ProgressInterval is the minimum spacing of progress events during playback.
	ProgressInterval time.Duration

	// Volume is the initial volume (0.0 to 1.0).
	Volume float64

	// Repeat is the initial end-of-track behavior.
	Repeat domain.RepeatMode
}

// DefaultPlaybackConfig returns the engine defaults.
func DefaultPlaybackConfig() PlaybackConfig {
	return PlaybackConfig{
		ProgressInterval: 250 * time.Millisecond,
		Volume:           0.5,
		Repeat:           domain.RepeatAll,
	}
}

// PlaybackService is the playback engine: a queue, a single current track and
// its media resource, plus the accrual meter that charges while the track plays.
//
// Every state transition runs under mu. Locator resolution runs on its own
// goroutine and media events arrive on the engine's goroutines; both are tagged
// with the load generation they belong to and are dropped once a newer load
// has started. Events are published after mu is released.
type PlaybackService struct {
	// Dependencies (injected)
	logger   *slog.Logger
	engine   ports.MediaEngine
	resolver ports.LocatorResolver
	rates    ports.RateTable
	notifier ports.Notifier
	bus      ports.EventBus
	meter    *AccrualMeter
	cfg      PlaybackConfig

	mu sync.Mutex

	// Queue
	queue []domain.Track
	index int

	// Current track state
	status      domain.PlaybackStatus
	intent      bool // play once ready
	failed      bool // last load or playback failed; toggle retries
	currentTime time.Duration
	duration    time.Duration
	buffering   bool
	played      time.Duration // media time actually played this load
	lastPos     time.Duration
	media       ports.Media
	url         string

	// Settings
	volume float64
	muted  bool
	repeat domain.RepeatMode

	// Load bookkeeping
	gen           uint64
	cancelResolve context.CancelFunc
	progress      *rate.Limiter
	closed        bool
	wg            sync.WaitGroup

	// pending holds side effects (publishes, notifications) to run once mu is released.
	pending []func()
}

// NewPlaybackService creates an Idle engine with an empty queue.
func NewPlaybackService(
	logger *slog.Logger,
	engine ports.MediaEngine,
	resolver ports.LocatorResolver,
	rates ports.RateTable,
	notifier ports.Notifier,
	bus ports.EventBus,
	meter *AccrualMeter,
	cfg PlaybackConfig,
) *PlaybackService {
	if cfg.ProgressInterval <= 0 {
		cfg.ProgressInterval = DefaultPlaybackConfig().ProgressInterval
	}
	if cfg.Volume < 0 || cfg.Volume > 1 {
		cfg.Volume = DefaultPlaybackConfig().Volume
	}

	s := &PlaybackService{
		logger:   logger.With(slog.String("service", "playback")),
		engine:   engine,
		resolver: resolver,
		rates:    rates,
		notifier: notifier,
		bus:      bus,
		meter:    meter,
		cfg:      cfg,
		index:    -1,
		volume:   cfg.Volume,
		repeat:   cfg.Repeat,
		progress: rate.NewLimiter(rate.Every(cfg.ProgressInterval), 1),
	}
	s.logger.Debug("playback service initialized")
	return s
}

// lock and unlock wrap mu; unlock runs queued side effects after releasing it.
func (s *PlaybackService) lock() { s.mu.Lock() }

func (s *PlaybackService) unlock() {
	pending := s.pending
	s.pending = nil
	s.mu.Unlock()

	for _, fn := range pending {
		fn()
	}
}

func (s *PlaybackService) publish(event domain.Event) {
	s.pending = append(s.pending, func() { s.bus.Publish(event) })
}

func (s *PlaybackService) notify(kind domain.NotificationKind, message string) {
	s.pending = append(s.pending, func() { s.notifier.Notify(kind, message) })
}

// LoadQueue replaces the queue and starts loading tracks[startIndex], playing
// it once ready. An empty queue is ignored.
func (s *PlaybackService) LoadQueue(tracks []domain.Track, startIndex int) error {
	if len(tracks) == 0 {
		s.logger.Debug("ignoring empty queue")
		return nil
	}
	if startIndex < 0 || startIndex >= len(tracks) {
		return domain.ErrInvalidIndex
	}

	s.lock()
	defer s.unlock()
	if s.closed {
		return domain.ErrNotInitialized
	}

	s.queue = append([]domain.Track(nil), tracks...)
	s.index = startIndex
	s.publish(domain.NewQueueChangedEvent(append([]domain.Track(nil), s.queue...), startIndex))
	s.loadLocked(true)
	return nil
}

// TogglePlayPause pauses a playing track and plays a paused one.
// It is a no-op without a current track and is rejected while loading.
// A track whose load failed is loaded again.
func (s *PlaybackService) TogglePlayPause() error {
	s.lock()
	defer s.unlock()

	if s.currentLocked() == nil {
		return nil
	}
	switch {
	case s.status == domain.StatusLoading:
		return domain.ErrTrackLoading
	case s.failed:
		s.logger.Info("retrying failed track", slog.String("track_id", s.queue[s.index].ID))
		s.loadLocked(true)
	case s.status == domain.StatusPlaying:
		s.pauseLocked()
	default:
		s.playLocked()
	}
	return nil
}

// Play resumes a paused track. It does nothing if already playing.
func (s *PlaybackService) Play() error {
	s.lock()
	defer s.unlock()

	if s.currentLocked() == nil {
		return domain.ErrNoTrackLoaded
	}
	switch {
	case s.status == domain.StatusLoading:
		s.intent = true
	case s.failed:
		s.loadLocked(true)
	case s.status == domain.StatusPaused:
		s.playLocked()
	}
	return nil
}

// Pause pauses a playing track. It does nothing if already paused.
func (s *PlaybackService) Pause() error {
	s.lock()
	defer s.unlock()

	if s.currentLocked() == nil {
		return domain.ErrNoTrackLoaded
	}
	switch s.status {
	case domain.StatusLoading:
		s.intent = false
	case domain.StatusPlaying:
		s.pauseLocked()
	}
	return nil
}

// Next advances circularly and plays.
func (s *PlaybackService) Next() error {
	return s.skip(1)
}

// Previous steps back circularly and plays.
func (s *PlaybackService) Previous() error {
	return s.skip(-1)
}

func (s *PlaybackService) skip(step int) error {
	s.lock()
	defer s.unlock()

	n := len(s.queue)
	if n == 0 {
		return nil
	}
	switch {
	case s.index < 0 && step > 0:
		s.index = 0
	case s.index < 0:
		s.index = n - 1
	default:
		s.index = (s.index + step + n) % n
	}
	s.loadLocked(true)
	return nil
}

// Seek moves the playback position, clamped to [0, duration].
// The position is updated immediately even if the media is not ready yet.
func (s *PlaybackService) Seek(position time.Duration) error {
	s.lock()
	defer s.unlock()

	if s.currentLocked() == nil {
		return domain.ErrNoTrackLoaded
	}

	s.currentTime = s.clampLocked(position)
	s.lastPos = s.currentTime
	if s.media != nil && s.status != domain.StatusLoading {
		if err := s.media.Seek(s.currentTime); err != nil {
			s.logger.Warn("media seek failed", slog.Any("error", err))
		}
	}
	s.publish(domain.NewTrackProgressEvent(s.currentTime, s.duration))
	return nil
}

// SetVolume sets the stored volume (0.0 to 1.0). Mute state is left alone.
func (s *PlaybackService) SetVolume(volume float64) error {
	if volume < 0.0 || volume > 1.0 {
		return domain.ErrInvalidVolume
	}

	s.lock()
	defer s.unlock()

	s.volume = volume
	if s.media != nil {
		if err := s.media.SetVolume(volume); err != nil {
			s.logger.Warn("media volume failed", slog.Any("error", err))
		}
	}
	s.publish(domain.NewVolumeChangedEvent(volume))
	return nil
}

// ToggleMute flips the mute state. The stored volume is unchanged.
func (s *PlaybackService) ToggleMute() bool {
	s.lock()
	defer s.unlock()

	s.setMutedLocked(!s.muted)
	return s.muted
}

// SetMuted sets the mute state.
func (s *PlaybackService) SetMuted(muted bool) {
	s.lock()
	defer s.unlock()

	if s.muted != muted {
		s.setMutedLocked(muted)
	}
}

func (s *PlaybackService) setMutedLocked(muted bool) {
	s.muted = muted
	if s.media != nil {
		if err := s.media.SetMuted(muted); err != nil {
			s.logger.Warn("media mute failed", slog.Any("error", err))
		}
	}
	s.publish(domain.NewMuteToggledEvent(muted))
}

// SetRepeat sets the end-of-track behavior.
func (s *PlaybackService) SetRepeat(mode domain.RepeatMode) {
	s.lock()
	defer s.unlock()

	if s.repeat == mode {
		return
	}
	s.repeat = mode
	s.publish(domain.NewRepeatChangedEvent(mode))
}

// State returns a snapshot of the engine.
func (s *PlaybackService) State() domain.PlaybackState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := domain.PlaybackState{
		CurrentIndex: s.index,
		QueueLength:  len(s.queue),
		Status:       s.status,
		IsPlaying:    s.intent,
		CurrentTime:  s.currentTime,
		Duration:     s.duration,
		Volume:       s.volume,
		IsMuted:      s.muted,
		IsBuffering:  s.buffering,
		Repeat:       s.repeat,
	}
	if t := s.currentLocked(); t != nil {
		track := *t
		state.CurrentTrack = &track
	}
	return state
}

// Queue returns a copy of the queue.
func (s *PlaybackService) Queue() []domain.Track {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Track(nil), s.queue...)
}

// Accrual returns the meter snapshot.
func (s *PlaybackService) Accrual() domain.AccrualState {
	return s.meter.State()
}

// ResetAccrual zeroes the session total.
func (s *PlaybackService) ResetAccrual() domain.Amount {
	previous := s.meter.Reset()
	s.bus.Publish(domain.NewAccrualResetEvent(previous))
	return previous
}

// Shutdown abandons any load in flight, closes the media and stops the meter.
func (s *PlaybackService) Shutdown() error {
	s.lock()
	if s.closed {
		s.unlock()
		return nil
	}
	s.closed = true
	s.gen++
	s.intent = false
	s.releaseLocked()
	s.unlock()

	s.wg.Wait()
	s.meter.Close()
	s.logger.Debug("playback service shut down")
	return nil
}

func (s *PlaybackService) currentLocked() *domain.Track {
	if s.index < 0 || s.index >= len(s.queue) {
		return nil
	}
	return &s.queue[s.index]
}

func (s *PlaybackService) clampLocked(position time.Duration) time.Duration {
	if position < 0 {
		return 0
	}
	if s.duration > 0 && position > s.duration {
		return s.duration
	}
	return position
}

// releaseLocked cancels resolution, detaches and closes the media and stops charging.
func (s *PlaybackService) releaseLocked() {
	if s.cancelResolve != nil {
		s.cancelResolve()
		s.cancelResolve = nil
	}
	if s.media != nil {
		if err := s.media.Close(); err != nil {
			s.logger.Warn("media close failed", slog.Any("error", err))
		}
		s.media = nil
	}
	s.url = ""
	s.meter.Stop()
}

// loadLocked switches to queue[index]: Loading, position zero, a fresh resolve.
func (s *PlaybackService) loadLocked(autoplay bool) {
	track := s.queue[s.index]

	s.gen++
	s.releaseLocked()
	s.meter.ClearRate()

	s.status = domain.StatusLoading
	s.intent = autoplay
	s.failed = false
	s.currentTime = 0
	s.duration = 0
	s.buffering = true
	s.played = 0
	s.lastPos = 0

	s.logger.Info("loading track",
		slog.String("track_id", track.ID),
		slog.Int("index", s.index),
		slog.String("locator", track.AudioLocator))
	s.publish(domain.NewTrackLoadingEvent(track, s.index))

	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.cfg.ResolveTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), s.cfg.ResolveTimeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	s.cancelResolve = cancel

	gen := s.gen
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer cancel()
		url, err := s.resolver.Resolve(ctx, track.AudioLocator)
		s.onResolved(gen, track, url, err)
	}()
}

func (s *PlaybackService) onResolved(gen uint64, track domain.Track, url string, err error) {
	s.lock()
	defer s.unlock()

	if gen != s.gen || s.closed {
		s.logger.Debug("discarding stale resolution", slog.String("track_id", track.ID))
		return
	}
	s.cancelResolve = nil

	if err != nil {
		s.failLocked(track, domain.NotifyResolutionError, domain.NewResolutionError(track.AudioLocator, err))
		return
	}

	entry, ok := s.rates.Lookup(track.ID)
	if !ok {
		entry = domain.RateEntry{Rate: domain.DefaultRate}
	}
	s.meter.SetRate(track.ID, entry)
	s.publish(domain.NewAccrualRateChangedEvent(track.ID, entry.Rate, entry.Tier))

	media, err := s.engine.Open(url, s.listener(gen))
	if err != nil {
		s.failLocked(track, domain.NotifyPlaybackError, domain.NewMediaError("open", url, err))
		return
	}
	s.media = media
	s.url = url
	if err := media.SetVolume(s.volume); err != nil {
		s.logger.Warn("media volume failed", slog.Any("error", err))
	}
	if err := media.SetMuted(s.muted); err != nil {
		s.logger.Warn("media mute failed", slog.Any("error", err))
	}
	s.logger.Debug("media opened", slog.String("track_id", track.ID), slog.String("url", url))
}

// failLocked parks the engine in Paused after a failure and notifies once.
func (s *PlaybackService) failLocked(track domain.Track, kind domain.NotificationKind, err error) {
	s.releaseLocked()
	s.status = domain.StatusPaused
	s.intent = false
	s.failed = true
	s.buffering = false

	s.logger.Warn("track failed", slog.String("track_id", track.ID), slog.Any("error", err))
	s.notify(kind, err.Error())
	s.publish(domain.NewTrackErrorEvent(track, kind, err))
}

func (s *PlaybackService) listener(gen uint64) ports.MediaListener {
	return func(ev ports.MediaEvent) {
		s.lock()
		defer s.unlock()

		if gen != s.gen || s.closed || s.media == nil {
			return
		}
		track := s.queue[s.index]

		switch ev.Kind {
		case ports.MediaReady:
			s.onReadyLocked(track, ev.Duration)
		case ports.MediaWaiting:
			if !s.buffering {
				s.buffering = true
				s.meter.Stop()
				s.publish(domain.NewTrackBufferingEvent(track, true))
			}
		case ports.MediaCanPlay:
			if s.buffering && s.status != domain.StatusLoading {
				s.buffering = false
				if s.status == domain.StatusPlaying {
					s.meter.Start()
				}
				s.publish(domain.NewTrackBufferingEvent(track, false))
			}
		case ports.MediaTimeUpdate:
			s.currentTime = s.clampLocked(ev.Position)
			if s.status == domain.StatusPlaying && s.currentTime > s.lastPos {
				s.played += s.currentTime - s.lastPos
			}
			s.lastPos = s.currentTime
			if s.progress.Allow() {
				s.publish(domain.NewTrackProgressEvent(s.currentTime, s.duration))
			}
		case ports.MediaEnded:
			s.onEndedLocked(track)
		case ports.MediaFailed:
			s.failLocked(track, domain.NotifyPlaybackError, domain.NewMediaError("play", s.url, ev.Err))
		}
	}
}

func (s *PlaybackService) onReadyLocked(track domain.Track, duration time.Duration) {
	if s.status != domain.StatusLoading {
		return
	}
	s.duration = duration
	s.buffering = false
	s.currentTime = s.clampLocked(s.currentTime)
	s.lastPos = s.currentTime
	if s.currentTime > 0 {
		if err := s.media.Seek(s.currentTime); err != nil {
			s.logger.Warn("media seek failed", slog.Any("error", err))
		}
	}

	s.status = domain.StatusPaused
	s.publish(domain.NewTrackReadyEvent(track, duration))
	if s.intent {
		s.playLocked()
	}
}

func (s *PlaybackService) playLocked() {
	track := s.queue[s.index]
	if err := s.media.Play(); err != nil {
		s.failLocked(track, domain.NotifyPlaybackError, domain.NewMediaError("play", s.url, err))
		return
	}
	s.status = domain.StatusPlaying
	s.intent = true
	if !s.buffering {
		s.meter.Start()
	}
	s.logger.Info("track started", slog.String("track_id", track.ID))
	s.publish(domain.NewTrackStartedEvent(track))
}

func (s *PlaybackService) pauseLocked() {
	track := s.queue[s.index]
	if err := s.media.Pause(); err != nil {
		s.logger.Warn("media pause failed", slog.Any("error", err))
	}
	s.meter.Stop()
	s.status = domain.StatusPaused
	s.intent = false
	s.publish(domain.NewTrackPausedEvent(track, s.currentTime))
}

// onEndedLocked settles the track's charge and advances the queue according
// to the repeat mode.
func (s *PlaybackService) onEndedLocked(track domain.Track) {
	// The end can arrive just before the ticker's last whole second.
	if tick, ok := s.meter.Settle(int(s.played / AccrualInterval)); ok {
		s.publish(tick)
	}
	if s.duration > 0 {
		s.currentTime = s.duration
	}
	s.publish(domain.NewTrackCompletedEvent(track, s.index))

	n := len(s.queue)
	switch {
	case s.repeat == domain.RepeatOne:
	case s.repeat == domain.RepeatOff && s.index == n-1:
		s.gen++
		s.releaseLocked()
		s.meter.ClearRate()
		s.index = -1
		s.status = domain.StatusIdle
		s.intent = false
		s.failed = false
		s.buffering = false
		s.currentTime = 0
		s.duration = 0
		s.played = 0
		s.lastPos = 0
		s.logger.Info("queue finished")
		s.publish(domain.NewPlayerIdleEvent())
		return
	default:
		s.index = (s.index + 1) % n
	}
	s.loadLocked(true)
}

var _ interface {
	LoadQueue([]domain.Track, int) error
	TogglePlayPause() error
	Play() error
	Pause() error
	Next() error
	Previous() error
	Seek(time.Duration) error
	SetVolume(float64) error
	ToggleMute() bool
	SetMuted(bool)
	SetRepeat(domain.RepeatMode)
	State() domain.PlaybackState
	Queue() []domain.Track
	Accrual() domain.AccrualState
	ResetAccrual() domain.Amount
	Shutdown() error
} = (*PlaybackService)(nil)

package service

import (
	"context"
	"log/slog"
	"sync"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// PreferenceService holds the per-user settings record.
//
// The sidebar-collapsed flag is an observable value: every change is published
// once as a SidebarToggledEvent and OnSidebarChange subscribes to exactly that.
// Volume, mute and repeat changes made on the player are picked up from the
// bus and written through.
// All operations are thread-safe via sync.RWMutex.
type PreferenceService struct {
	// Dependencies (injected)
	logger     *slog.Logger
	repository ports.PreferencesRepository
	bus        ports.EventBus

	// Cached preferences of the open session
	userID string
	prefs  ports.Preferences

	// Concurrency control
	mu sync.RWMutex

	// Event subscriptions
	subs []domain.SubscriptionID
}

// NewPreferenceService creates a preference service holding the defaults of a guest.
func NewPreferenceService(
	logger *slog.Logger,
	repository ports.PreferencesRepository,
	bus ports.EventBus,
) *PreferenceService {
	s := &PreferenceService{
		logger:     logger.With(slog.String("service", "preferences")),
		repository: repository,
		bus:        bus,
		userID:     domain.GuestIdentity,
		prefs:      ports.DefaultPreferences(),
	}

	s.subs = append(s.subs,
		bus.Subscribe(domain.EventVolumeChanged, s.handleVolumeChanged),
		bus.Subscribe(domain.EventMuteToggled, s.handleMuteToggled),
		bus.Subscribe(domain.EventRepeatChanged, s.handleRepeatChanged),
	)

	s.logger.Debug("preference service initialized")
	return s
}

// OpenSession loads the preferences of user (guest when nil).
// A failed read keeps the defaults.
func (s *PreferenceService) OpenSession(ctx context.Context, user *domain.User) ports.Preferences {
	userID := user.StorageKey()

	prefs, err := s.repository.Load(ctx, userID)
	if err != nil {
		s.logger.Warn("failed to load preferences, using defaults",
			slog.String("user_id", userID), slog.Any("error", err))
		prefs = ports.DefaultPreferences()
	}

	s.mu.Lock()
	s.userID = userID
	changed := s.prefs.SidebarCollapsed != prefs.SidebarCollapsed
	s.prefs = prefs
	s.mu.Unlock()

	if changed {
		s.bus.Publish(domain.NewSidebarToggledEvent(prefs.SidebarCollapsed))
	}
	return prefs
}

// Preferences returns the cached record.
func (s *PreferenceService) Preferences() ports.Preferences {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs
}

// Repeat returns the saved repeat mode.
func (s *PreferenceService) Repeat() domain.RepeatMode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	mode, err := domain.ParseRepeatMode(s.prefs.Repeat)
	if err != nil {
		return domain.RepeatAll
	}
	return mode
}

// SidebarCollapsed returns the current sidebar state.
func (s *PreferenceService) SidebarCollapsed() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.prefs.SidebarCollapsed
}

// SetSidebarCollapsed stores the sidebar state and notifies observers if it changed.
func (s *PreferenceService) SetSidebarCollapsed(ctx context.Context, collapsed bool) {
	s.mu.Lock()
	if s.prefs.SidebarCollapsed == collapsed {
		s.mu.Unlock()
		return
	}
	s.prefs.SidebarCollapsed = collapsed
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.bus.Publish(domain.NewSidebarToggledEvent(collapsed))
}

// ToggleSidebar flips the sidebar state and returns the new value.
func (s *PreferenceService) ToggleSidebar(ctx context.Context) bool {
	s.mu.Lock()
	collapsed := !s.prefs.SidebarCollapsed
	s.prefs.SidebarCollapsed = collapsed
	s.persistLocked(ctx)
	s.mu.Unlock()

	s.bus.Publish(domain.NewSidebarToggledEvent(collapsed))
	return collapsed
}

// OnSidebarChange calls fn with every new sidebar state until the returned
// function is called.
func (s *PreferenceService) OnSidebarChange(fn func(collapsed bool)) (cancel func()) {
	id := s.bus.Subscribe(domain.EventSidebarToggled, func(e domain.Event) {
		if ev, ok := e.(domain.SidebarToggledEvent); ok {
			fn(ev.Collapsed)
		}
	})
	var once sync.Once
	return func() { once.Do(func() { s.bus.Unsubscribe(id) }) }
}

// Reset clears the saved record and restores the defaults.
func (s *PreferenceService) Reset(ctx context.Context) error {
	s.mu.Lock()
	userID := s.userID
	wasCollapsed := s.prefs.SidebarCollapsed
	s.prefs = ports.DefaultPreferences()
	s.mu.Unlock()

	if err := s.repository.Clear(ctx, userID); err != nil {
		return domain.NewServiceError("PreferenceService", "Reset", "failed to clear preferences", err)
	}
	if wasCollapsed {
		s.bus.Publish(domain.NewSidebarToggledEvent(false))
	}
	s.logger.Info("preferences reset", slog.String("user_id", userID))
	return nil
}

// Shutdown unsubscribes from the bus.
func (s *PreferenceService) Shutdown() error {
	s.mu.Lock()
	subs := s.subs
	s.subs = nil
	s.mu.Unlock()

	for _, id := range subs {
		s.bus.Unsubscribe(id)
	}
	return nil
}

func (s *PreferenceService) handleVolumeChanged(e domain.Event) {
	ev, ok := e.(domain.VolumeChangedEvent)
	if !ok {
		return
	}
	s.update(func(p *ports.Preferences) bool {
		if p.Volume == ev.Volume {
			return false
		}
		p.Volume = ev.Volume
		return true
	})
}

func (s *PreferenceService) handleMuteToggled(e domain.Event) {
	ev, ok := e.(domain.MuteToggledEvent)
	if !ok {
		return
	}
	s.update(func(p *ports.Preferences) bool {
		if p.Muted == ev.Muted {
			return false
		}
		p.Muted = ev.Muted
		return true
	})
}

func (s *PreferenceService) handleRepeatChanged(e domain.Event) {
	ev, ok := e.(domain.RepeatChangedEvent)
	if !ok {
		return
	}
	s.update(func(p *ports.Preferences) bool {
		if p.Repeat == ev.Mode.String() {
			return false
		}
		p.Repeat = ev.Mode.String()
		return true
	})
}

func (s *PreferenceService) update(apply func(p *ports.Preferences) bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if apply(&s.prefs) {
		s.persistLocked(context.Background())
	}
}

// persistLocked writes the record. Failures are logged only.
func (s *PreferenceService) persistLocked(ctx context.Context) {
	if err := s.repository.Save(ctx, s.userID, s.prefs); err != nil {
		s.logger.Warn("failed to persist preferences",
			slog.String("user_id", s.userID), slog.Any("error", err))
	}
}

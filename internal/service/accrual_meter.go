package service

import (
	"log/slog"
	"sync"
	"time"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// AccrualInterval is the billing granularity of the meter.
const AccrualInterval = time.Second

// AccrualMeter accumulates the simulated per-second charge while a track plays.
//
// At most one ticker goroutine runs at a time. Start replaces a running ticker
// and Stop guarantees no increment happens after it returns. Partial seconds
// are never charged.
type AccrualMeter struct {
	logger    *slog.Logger
	bus       ports.EventBus
	newTicker ports.TickerFactory

	mu      sync.Mutex
	trackID string
	rate    *domain.Amount
	tier    domain.Tier
	total   domain.Amount
	charged int
	ticker  ports.Ticker
	stop    chan struct{}
	closed  bool

	wg sync.WaitGroup
}

// NewAccrualMeter creates a stopped meter with a zero total.
// newTicker defaults to the wall clock when nil.
func NewAccrualMeter(logger *slog.Logger, bus ports.EventBus, newTicker ports.TickerFactory) *AccrualMeter {
	if newTicker == nil {
		newTicker = NewSystemTicker
	}
	return &AccrualMeter{
		logger:    logger.With(slog.String("service", "accrual")),
		bus:       bus,
		newTicker: newTicker,
	}
}

// SetRate installs the rate of the current track. A running ticker keeps running
// and charges the new rate from its next tick.
func (m *AccrualMeter) SetRate(trackID string, entry domain.RateEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rate := entry.Rate
	m.trackID = trackID
	m.charged = 0
	m.rate = &rate
	m.tier = entry.Tier
	m.logger.Debug("rate set",
		slog.String("track_id", trackID),
		slog.String("rate", rate.String()),
		slog.String("tier", string(entry.Tier)))
}

// ClearRate forgets the current rate and stops the ticker.
func (m *AccrualMeter) ClearRate() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	m.trackID = ""
	m.charged = 0
	m.rate = nil
	m.tier = ""
}

// Start begins charging once per second. It returns false, and does nothing,
// when no rate is set or the meter is closed.
func (m *AccrualMeter) Start() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed || m.rate == nil {
		return false
	}
	m.stopLocked()

	ticker := m.newTicker(AccrualInterval)
	stop := make(chan struct{})
	m.ticker = ticker
	m.stop = stop

	m.wg.Add(1)
	go m.run(ticker, stop)
	return true
}

func (m *AccrualMeter) run(ticker ports.Ticker, stop chan struct{}) {
	defer m.wg.Done()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C():
			m.tick(stop)
		}
	}
}

func (m *AccrualMeter) tick(stop chan struct{}) {
	m.mu.Lock()
	select {
	case <-stop:
		m.mu.Unlock()
		return
	default:
	}
	if m.rate == nil {
		m.mu.Unlock()
		return
	}
	m.total += *m.rate
	m.charged++
	event := domain.NewAccrualTickEvent(*m.rate, m.total)
	m.mu.Unlock()

	if m.bus != nil {
		m.bus.Publish(event)
	}
}

// Settle stops the meter and charges any of the given whole seconds of the
// current track that the ticker has not charged yet. The returned event is
// not published; ok is false when nothing was owed.
func (m *AccrualMeter) Settle(seconds int) (event domain.AccrualTickEvent, ok bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stopLocked()
	owed := seconds - m.charged
	if m.rate == nil || owed <= 0 {
		return event, false
	}
	m.total += domain.Amount(owed) * *m.rate
	m.charged = seconds
	m.logger.Debug("accrual settled",
		slog.String("track_id", m.trackID),
		slog.Int("seconds", owed),
		slog.String("total", m.total.String()))
	return domain.NewAccrualTickEvent(*m.rate, m.total), true
}

// Charged returns the whole seconds charged for the current track.
func (m *AccrualMeter) Charged() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.charged
}

// Stop halts charging. It does not wait for the ticker goroutine to exit.
func (m *AccrualMeter) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
}

func (m *AccrualMeter) stopLocked() {
	if m.stop == nil {
		return
	}
	close(m.stop)
	m.ticker.Stop()
	m.stop = nil
	m.ticker = nil
}

// Running reports whether a ticker is active.
func (m *AccrualMeter) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.stop != nil
}

// Total returns the amount accrued this session.
func (m *AccrualMeter) Total() domain.Amount {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.total
}

// State returns a snapshot of the meter.
func (m *AccrualMeter) State() domain.AccrualState {
	m.mu.Lock()
	defer m.mu.Unlock()

	state := domain.AccrualState{Tier: m.tier, Total: m.total}
	if m.rate != nil {
		rate := *m.rate
		state.Rate = &rate
	}
	return state
}

// Reset zeroes the total and returns the previous value.
func (m *AccrualMeter) Reset() domain.Amount {
	m.mu.Lock()
	defer m.mu.Unlock()

	previous := m.total
	m.total = 0
	m.logger.Info("accrual reset", slog.String("previous", previous.String()))
	return previous
}

// Close stops the meter and waits for the ticker goroutine to exit.
// Must not be called while holding a lock a tick handler may need.
func (m *AccrualMeter) Close() {
	m.mu.Lock()
	m.closed = true
	m.stopLocked()
	m.mu.Unlock()

	m.wg.Wait()
}

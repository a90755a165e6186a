// Package mock provides a simulated implementation of the MediaEngine interface.
// Nothing is decoded or played: buffering, progress, end and failure are driven
// either by test code or, in realtime mode, by a wall-clock goroutine per media.
package mock

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// Option configures an Engine.
type Option func(*Engine)

// WithRealtime makes every opened media buffer for bufferDelay, then report
// progress every step while playing and end after duration(url).
func WithRealtime(bufferDelay, step time.Duration, duration func(url string) time.Duration) Option {
	return func(e *Engine) {
		e.realtime = true
		e.bufferDelay = bufferDelay
		e.step = step
		if duration != nil {
			e.duration = duration
		}
	}
}

// Engine is a simulated media engine.
//
// Thread-safety: This implementation is thread-safe.
type Engine struct {
	logger *slog.Logger

	realtime    bool
	bufferDelay time.Duration
	step        time.Duration
	duration    func(url string) time.Duration

	mu       sync.Mutex
	media    []*Media
	opened   chan *Media
	failOpen error
	failPlay error
	closed   bool

	wg sync.WaitGroup
}

// NewEngine creates a new simulated engine.
func NewEngine(logger *slog.Logger, opts ...Option) *Engine {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	e := &Engine{
		logger:   logger.With(slog.String("adapter", "media.mock")),
		opened:   make(chan *Media, 64),
		duration: func(string) time.Duration { return 30 * time.Second },
		step:     250 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// SetFailOpen makes the next Open calls fail with err (nil restores success).
func (e *Engine) SetFailOpen(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failOpen = err
}

// SetFailPlay makes Play on every media fail with err (nil restores success).
func (e *Engine) SetFailPlay(err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failPlay = err
}

// Open implements ports.MediaEngine.
func (e *Engine) Open(url string, listener ports.MediaListener) (ports.Media, error) {
	if listener == nil {
		return nil, errors.New("media listener cannot be nil")
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.closed {
		return nil, domain.ErrMediaClosed
	}
	if e.failOpen != nil {
		return nil, e.failOpen
	}

	m := &Media{
		engine:   e,
		id:       len(e.media) + 1,
		url:      url,
		listener: listener,
		volume:   1.0,
		done:     make(chan struct{}),
	}
	e.media = append(e.media, m)
	e.logger.Debug("media opened", slog.Int("media_id", m.id), slog.String("url", url))

	if e.realtime {
		e.wg.Add(1)
		go m.simulate(e.bufferDelay, e.step, e.duration(url))
	}

	select {
	case e.opened <- m:
	default:
	}
	return m, nil
}

// Opened delivers every media as it is opened.
func (e *Engine) Opened() <-chan *Media {
	return e.opened
}

// Last returns the most recently opened media, or nil.
func (e *Engine) Last() *Media {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.media) == 0 {
		return nil
	}
	return e.media[len(e.media)-1]
}

// OpenCount returns how many media were opened.
func (e *Engine) OpenCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.media)
}

// OpenMedia returns the media that have not been closed.
func (e *Engine) OpenMedia() []*Media {
	e.mu.Lock()
	all := append([]*Media(nil), e.media...)
	e.mu.Unlock()

	var open []*Media
	for _, m := range all {
		if !m.Closed() {
			open = append(open, m)
		}
	}
	return open
}

// Shutdown closes every media and waits for realtime goroutines.
func (e *Engine) Shutdown() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	all := append([]*Media(nil), e.media...)
	e.mu.Unlock()

	for _, m := range all {
		_ = m.Close()
	}
	e.wg.Wait()
	return nil
}

func (e *Engine) playError() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.failPlay
}

var _ ports.MediaEngine = (*Engine)(nil)

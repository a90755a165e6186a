package mock

import (
	"sync"
	"time"

	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/ports"
)

// Media is one simulated media resource.
type Media struct {
	engine *Engine
	id     int
	url    string

	mu       sync.Mutex
	listener ports.MediaListener
	duration time.Duration
	position time.Duration
	volume   float64
	muted    bool
	playing  bool
	closed   bool
	seeks    []time.Duration
	done     chan struct{}
}

// URL returns the URL the media was opened with.
func (m *Media) URL() string { return m.url }

// Play implements ports.Media.
func (m *Media) Play() error {
	if err := m.engine.playError(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return domain.ErrMediaClosed
	}
	m.playing = true
	return nil
}

// Pause implements ports.Media.
func (m *Media) Pause() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return domain.ErrMediaClosed
	}
	m.playing = false
	return nil
}

// Seek implements ports.Media.
func (m *Media) Seek(position time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return domain.ErrMediaClosed
	}
	m.position = position
	m.seeks = append(m.seeks, position)
	return nil
}

// SetVolume implements ports.Media.
func (m *Media) SetVolume(volume float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return domain.ErrMediaClosed
	}
	m.volume = volume
	return nil
}

// SetMuted implements ports.Media.
func (m *Media) SetMuted(muted bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return domain.ErrMediaClosed
	}
	m.muted = muted
	return nil
}

// Position implements ports.Media.
func (m *Media) Position() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.position
}

// Close implements ports.Media. It is idempotent.
func (m *Media) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	m.playing = false
	m.listener = nil
	close(m.done)
	return nil
}

// Closed reports whether Close was called.
func (m *Media) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// Playing reports whether the media is playing.
func (m *Media) Playing() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.playing
}

// Volume returns the applied volume.
func (m *Media) Volume() float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.volume
}

// Muted reports whether output is muted.
func (m *Media) Muted() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.muted
}

// Seeks returns every position passed to Seek.
func (m *Media) Seeks() []time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]time.Duration(nil), m.seeks...)
}

// CompleteBuffering reports the media ready with the given duration.
func (m *Media) CompleteBuffering(duration time.Duration) bool {
	m.mu.Lock()
	m.duration = duration
	m.mu.Unlock()
	return m.emit(ports.MediaEvent{Kind: ports.MediaReady, Duration: duration})
}

// Stall reports that playback ran out of data.
func (m *Media) Stall() bool {
	return m.emit(ports.MediaEvent{Kind: ports.MediaWaiting})
}

// Resume reports that data is available again after a stall.
func (m *Media) Resume() bool {
	return m.emit(ports.MediaEvent{Kind: ports.MediaCanPlay})
}

// Advance moves the position forward by d, capped at the duration, and reports it.
func (m *Media) Advance(d time.Duration) bool {
	m.mu.Lock()
	m.position += d
	if m.duration > 0 && m.position > m.duration {
		m.position = m.duration
	}
	pos := m.position
	m.mu.Unlock()
	return m.emit(ports.MediaEvent{Kind: ports.MediaTimeUpdate, Position: pos})
}

// End reports that playback reached the end.
func (m *Media) End() bool {
	m.mu.Lock()
	m.position = m.duration
	m.playing = false
	m.mu.Unlock()
	return m.emit(ports.MediaEvent{Kind: ports.MediaEnded})
}

// Fail reports a decode or network failure.
func (m *Media) Fail(err error) bool {
	return m.emit(ports.MediaEvent{Kind: ports.MediaFailed, Err: err})
}

// emit delivers ev on the caller's goroutine. It returns false once the media is closed.
func (m *Media) emit(ev ports.MediaEvent) bool {
	m.mu.Lock()
	listener := m.listener
	closed := m.closed
	m.mu.Unlock()

	if closed || listener == nil {
		return false
	}
	listener(ev)
	return true
}

// simulate drives the media on the wall clock until it ends or is closed.
func (m *Media) simulate(bufferDelay, step time.Duration, duration time.Duration) {
	defer m.engine.wg.Done()

	select {
	case <-m.done:
		return
	case <-time.After(bufferDelay):
	}
	m.CompleteBuffering(duration)

	ticker := time.NewTicker(step)
	defer ticker.Stop()
	for {
		select {
		case <-m.done:
			return
		case <-ticker.C:
			if !m.Playing() {
				continue
			}
			m.Advance(step)
			if m.Position() >= duration {
				m.End()
				return
			}
		}
	}
}

var _ ports.Media = (*Media)(nil)

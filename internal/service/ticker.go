package service

import (
	"time"

	"github.com/echoverse/echoverse/internal/ports"
)

type systemTicker struct {
	t *time.Ticker
}

// NewSystemTicker is the wall-clock ports.TickerFactory.
func NewSystemTicker(d time.Duration) ports.Ticker {
	return systemTicker{t: time.NewTicker(d)}
}

func (s systemTicker) C() <-chan time.Time { return s.t.C }
func (s systemTicker) Stop()               { s.t.Stop() }

var _ ports.TickerFactory = NewSystemTicker

package service

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/echoverse/echoverse/internal/adapter/eventbus"
	"github.com/echoverse/echoverse/internal/domain"
	"github.com/echoverse/echoverse/internal/logger"
	"github.com/echoverse/echoverse/internal/testutil"
)

func newTestMeter(t *testing.T) (*AccrualMeter, *testutil.ManualClock, *eventbus.SyncEventBus) {
	t.Helper()
	bus := eventbus.NewSyncEventBus(logger.NewTestLogger())
	clock := testutil.NewManualClock()
	meter := NewAccrualMeter(logger.NewTestLogger(), bus, clock.NewTicker)
	t.Cleanup(func() {
		meter.Close()
		_ = bus.Close()
	})
	return meter, clock, bus
}

func waitTotal(t *testing.T, meter *AccrualMeter, want domain.Amount) {
	t.Helper()
	require.Eventually(t, func() bool { return meter.Total() == want },
		time.Second, 5*time.Millisecond, "total never reached %s (now %s)", want, meter.Total())
}

func TestAccrualMeter_StartRequiresRate(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)
	meter, clock, _ := newTestMeter(t)

	assert.False(t, meter.Start())
	assert.False(t, meter.Running())
	assert.Equal(t, 0, clock.Created())
	assert.Nil(t, meter.State().Rate)
}

func TestAccrualMeter_ChargesRatePerTick(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)
	meter, clock, bus := newTestMeter(t)

	var mu sync.Mutex
	var totals []domain.Amount
	bus.Subscribe(domain.EventAccrualTick, func(e domain.Event) {
		mu.Lock()
		defer mu.Unlock()
		totals = append(totals, e.(domain.AccrualTickEvent).Total)
	})

	meter.SetRate("song2", domain.RateEntry{Rate: domain.ETH(0.0003), Tier: domain.TierPremium})
	require.True(t, meter.Start())
	require.Equal(t, 3, clock.TickN(3))

	waitTotal(t, meter, domain.ETH(0.0009))
	state := meter.State()
	require.NotNil(t, state.Rate)
	assert.Equal(t, domain.ETH(0.0003), *state.Rate)
	assert.Equal(t, domain.TierPremium, state.Tier)
	assert.Equal(t, AccrualInterval, clock.Active()[0].Interval)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []domain.Amount{300_000, 600_000, 900_000}, totals)
}

func TestAccrualMeter_StopHaltsCharging(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)
	meter, clock, _ := newTestMeter(t)

	meter.SetRate("song1", domain.RateEntry{Rate: domain.DefaultRate, Tier: domain.TierStandard})
	require.True(t, meter.Start())
	require.True(t, clock.Tick())
	waitTotal(t, meter, domain.DefaultRate)

	meter.Stop()
	assert.False(t, meter.Running())
	assert.False(t, clock.Tick(), "stopped ticker must not deliver")
	assert.Equal(t, domain.DefaultRate, meter.Total())
}

func TestAccrualMeter_StartReplacesTicker(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)
	meter, clock, _ := newTestMeter(t)

	meter.SetRate("song1", domain.RateEntry{Rate: domain.DefaultRate})
	require.True(t, meter.Start())
	require.True(t, meter.Start())
	require.True(t, meter.Start())

	assert.Equal(t, 3, clock.Created())
	assert.Len(t, clock.Active(), 1, "exactly one ticker may be active")

	require.Equal(t, 2, clock.TickN(2))
	waitTotal(t, meter, 2*domain.DefaultRate)
}

func TestAccrualMeter_RateChangeAppliesToNextTick(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)
	meter, clock, _ := newTestMeter(t)

	meter.SetRate("song1", domain.RateEntry{Rate: domain.ETH(0.0001), Tier: domain.TierStandard})
	require.True(t, meter.Start())
	require.True(t, clock.Tick())
	waitTotal(t, meter, domain.ETH(0.0001))

	meter.SetRate("song3", domain.RateEntry{Rate: domain.ETH(0.0005), Tier: domain.TierExclusive})
	require.True(t, clock.Tick())
	waitTotal(t, meter, domain.ETH(0.0006))
}

func TestAccrualMeter_ClearRateStops(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)
	meter, _, _ := newTestMeter(t)

	meter.SetRate("song1", domain.RateEntry{Rate: domain.DefaultRate})
	require.True(t, meter.Start())
	meter.ClearRate()

	assert.False(t, meter.Running())
	assert.Nil(t, meter.State().Rate)
	assert.False(t, meter.Start())
}

func TestAccrualMeter_Reset(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)
	meter, clock, _ := newTestMeter(t)

	meter.SetRate("song1", domain.RateEntry{Rate: domain.DefaultRate})
	require.True(t, meter.Start())
	require.Equal(t, 2, clock.TickN(2))
	waitTotal(t, meter, 2*domain.DefaultRate)

	assert.Equal(t, 2*domain.DefaultRate, meter.Reset())
	assert.Equal(t, domain.Amount(0), meter.Total())
	assert.True(t, meter.Running(), "reset does not stop the meter")
}

func TestAccrualMeter_CloseRefusesStart(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)
	meter, _, _ := newTestMeter(t)

	meter.SetRate("song1", domain.RateEntry{Rate: domain.DefaultRate})
	require.True(t, meter.Start())
	meter.Close()

	assert.False(t, meter.Running())
	assert.False(t, meter.Start())
}

func TestAccrualMeter_SettleChargesMissingSeconds(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)
	meter, clock, _ := newTestMeter(t)

	meter.SetRate("song1", domain.RateEntry{Rate: domain.ETH(0.001), Tier: domain.TierStandard})
	require.True(t, meter.Start())
	require.Equal(t, 4, clock.TickN(4))
	waitTotal(t, meter, domain.ETH(0.004))
	assert.Equal(t, 4, meter.Charged())

	tick, ok := meter.Settle(5)
	require.True(t, ok)
	assert.Equal(t, domain.ETH(0.005), tick.Total)
	assert.Equal(t, domain.ETH(0.001), tick.Rate)
	assert.Equal(t, domain.ETH(0.005), meter.Total())
	assert.False(t, meter.Running(), "settle stops the ticker")

	// Seconds already charged are never charged twice
	_, ok = meter.Settle(5)
	assert.False(t, ok)
	_, ok = meter.Settle(3)
	assert.False(t, ok)
	assert.Equal(t, domain.ETH(0.005), meter.Total())

	// A new track starts its own count
	meter.SetRate("song2", domain.RateEntry{Rate: domain.ETH(0.002), Tier: domain.TierPremium})
	assert.Equal(t, 0, meter.Charged())
	_, ok = meter.Settle(1)
	require.True(t, ok)
	assert.Equal(t, domain.ETH(0.007), meter.Total())
}

func TestAccrualMeter_SettleWithoutRate(t *testing.T) {
	testutil.VerifyNoLeaksOnCleanup(t)
	meter, _, _ := newTestMeter(t)

	_, ok := meter.Settle(10)
	assert.False(t, ok)
	assert.Equal(t, domain.Amount(0), meter.Total())
}

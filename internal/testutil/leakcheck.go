// Package testutil provides testing utilities for the Echoverse module.
package testutil

import (
	"testing"

	"go.uber.org/goleak"
)

// VerifyNoLeaks should be deferred at the start of tests that spawn goroutines.
// It verifies that no goroutines were leaked during the test.
func VerifyNoLeaks(t *testing.T, opts ...goleak.Option) {
	t.Helper()
	goleak.VerifyNone(t, opts...)
}

// IgnoreRedisGoroutines returns goleak options for the go-redis connection pool reaper,
// which outlives a closed client for a short while.
func IgnoreRedisGoroutines() []goleak.Option {
	return []goleak.Option{
		goleak.IgnoreAnyFunction("github.com/redis/go-redis/v9/internal/pool.(*ConnPool).reaper"),
	}
}

// VerifyNoLeaksOnCleanup registers the leak check as a cleanup. Call it first in a
// test so it runs after every cleanup registered later (cleanups run last-in first-out).
func VerifyNoLeaksOnCleanup(t *testing.T, opts ...goleak.Option) {
	t.Helper()
	t.Cleanup(func() { goleak.VerifyNone(t, opts...) })
}

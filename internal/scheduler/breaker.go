package scheduler

import (
	"sync"
	"time"

	"github.com/sitesentry/sitesentry/internal/clock"
	"github.com/sitesentry/sitesentry/internal/config"
)

// breakerState is a per-site circuit breaker's internal state.
type breakerState string

const (
	breakerClosed   breakerState = "closed"
	breakerOpen     breakerState = "open"
	breakerHalfOpen breakerState = "half_open"
)

// breaker implements the per-site circuit breaker: after
// FailureThreshold consecutive failures it opens for
// RecoveryTimeoutSeconds, then allows exactly one probe request; success
// closes it, failure re-opens it.
type breaker struct {
	mu            sync.Mutex
	cfg           config.BreakerConfig
	clock         clock.Clock
	state         breakerState
	failures      int
	openedAt      time.Time
	probeInFlight bool
}

func newBreaker(cfg config.BreakerConfig, c clock.Clock) *breaker {
	return &breaker{cfg: cfg, clock: c, state: breakerClosed}
}

// Allow reports whether a request may proceed right now, and if the
// breaker was open past its recovery timeout, transitions it to
// half-open and marks the returned request as the probe.
func (b *breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerClosed:
		return true
	case breakerHalfOpen:
		return false // a probe is already in flight
	case breakerOpen:
		recovery := time.Duration(b.cfg.RecoveryTimeoutSeconds) * time.Second
		if b.clock.Now().Sub(b.openedAt) < recovery {
			return false
		}
		b.state = breakerHalfOpen
		b.probeInFlight = true
		return true
	}
	return true
}

// RecordSuccess closes the breaker, whether it was closed already or a
// probe just succeeded.
func (b *breaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = breakerClosed
	b.failures = 0
	b.probeInFlight = false
}

// RecordFailure increments the consecutive-failure count and opens the
// breaker once it reaches the configured threshold, or immediately
// re-opens it if the failing request was the half-open probe.
func (b *breaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen {
		b.state = breakerOpen
		b.openedAt = b.clock.Now()
		b.probeInFlight = false
		return
	}

	b.failures++
	threshold := b.cfg.FailureThreshold
	if threshold <= 0 {
		threshold = 5
	}
	if b.failures >= threshold {
		b.state = breakerOpen
		b.openedAt = b.clock.Now()
	}
}

// State reports the breaker's current state for status reporting.
func (b *breaker) State() breakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

package llm

import (
	"sync"
	"time"
)

const (
	defaultFailureThreshold = 5
	defaultOpenTimeout      = 60 * time.Second
)

type breakerState string

const (
	breakerClosed   breakerState = "closed"
	breakerOpen     breakerState = "open"
	breakerHalfOpen breakerState = "half_open"
)

// circuitBreaker is process-local by design: each worker keeps its own
// counters, and at-least-once probing across a fleet is accepted.
type circuitBreaker struct {
	mu        sync.Mutex
	threshold int
	timeout   time.Duration
	now       func() time.Time

	state     breakerState
	failures  int
	openUntil time.Time
}

func newCircuitBreaker(threshold int, timeout time.Duration, now func() time.Time) *circuitBreaker {
	if threshold <= 0 {
		threshold = defaultFailureThreshold
	}
	if timeout <= 0 {
		timeout = defaultOpenTimeout
	}
	if now == nil {
		now = time.Now
	}
	return &circuitBreaker{threshold: threshold, timeout: timeout, now: now, state: breakerClosed}
}

// Allow reports whether a call may proceed. An open breaker whose timeout
// has elapsed moves to half-open and admits exactly this one probe call.
func (b *circuitBreaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	switch b.state {
	case breakerOpen:
		if b.now().Before(b.openUntil) {
			return false
		}
		b.state = breakerHalfOpen
		return true
	case breakerHalfOpen:
		return false
	default:
		return true
	}
}

// IsOpen reports whether calls are currently rejected without transitions.
func (b *circuitBreaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state == breakerOpen && b.now().Before(b.openUntil)
}

func (b *circuitBreaker) RecordSuccess() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = breakerClosed
	b.failures = 0
}

func (b *circuitBreaker) RecordFailure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == breakerHalfOpen {
		b.trip()
		return
	}
	b.failures++
	if b.failures >= b.threshold {
		b.trip()
	}
}

func (b *circuitBreaker) trip() {
	b.state = breakerOpen
	b.openUntil = b.now().Add(b.timeout)
}

func (b *circuitBreaker) State() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.state)
}

package weather

import (
	"sync"
	"time"
)

// CircuitTracker keeps a per-provider record of the last observed failure so
// that a broken provider is not re-attempted on every call. A provider is
// suspended for exactly one cooldown period after each failure; a single
// success fully resets its state. Provider outages here are whole-service
// outages, so there is no half-open probing or success-streak requirement.
type CircuitTracker struct {
	mu          sync.Mutex
	cooldown    time.Duration
	lastFailure map[string]time.Time
}

// NewCircuitTracker creates a tracker with the given cooldown.
func NewCircuitTracker(cooldown time.Duration) *CircuitTracker {
	return &CircuitTracker{
		cooldown:    cooldown,
		lastFailure: make(map[string]time.Time),
	}
}

// Eligible reports whether the provider may be attempted at the given time.
func (t *CircuitTracker) Eligible(provider string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	last, ok := t.lastFailure[provider]
	if !ok {
		return true
	}
	return now.Sub(last) >= t.cooldown
}

// RecordFailure overwrites the provider's last-failure time.
func (t *CircuitTracker) RecordFailure(provider string, now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastFailure[provider] = now
}

// RecordSuccess clears the provider's failure state entirely.
func (t *CircuitTracker) RecordSuccess(provider string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.lastFailure, provider)
}

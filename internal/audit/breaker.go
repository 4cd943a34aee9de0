package audit

import (
	"sync"
	"time"
)

// Breaker is a minimal circuit breaker for the remote audit sink. After
// threshold consecutive failures the sink is disabled for the cooldown
// window; a single success resets the failure count.
type Breaker struct {
	mu            sync.Mutex
	failures      int
	threshold     int
	cooldown      time.Duration
	disabledUntil time.Time

	now func() time.Time
}

// NewBreaker creates a breaker that opens after threshold consecutive
// failures and stays open for the cooldown duration.
func NewBreaker(threshold int, cooldown time.Duration) *Breaker {
	return &Breaker{
		threshold: threshold,
		cooldown:  cooldown,
		now:       time.Now,
	}
}

// Allow reports whether a call may proceed.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return !b.now().Before(b.disabledUntil)
}

// Success resets the failure count.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
}

// Failure registers a failed call, opening the breaker once the threshold
// is reached.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures++
	if b.failures >= b.threshold {
		b.disabledUntil = b.now().Add(b.cooldown)
		b.failures = 0
	}
}

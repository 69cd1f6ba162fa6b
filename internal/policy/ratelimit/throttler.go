package ratelimit

import (
	"sync"
	"time"
)

// window is the throttling horizon: request counts are evaluated over the
// trailing minute.
const window = time.Minute

// Throttler caps how many requests may hit one domain inside the trailing
// one-minute window. It is shared across all source runs and safe for
// concurrent use.
type Throttler struct {
	mu           sync.Mutex
	maxPerMinute int
	requests     map[string][]time.Time

	now func() time.Time
}

// NewThrottler creates a Throttler allowing maxPerMinute requests per domain.
func NewThrottler(maxPerMinute int) *Throttler {
	return &Throttler{
		maxPerMinute: maxPerMinute,
		requests:     make(map[string][]time.Time),
		now:          time.Now,
	}
}

// ShouldThrottle reports whether the domain has exhausted its window budget.
// Expired entries are pruned as a side effect.
func (t *Throttler) ShouldThrottle(domain string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	recent := t.prune(domain)
	return len(recent) >= t.maxPerMinute
}

// RecordRequest logs a request against the domain's window.
func (t *Throttler) RecordRequest(domain string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests[domain] = append(t.requests[domain], t.now())
}

// WaitTime returns how long until the domain's oldest in-window request
// expires and a slot opens. Zero means no wait is needed.
func (t *Throttler) WaitTime(domain string) time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	recent := t.prune(domain)
	if len(recent) < t.maxPerMinute {
		return 0
	}
	return recent[0].Add(window).Sub(t.now())
}

// prune drops entries older than the window and returns what remains.
// Callers must hold t.mu.
func (t *Throttler) prune(domain string) []time.Time {
	cutoff := t.now().Add(-window)
	recent := t.requests[domain][:0]
	for _, ts := range t.requests[domain] {
		if ts.After(cutoff) {
			recent = append(recent, ts)
		}
	}
	t.requests[domain] = recent
	return recent
}

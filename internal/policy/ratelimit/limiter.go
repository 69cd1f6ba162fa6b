// Package ratelimit paces outbound requests: a jittered delay between
// consecutive fetches from one source, plus a per-domain sliding-window
// throttle that caps requests per minute.
package ratelimit

import (
	"context"
	"fmt"
	"math/rand"
	"net/url"
	"sync"
	"time"

	"github.com/openlistings/fsbo-harvester/internal/telemetry"
)

// Limiter enforces a randomized delay between consecutive requests. Each
// source run holds its own Limiter; it is safe for concurrent use.
type Limiter struct {
	mu       sync.Mutex
	domain   string
	minDelay time.Duration
	maxDelay time.Duration
	jitter   bool
	last     time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
	rand  *rand.Rand
}

// NewLimiter creates a Limiter for one pacing bucket (usually a source ID or
// hostname). With jitter enabled each gap is drawn uniformly from
// [minDelay, maxDelay]; without it the gap is always minDelay.
func NewLimiter(domain string, minDelay, maxDelay time.Duration, jitter bool) *Limiter {
	if maxDelay < minDelay {
		maxDelay = minDelay
	}
	return &Limiter{
		domain:   domain,
		minDelay: minDelay,
		maxDelay: maxDelay,
		jitter:   jitter,
		now:      time.Now,
		sleep:    sleepCtx,
		rand:     rand.New(rand.NewSource(time.Now().UnixNano())), //nolint:gosec // pacing, not crypto
	}
}

// Wait blocks until the delay since the previous request has elapsed,
// honoring ctx cancellation. The first call never blocks.
func (l *Limiter) Wait(ctx context.Context) error {
	l.mu.Lock()
	delay := l.minDelay
	if l.jitter && l.maxDelay > l.minDelay {
		delay = l.minDelay + time.Duration(l.rand.Int63n(int64(l.maxDelay-l.minDelay)+1))
	}
	var remaining time.Duration
	if !l.last.IsZero() {
		elapsed := l.now().Sub(l.last)
		if elapsed < delay {
			remaining = delay - elapsed
		}
	}
	l.mu.Unlock()

	if remaining > 0 {
		if err := l.sleep(ctx, remaining); err != nil {
			return fmt.Errorf("rate limit wait: %w", err)
		}
		telemetry.ObserveRateLimitDelay(l.domain, remaining)
	}

	l.mu.Lock()
	l.last = l.now()
	l.mu.Unlock()
	return nil
}

// RecordRequest marks now as the time of the last request without waiting.
func (l *Limiter) RecordRequest() {
	l.mu.Lock()
	l.last = l.now()
	l.mu.Unlock()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Domain extracts the hostname used as the throttling key for a URL.
// Unparseable URLs fall into a shared "unknown" bucket.
func Domain(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return u.Hostname()
}

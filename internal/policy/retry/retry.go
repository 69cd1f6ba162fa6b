// Package retry wraps fallible fetch operations with exponential backoff.
package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net"
	"time"

	"go.uber.org/zap"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
	"github.com/openlistings/fsbo-harvester/internal/telemetry"
)

// Defaults for a Policy; sources rarely override them.
const (
	DefaultMaxRetries    = 3
	DefaultBackoffFactor = 2.0
)

// Policy retries an operation on transient failures. Backoff grows as
// backoffFactor^attempt seconds. Stateless across calls.
type Policy struct {
	maxRetries    int
	backoffFactor float64
	retryStatuses map[int]struct{}

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds a Policy. Non-positive maxRetries or backoffFactor fall back to
// the defaults; nil retryStatuses falls back to the usual transient set
// (408, 429, 500, 502, 503, 504).
func New(maxRetries int, backoffFactor float64, retryStatuses []int) *Policy {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	if backoffFactor <= 0 {
		backoffFactor = DefaultBackoffFactor
	}
	if retryStatuses == nil {
		retryStatuses = []int{408, 429, 500, 502, 503, 504}
	}
	statuses := make(map[int]struct{}, len(retryStatuses))
	for _, code := range retryStatuses {
		statuses[code] = struct{}{}
	}
	return &Policy{
		maxRetries:    maxRetries,
		backoffFactor: backoffFactor,
		retryStatuses: statuses,
		sleep:         sleepCtx,
	}
}

// Do runs op until it succeeds, fails non-retryably, or exhausts
// maxRetries+1 attempts. The source label is only used for logs and metrics.
func (p *Policy) Do(ctx context.Context, source string, op func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !p.retryable(lastErr) {
			return lastErr
		}
		if attempt == p.maxRetries {
			break
		}
		backoff := time.Duration(math.Pow(p.backoffFactor, float64(attempt)) * float64(time.Second))
		zap.L().Warn("fetch failed, retrying",
			zap.String("source", source),
			zap.Int("attempt", attempt+1),
			zap.Int("max_attempts", p.maxRetries+1),
			zap.Duration("backoff", backoff),
			zap.Error(lastErr),
		)
		telemetry.RecordRetry(source)
		if err := p.sleep(ctx, backoff); err != nil {
			return fmt.Errorf("retry backoff: %w", err)
		}
	}
	zap.L().Error("fetch failed after all attempts",
		zap.String("source", source),
		zap.Int("attempts", p.maxRetries+1),
		zap.Error(lastErr),
	)
	return fmt.Errorf("after %d attempts: %w", p.maxRetries+1, lastErr)
}

// retryable classifies an error as transient. Status codes in the retry set,
// network errors and timeouts retry; everything else propagates immediately.
// Context cancellation is never retried.
func (p *Policy) retryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if code, ok := scrape.StatusCode(err); ok {
		_, retry := p.retryStatuses[code]
		return retry
	}
	var netErr net.Error
	return errors.As(err, &netErr)
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

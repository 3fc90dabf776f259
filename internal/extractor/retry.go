package extractor

import (
	"context"
	"errors"
	"log"
	"math/rand"
	"time"

	"fiscalio/internal/port"
)

// RetryPolicy is a bounded retry with exponential backoff and jitter,
// applied only to transient failures.
type RetryPolicy struct {
	MaxAttempts int
	BaseDelay   time.Duration
	MaxDelay    time.Duration
}

// delay computes the backoff before the given retry (1-based attempt that
// just failed). Jitter spreads the delay over [50%, 100%] to avoid
// thundering herds against a recovering provider.
func (p RetryPolicy) delay(attempt int) time.Duration {
	d := p.BaseDelay << (attempt - 1)
	if d > p.MaxDelay {
		d = p.MaxDelay
	}
	return time.Duration(float64(d) * (0.5 + rand.Float64()*0.5))
}

// Extract runs the extractor under the policy. Non-transient failures
// return immediately; transient ones are retried until the budget or the
// context runs out.
func (p RetryPolicy) Extract(ctx context.Context, op string, ex port.Extractor, input port.ExtractInput) (*port.Attempt, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		out, err := ex.Extract(ctx, input)
		if err == nil {
			return out, nil
		}
		lastErr = err

		if !IsTransient(err) {
			return nil, err
		}
		if attempt == attempts {
			break
		}

		d := p.delay(attempt)
		if rl, ok := asRateLimit(err); ok && rl.RetryAfter > d {
			d = rl.RetryAfter
		}
		log.Printf("extractor.retry: %s attempt %d/%d failed (%v), retrying in %s", op, attempt, attempts, err, d)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
		}
	}
	return nil, lastErr
}

func asRateLimit(err error) (*RateLimitError, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl, true
	}
	return nil, false
}

package usecase

import (
	"context"
	"log"
	"math/rand"
	"time"

	"mailtriage-backend/pkg/ai"
)

// Backoff retries rate-limited operations with exponential delay and jitter.
// Any other failure propagates immediately; throttling is the only condition
// worth waiting out.
type Backoff struct {
	MaxAttempts int
	BaseDelay   time.Duration

	// Injection points for tests. Nil means real sleep and real jitter.
	Sleep  func(ctx context.Context, d time.Duration)
	Jitter func() time.Duration
}

func NewBackoff(maxAttempts int, baseDelay time.Duration) *Backoff {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if baseDelay <= 0 {
		baseDelay = time.Second
	}
	return &Backoff{
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
	}
}

// Do runs op until it succeeds, fails with a non-rate-limit error, or the
// attempt budget is exhausted. The last error is returned untouched so the
// caller can classify it.
func (b *Backoff) Do(ctx context.Context, op func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= b.MaxAttempts; attempt++ {
		err = op(ctx)
		if err == nil {
			return nil
		}
		if !ai.IsRateLimited(err) {
			return err
		}
		if attempt == b.MaxAttempts {
			break
		}

		// base * 2^(attempt-1) plus up to 1s of jitter so concurrent items
		// in a batch don't retry in lockstep
		delay := b.BaseDelay*(1<<(attempt-1)) + b.jitter()
		log.Printf("[Import] Rate limited (attempt %d/%d), retrying in %v", attempt, b.MaxAttempts, delay)
		b.sleep(ctx, delay)
	}
	return err
}

func (b *Backoff) sleep(ctx context.Context, d time.Duration) {
	if b.Sleep != nil {
		b.Sleep(ctx, d)
		return
	}
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}

func (b *Backoff) jitter() time.Duration {
	if b.Jitter != nil {
		return b.Jitter()
	}
	return time.Duration(rand.Int63n(int64(time.Second)))
}

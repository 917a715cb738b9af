package usecase

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestBackoffSucceedsAfterRateLimits(t *testing.T) {
	var sleeps []time.Duration
	b := NewBackoff(5, time.Second)
	b.Sleep = func(ctx context.Context, d time.Duration) { sleeps = append(sleeps, d) }
	b.Jitter = func() time.Duration { return 500 * time.Millisecond }

	attempts := 0
	err := b.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 4 {
			return errors.New("429 too many requests")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if attempts != 4 {
		t.Fatalf("expected 4 attempts, got %d", attempts)
	}
	if len(sleeps) != 3 {
		t.Fatalf("expected 3 sleeps, got %d", len(sleeps))
	}

	for i, sleep := range sleeps {
		base := time.Second * (1 << i)
		if sleep < base || sleep >= base+time.Second {
			t.Errorf("sleep %d = %v, want in [%v, %v)", i+1, sleep, base, base+time.Second)
		}
		if want := base + 500*time.Millisecond; sleep != want {
			t.Errorf("sleep %d = %v, want %v with fixed jitter", i+1, sleep, want)
		}
	}
}

func TestBackoffFailsFastOnTerminalError(t *testing.T) {
	b := NewBackoff(5, time.Second)
	b.Sleep = func(ctx context.Context, d time.Duration) {
		t.Fatal("should not sleep on terminal error")
	}

	terminal := errors.New("invalid API key")
	attempts := 0
	err := b.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return terminal
	})
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
	if !errors.Is(err, terminal) {
		t.Fatalf("expected terminal error propagated untouched, got %v", err)
	}
}

func TestBackoffExhaustsAttemptBudget(t *testing.T) {
	var sleeps int
	b := NewBackoff(3, time.Millisecond)
	b.Sleep = func(ctx context.Context, d time.Duration) { sleeps++ }
	b.Jitter = func() time.Duration { return 0 }

	attempts := 0
	rateLimited := fmt.Errorf("quota exceeded for model")
	err := b.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return rateLimited
	})
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
	if sleeps != 2 {
		t.Fatalf("expected 2 sleeps (no sleep after final attempt), got %d", sleeps)
	}
	if !errors.Is(err, rateLimited) {
		t.Fatalf("expected underlying error propagated, got %v", err)
	}
}

func TestBackoffDefaults(t *testing.T) {
	b := NewBackoff(0, 0)
	if b.MaxAttempts != 5 {
		t.Errorf("MaxAttempts = %d, want 5", b.MaxAttempts)
	}
	if b.BaseDelay != time.Second {
		t.Errorf("BaseDelay = %v, want 1s", b.BaseDelay)
	}
}

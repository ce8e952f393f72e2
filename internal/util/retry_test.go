// ABOUTME: Tests for retry and backoff helpers
// ABOUTME: Verifies backoff growth, caps, and Do retry semantics
package util

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestCalculateBackoffGrowth(t *testing.T) {
	base := 100 * time.Millisecond

	if got := CalculateBackoff(base, 0); got != 0 {
		t.Errorf("CalculateBackoff(attempt=0) = %v, want 0", got)
	}

	// Each attempt roughly doubles; jitter is +/-25%
	b1 := CalculateBackoff(base, 1)
	if b1 < 150*time.Millisecond || b1 > 250*time.Millisecond {
		t.Errorf("CalculateBackoff(attempt=1) = %v, want ~200ms", b1)
	}

	// Large attempts are capped near 30s
	big := CalculateBackoff(base, 30)
	if big > 38*time.Second {
		t.Errorf("CalculateBackoff(attempt=30) = %v, want <= cap+jitter", big)
	}
}

func TestDoSucceedsAfterRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), 3, time.Millisecond, func(ctx context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoExhaustsRetries(t *testing.T) {
	sentinel := errors.New("always fails")
	calls := 0
	err := Do(context.Background(), 2, time.Millisecond, func(ctx context.Context) error {
		calls++
		return sentinel
	})
	if err == nil {
		t.Fatal("Do() should return error after exhausting retries")
	}
	if !errors.Is(err, sentinel) {
		t.Errorf("Do() error = %v, want wrapped sentinel", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestDoRespectsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Do(ctx, 5, time.Second, func(ctx context.Context) error {
		return errors.New("transient")
	})
	if err == nil {
		t.Fatal("Do() should fail on cancelled context")
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Do() error = %v, want context.Canceled", err)
	}
}

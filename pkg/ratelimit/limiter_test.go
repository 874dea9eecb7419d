package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestIntervalFirstRequestPasses(t *testing.T) {
	interval := NewInterval(time.Hour)

	if !interval.Allow() {
		t.Error("Expected the first request to be allowed immediately")
	}
	if interval.Allow() {
		t.Error("Expected the second request to be denied within the gap")
	}
}

func TestIntervalAllowAfterGap(t *testing.T) {
	interval := NewInterval(50 * time.Millisecond)

	if !interval.Allow() {
		t.Error("Expected the first request to be allowed")
	}

	time.Sleep(60 * time.Millisecond)
	if !interval.Allow() {
		t.Error("Expected a request to be allowed after the gap elapsed")
	}
}

func TestIntervalWait(t *testing.T) {
	interval := NewInterval(50 * time.Millisecond)

	// First wait returns without delay
	start := time.Now()
	if err := interval.Wait(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 20*time.Millisecond {
		t.Errorf("Expected the first wait to return immediately, took %v", elapsed)
	}

	// Second wait blocks until the gap has elapsed
	start = time.Now()
	if err := interval.Wait(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if elapsed := time.Since(start); elapsed < 40*time.Millisecond {
		t.Errorf("Expected the second wait to block for the gap, took %v", elapsed)
	}
}

func TestIntervalWaitCancelled(t *testing.T) {
	interval := NewInterval(time.Hour)

	if err := interval.Wait(context.Background()); err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := interval.Wait(ctx); err == nil {
		t.Error("Expected the wait to fail when the context expires")
	}
}

func TestIntervalReset(t *testing.T) {
	interval := NewInterval(time.Hour)

	interval.Allow()
	if interval.Allow() {
		t.Error("Expected the request to be denied before reset")
	}

	interval.Reset()
	if !interval.Allow() {
		t.Error("Expected the request to be allowed after reset")
	}
}

func TestTokenBucket(t *testing.T) {
	tb := NewTokenBucket(5, time.Second)

	// Test initial capacity
	for i := 0; i < 5; i++ {
		if !tb.Allow() {
			t.Errorf("Expected token %d to be available", i+1)
		}
	}

	// Test exhaustion
	if tb.Allow() {
		t.Error("Expected no more tokens to be available")
	}

	// Test reset
	tb.tokens = 0
	tb.Reset()
	if tb.tokens != tb.capacity {
		t.Error("Expected tokens to be reset to capacity")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(1, 50*time.Millisecond)

	if !tb.Allow() {
		t.Error("Expected the first token to be available")
	}
	if tb.Allow() {
		t.Error("Expected the bucket to be empty")
	}

	time.Sleep(60 * time.Millisecond)
	if !tb.Allow() {
		t.Error("Expected tokens to be refilled after the period")
	}
}

func TestTokenBucketWaitCancelled(t *testing.T) {
	tb := NewTokenBucket(1, time.Hour)
	tb.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	if err := tb.Wait(ctx); err == nil {
		t.Error("Expected the wait to fail when the context expires")
	}
}

package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestRecordFailureWidensCooldown(t *testing.T) {
	d := NewDetector()
	d.RecordFailure("example.com")
	s := d.state("example.com")

	s.mu.Lock()
	streak := s.failureStreak
	cooldown := time.Until(s.cooldownUntil)
	s.mu.Unlock()

	if streak != 1 {
		t.Fatalf("expected failure streak 1, got %d", streak)
	}
	if cooldown < minCooldown-time.Second || cooldown > minCooldown+time.Second {
		t.Fatalf("expected ~1min cooldown after first failure, got %v", cooldown)
	}
}

func TestRecordFailureClampsToMax(t *testing.T) {
	d := NewDetector()
	for i := 0; i < 10; i++ {
		d.RecordFailure("example.com")
	}
	s := d.state("example.com")

	s.mu.Lock()
	cooldown := time.Until(s.cooldownUntil)
	s.mu.Unlock()

	if cooldown > maxCooldown+time.Second {
		t.Fatalf("expected cooldown clamped to %v, got %v", maxCooldown, cooldown)
	}
}

func TestRecordSuccessClearsStreakAndHalvesCooldown(t *testing.T) {
	d := NewDetector()
	d.RecordFailure("example.com")
	d.RecordFailure("example.com")
	s := d.state("example.com")

	s.mu.Lock()
	before := time.Until(s.cooldownUntil)
	s.mu.Unlock()

	d.RecordSuccess("example.com")

	s.mu.Lock()
	after := time.Until(s.cooldownUntil)
	streak := s.failureStreak
	s.mu.Unlock()

	if streak != 0 {
		t.Fatalf("expected streak reset to 0, got %d", streak)
	}
	if after >= before {
		t.Fatalf("expected cooldown to shrink after success: before=%v after=%v", before, after)
	}
}

func TestWaitReturnsOnContextCancel(t *testing.T) {
	d := NewDetector()
	for i := 0; i < 10; i++ {
		d.RecordFailure("slow.example.com")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	err := d.Wait(ctx, "slow.example.com")
	if err == nil {
		t.Fatal("expected context deadline error while cooldown is active")
	}
}

// Package ratelimit implements the per-domain cooldown bookkeeping of
// component C. It is grounded on r3e-network-service_layer's
// infrastructure/ratelimit wrapper around golang.org/x/time/rate, extended
// with the failure-streak and cooldown-widening state spec §4.C requires
// on top of plain token-bucket spacing.
package ratelimit

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	baseSpacing  = 3 * time.Second
	jitterFrac   = 0.3
	cooldownBase = time.Minute
	minCooldown  = time.Minute
	maxCooldown  = 30 * time.Minute
)

type domainState struct {
	mu             sync.Mutex
	limiter        *rate.Limiter
	failureStreak  int
	cooldownUntil  time.Time
}

func newDomainState() *domainState {
	return &domainState{
		limiter: rate.NewLimiter(rate.Every(baseSpacing), 1),
	}
}

// Detector tracks cooldown and spacing state per domain.
type Detector struct {
	mu      sync.Mutex
	domains map[string]*domainState
}

// NewDetector builds an empty, lazily-populated Detector.
func NewDetector() *Detector {
	return &Detector{domains: make(map[string]*domainState)}
}

func (d *Detector) state(domain string) *domainState {
	d.mu.Lock()
	defer d.mu.Unlock()
	s, ok := d.domains[domain]
	if !ok {
		s = newDomainState()
		d.domains[domain] = s
	}
	return s
}

// Wait blocks until the domain's cooldown has elapsed and the jittered
// minimum spacing token is available, or ctx is cancelled.
func (d *Detector) Wait(ctx context.Context, domain string) error {
	s := d.state(domain)

	s.mu.Lock()
	cooldownUntil := s.cooldownUntil
	s.mu.Unlock()

	if remaining := time.Until(cooldownUntil); remaining > 0 {
		jittered := jitter(remaining)
		t := time.NewTimer(jittered)
		defer t.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-t.C:
		}
	}

	// Re-randomize the minimum spacing on every call so consecutive
	// requests land at baseSpacing +/- jitterFrac rather than on a fixed
	// cadence a bot-detection heuristic could fingerprint.
	s.limiter.SetLimit(rate.Every(jitter(baseSpacing)))
	return s.limiter.Wait(ctx)
}

// RecordSuccess clears the failure streak and halves the remaining
// cooldown toward the baseline (no cooldown at all).
func (d *Detector) RecordSuccess(domain string) {
	s := d.state(domain)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failureStreak = 0
	if remaining := time.Until(s.cooldownUntil); remaining > 0 {
		s.cooldownUntil = time.Now().Add(remaining / 2)
	}
}

// RecordFailure widens the domain's cooldown exponentially, clamped to
// [1min, 30min], and bumps the failure streak.
func (d *Detector) RecordFailure(domain string) {
	s := d.state(domain)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failureStreak++
	cooldown := cooldownBase * time.Duration(1<<uint(s.failureStreak-1))
	if cooldown < minCooldown {
		cooldown = minCooldown
	}
	if cooldown > maxCooldown {
		cooldown = maxCooldown
	}
	s.cooldownUntil = time.Now().Add(cooldown)
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	delta := float64(d) * jitterFrac
	offset := (rand.Float64()*2 - 1) * delta
	result := time.Duration(float64(d) + offset)
	if result < 0 {
		return 0
	}
	return result
}

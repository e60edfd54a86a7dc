package scheduler

import (
	"math/rand"
	"time"
)

// urgency classifies how close the soonest scheduled Event is, driving the
// adaptive delay picked before the next sync-odds fire.
type urgency int

const (
	urgencyNone urgency = iota
	urgencyLater
	urgencySoon
	urgencyImminent
)

func (u urgency) String() string {
	switch u {
	case urgencyImminent:
		return "imminent"
	case urgencySoon:
		return "soon"
	case urgencyLater:
		return "later"
	default:
		return "none"
	}
}

// classifyUrgency implements spec §4.H's urgency ladder against the time
// remaining until the soonest scheduled Event. next is nil when there is
// no scheduled Event at all.
func classifyUrgency(next *time.Time, now time.Time) urgency {
	if next == nil {
		return urgencyNone
	}
	until := next.Sub(now)
	switch {
	case until <= 2*time.Hour:
		return urgencyImminent
	case until <= 6*time.Hour:
		return urgencySoon
	case until <= 24*time.Hour:
		return urgencyLater
	default:
		return urgencyNone
	}
}

type delayRange struct {
	min, max time.Duration
}

var baseDelayRanges = map[urgency]delayRange{
	urgencyImminent: {45 * time.Minute, 75 * time.Minute},
	urgencySoon:     {60 * time.Minute, 90 * time.Minute},
	urgencyLater:    {90 * time.Minute, 150 * time.Minute},
	urgencyNone:     {4 * time.Hour, 6 * time.Hour},
}

var urgencyMinimum = map[urgency]time.Duration{
	urgencyImminent: 30 * time.Minute,
	urgencySoon:     45 * time.Minute,
	urgencyLater:    60 * time.Minute,
	urgencyNone:     180 * time.Minute,
}

// offPeakFactor applies the local-time multiplier spec §4.H names: service
// load is lowest overnight, so odds polling can afford to lag more.
func offPeakFactor(t time.Time) float64 {
	local := t.Local()
	h := local.Hour()
	switch {
	case h >= 0 && h < 6:
		return 1.5
	case h >= 22 || h < 1:
		return 1.3
	case h >= 6 && h < 9:
		return 1.2
	default:
		return 1.0
	}
}

// nextOddsDelay draws a uniform sample from the urgency's base range,
// applies the off-peak multiplier, adds uniform jitter in ±10 minutes, and
// clamps below by the urgency's minimum.
func nextOddsDelay(u urgency, now time.Time) time.Duration {
	r := baseDelayRanges[u]
	span := r.max - r.min
	sample := r.min
	if span > 0 {
		sample += time.Duration(rand.Int63n(int64(span)))
	}

	sample = time.Duration(float64(sample) * offPeakFactor(now))

	jitter := time.Duration(rand.Int63n(int64(20*time.Minute))) - 10*time.Minute
	sample += jitter

	if min := urgencyMinimum[u]; sample < min {
		sample = min
	}
	return sample
}

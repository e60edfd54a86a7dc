package scheduler

import (
	"testing"
	"time"
)

func TestClassifyUrgencyLadder(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		in   time.Duration
		want urgency
	}{
		{"imminent at 1h", time.Hour, urgencyImminent},
		{"boundary at 2h", 2 * time.Hour, urgencyImminent},
		{"soon at 4h", 4 * time.Hour, urgencySoon},
		{"later at 20h", 20 * time.Hour, urgencyLater},
		{"none at 48h", 48 * time.Hour, urgencyNone},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			start := now.Add(c.in)
			if got := classifyUrgency(&start, now); got != c.want {
				t.Fatalf("classifyUrgency(%v) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestClassifyUrgencyNoneWhenNoScheduledEvent(t *testing.T) {
	if got := classifyUrgency(nil, time.Now()); got != urgencyNone {
		t.Fatalf("expected urgencyNone with no scheduled event, got %v", got)
	}
}

func TestNextOddsDelayRespectsImminentBounds(t *testing.T) {
	now := time.Date(2026, 8, 1, 14, 0, 0, 0, time.Local) // local daytime, factor 1.0
	for i := 0; i < 200; i++ {
		d := nextOddsDelay(urgencyImminent, now)
		if d < urgencyMinimum[urgencyImminent] {
			t.Fatalf("delay %v below urgency minimum %v", d, urgencyMinimum[urgencyImminent])
		}
		// upper bound: max range (75m) + jitter (10m), no off-peak multiplier at 14:00
		if d > 85*time.Minute {
			t.Fatalf("delay %v exceeds expected imminent ceiling", d)
		}
	}
}

func TestOffPeakFactorOvernightIsHighest(t *testing.T) {
	overnight := time.Date(2026, 8, 1, 3, 0, 0, 0, time.Local)
	daytime := time.Date(2026, 8, 1, 14, 0, 0, 0, time.Local)
	if offPeakFactor(overnight) <= offPeakFactor(daytime) {
		t.Fatalf("expected overnight factor to exceed daytime factor")
	}
}

package browser

import (
	"testing"
	"time"
)

func TestNeedsRecycleOnAge(t *testing.T) {
	c := &browserContext{createdAt: time.Now().Add(-31 * time.Minute)}
	if !c.needsRecycle() {
		t.Fatal("expected recycle due to age > 30min")
	}
}

func TestNeedsRecycleOnRequestCount(t *testing.T) {
	c := &browserContext{createdAt: time.Now()}
	c.requestCount.Store(maxContextRequests + 1)
	if !c.needsRecycle() {
		t.Fatal("expected recycle due to request_count > 150")
	}
}

func TestNeedsRecycleOnFailureCount(t *testing.T) {
	c := &browserContext{createdAt: time.Now()}
	c.failureCount.Store(maxContextFailures)
	if !c.needsRecycle() {
		t.Fatal("expected recycle due to failure_count >= 5")
	}
}

func TestFreshContextDoesNotNeedRecycle(t *testing.T) {
	c := &browserContext{createdAt: time.Now()}
	if c.needsRecycle() {
		t.Fatal("expected a fresh context to not need recycling")
	}
}

func TestRandomProfileUsesWhitelistedViewport(t *testing.T) {
	p := RandomProfile()
	found := false
	for _, vp := range viewportWhitelist {
		if vp == p.Viewport {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("viewport %+v not in whitelist", p.Viewport)
	}
	if p.Locale != "en-GB" || p.Timezone != "Europe/London" {
		t.Fatalf("expected en-GB/Europe-London locale, got %s/%s", p.Locale, p.Timezone)
	}
}

package browser

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
)

const (
	maxContextAge          = 30 * time.Minute
	maxContextRequests     = 150
	maxContextFailures     = 5
	globalRotationInterval = 6 * time.Hour
)

// browserContext is one pooled isolated browser session, backed by a Rod
// incognito browser target so cookies and storage never leak between
// leases.
type browserContext struct {
	id            int
	rod           *rod.Browser
	profile       Profile
	proxyURL      string
	createdAt     time.Time
	lastUsedAt    atomic.Int64 // unix nanos
	requestCount  atomic.Int64
	failureCount  atomic.Int64
	mu            sync.Mutex // guards lease, not counters
	leased        bool
}

// ContextStats is the read-only snapshot component I exposes.
type ContextStats struct {
	ID           int
	AgeSeconds   float64
	RequestCount int64
	FailureCount int64
	ProxyURL     string
	Leased       bool
}

func (c *browserContext) touch() {
	c.lastUsedAt.Store(time.Now().UnixNano())
}

func (c *browserContext) recordRequest() {
	c.requestCount.Add(1)
	c.touch()
}

func (c *browserContext) recordFailure() {
	c.failureCount.Add(1)
}

// needsRecycle implements the five lifecycle rules from spec §4.D, minus
// the scheduled six-hourly rotation and operator trigger, which the pool
// applies to every context at once rather than per-context.
func (c *browserContext) needsRecycle() bool {
	if time.Since(c.createdAt) > maxContextAge {
		return true
	}
	if c.requestCount.Load() > maxContextRequests {
		return true
	}
	if c.failureCount.Load() >= maxContextFailures {
		return true
	}
	return false
}

func (c *browserContext) stats() ContextStats {
	c.mu.Lock()
	leased := c.leased
	c.mu.Unlock()
	return ContextStats{
		ID:           c.id,
		AgeSeconds:   time.Since(c.createdAt).Seconds(),
		RequestCount: c.requestCount.Load(),
		FailureCount: c.failureCount.Load(),
		ProxyURL:     c.proxyURL,
		Leased:       leased,
	}
}

func (c *browserContext) close() {
	if c.rod != nil {
		_ = c.rod.Close()
	}
}

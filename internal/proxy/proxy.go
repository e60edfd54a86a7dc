// Package proxy implements the rotator component (B): per-provider health
// tracking and weighted selection, grounded on the teacher's
// internal/fetcher.ProxyManager but reworked from a flat URL list to
// cost-weighted providers with quarantine and graceful degradation.
package proxy

import (
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"
)

// Config describes one proxy provider.
type Config struct {
	Name         string
	URLTemplate  string // complete endpoint URL; credentials are injected, no placeholders are substituted
	Username     string
	Password     string
	CountryCode  string
	CostWeight   float64
}

// Proxy is the value handed to a browser context: an enabled provider's
// resolved endpoint URL, or the zero value when the rotator is disabled.
type Proxy struct {
	Provider string
	URL      string
	Enabled  bool
}

const (
	quarantineThreshold = 5
	quarantineDuration  = 10 * time.Minute
	successWindow       = 50
	successFloor        = 0.6
)

type provider struct {
	name               string
	url                string
	costWeight         float64
	mu                 sync.Mutex
	consecutiveFails   int
	quarantinedUntil   time.Time
	lastFailureAt      time.Time
	window             []bool // ring of recent outcomes, true = success
}

func (p *provider) recordOutcome(ok bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.window = append(p.window, ok)
	if len(p.window) > successWindow {
		p.window = p.window[len(p.window)-successWindow:]
	}
	if ok {
		p.consecutiveFails = 0
		return
	}
	p.consecutiveFails++
	p.lastFailureAt = time.Now()
	if p.consecutiveFails >= quarantineThreshold {
		p.quarantinedUntil = time.Now().Add(quarantineDuration)
	}
}

func (p *provider) successRatio() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	if len(p.window) == 0 {
		return 1.0
	}
	n := 0
	for _, ok := range p.window {
		if ok {
			n++
		}
	}
	return float64(n) / float64(len(p.window))
}

func (p *provider) quarantined() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return time.Now().Before(p.quarantinedUntil)
}

// Rotator selects and tracks proxy providers for the browser pool.
type Rotator struct {
	mu        sync.Mutex
	providers []*provider
	logger    *slog.Logger
	rotations func() // test hook for counting selections; nil in production
}

// NewRotator builds a Rotator from the configured providers, sorted by
// cost weight ascending so the cheapest provider is preferred first. An
// empty list yields a disabled rotator.
func NewRotator(cfgs []Config, logger *slog.Logger) (*Rotator, error) {
	r := &Rotator{logger: logger.With("component", "proxy_rotator")}
	for _, c := range cfgs {
		endpoint, err := resolveEndpoint(c)
		if err != nil {
			return nil, fmt.Errorf("proxy provider %s: %w", c.Name, err)
		}
		r.providers = append(r.providers, &provider{
			name:       c.Name,
			url:        endpoint,
			costWeight: c.CostWeight,
		})
	}
	// stable-ish insertion sort by cost weight; provider counts are small.
	for i := 1; i < len(r.providers); i++ {
		for j := i; j > 0 && r.providers[j].costWeight < r.providers[j-1].costWeight; j-- {
			r.providers[j], r.providers[j-1] = r.providers[j-1], r.providers[j]
		}
	}
	logger.Info("proxy rotator initialized", "providers", len(r.providers))
	return r, nil
}

func resolveEndpoint(c Config) (string, error) {
	raw := c.URLTemplate
	if raw == "" {
		return "", fmt.Errorf("empty url_template")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	if c.Username != "" {
		u.User = url.UserPassword(c.Username, c.Password)
	}
	return u.String(), nil
}

// Enabled reports whether any providers are configured.
func (r *Rotator) Enabled() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.providers) > 0
}

// Select picks a provider per spec §4.B: prefer the lowest-cost provider
// while its recent success ratio exceeds the floor, otherwise fail over
// to the next cheapest; if every provider is quarantined, degrade to the
// least-recently-failed rather than blocking the caller.
func (r *Rotator) Select() Proxy {
	r.mu.Lock()
	defer r.mu.Unlock()

	if len(r.providers) == 0 {
		return Proxy{Enabled: false}
	}
	if r.rotations != nil {
		r.rotations()
	}

	var candidates []*provider
	for _, p := range r.providers {
		if !p.quarantined() {
			candidates = append(candidates, p)
		}
	}

	if len(candidates) == 0 {
		best := r.providers[0]
		for _, p := range r.providers[1:] {
			p.mu.Lock()
			bestFail := best.lastFailureAt
			thisFail := p.lastFailureAt
			p.mu.Unlock()
			if thisFail.Before(bestFail) {
				best = p
			}
		}
		r.logger.Warn("all proxy providers quarantined, degrading", "selected", best.name)
		return Proxy{Provider: best.name, URL: best.url, Enabled: true}
	}

	for _, p := range candidates {
		if p.successRatio() > successFloor {
			return Proxy{Provider: p.name, URL: p.url, Enabled: true}
		}
	}
	// none clear the floor; fall back to the cheapest candidate anyway.
	chosen := candidates[0]
	return Proxy{Provider: chosen.name, URL: chosen.url, Enabled: true}
}

// RecordSuccess updates the moving counters of the provider identified by
// name or by its endpoint URL (as handed out in Proxy.URL).
func (r *Rotator) RecordSuccess(providerName string) {
	r.record(providerName, true)
}

// RecordFailure updates the moving counters of the provider identified by
// name or by its endpoint URL, possibly quarantining it.
func (r *Rotator) RecordFailure(providerName string) {
	r.record(providerName, false)
}

func (r *Rotator) record(providerName string, ok bool) {
	r.mu.Lock()
	var target *provider
	for _, p := range r.providers {
		if p.name == providerName || p.url == providerName {
			target = p
			break
		}
	}
	r.mu.Unlock()
	if target == nil {
		return
	}
	target.recordOutcome(ok)
	if !ok {
		target.mu.Lock()
		fails := target.consecutiveFails
		target.mu.Unlock()
		if fails == quarantineThreshold {
			r.logger.Warn("proxy provider quarantined", "provider", providerName, "duration", quarantineDuration)
		}
	}
}

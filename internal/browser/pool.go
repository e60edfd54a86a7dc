// Package browser implements the browser-pool component (D): a single
// headless Chromium process with up to three isolated contexts, lifecycle
// rotation, and the stealth profile spec §4.D requires on every context.
// Grounded on the teacher's internal/fetcher.BrowserFetcher launch and
// page-pool pattern, reworked from a flat page channel to lifecycle-aware
// contexts.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/pitchline/scoutd/internal/proxy"
)

// MaxContexts is the hard ceiling spec §4.D places on concurrent contexts.
const MaxContexts = 3

// ExecuteOptions tunes one execute() call.
type ExecuteOptions struct {
	Humanize bool
}

// Pool owns the browser process and its contexts.
type Pool struct {
	root         *rod.Browser
	rotator      *proxy.Rotator
	logger       *slog.Logger
	mu           sync.Mutex
	contexts     []*browserContext
	nextID       int
	stopRotation chan struct{}
}

// New launches Chromium and returns an empty, ready pool. Contexts are
// minted lazily on first use.
func New(rotator *proxy.Rotator, logger *slog.Logger) (*Pool, error) {
	l := launcher.New().
		Headless(true).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled")

	launchURL, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	root := rod.New().ControlURL(launchURL)
	if err := root.Connect(); err != nil {
		return nil, fmt.Errorf("connect browser: %w", err)
	}

	p := &Pool{
		root:         root,
		rotator:      rotator,
		logger:       logger.With("component", "browser_pool"),
		stopRotation: make(chan struct{}),
	}
	go p.globalRotationLoop()
	p.logger.Info("browser pool ready", "max_contexts", MaxContexts)
	return p, nil
}

func (p *Pool) globalRotationLoop() {
	t := time.NewTicker(globalRotationInterval)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			p.RecycleAll("scheduled six-hourly rotation")
		case <-p.stopRotation:
			return
		}
	}
}

// mintContext launches a fresh incognito context with a new stealth
// profile and, when the rotator is enabled, a freshly selected proxy.
func (p *Pool) mintContext() (*browserContext, error) {
	incognito, err := p.root.Incognito()
	if err != nil {
		return nil, fmt.Errorf("incognito context: %w", err)
	}

	var proxyURL string
	if p.rotator != nil && p.rotator.Enabled() {
		proxyURL = p.rotator.Select().URL
	}

	p.nextID++
	c := &browserContext{
		id:        p.nextID,
		rod:       incognito,
		profile:   RandomProfile(),
		proxyURL:  proxyURL,
		createdAt: time.Now(),
	}
	c.touch()
	return c, nil
}

// acquire returns a healthy, unleased context, recycling or minting one as
// needed under the MaxContexts ceiling.
func (p *Pool) acquire() (*browserContext, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, c := range p.contexts {
		c.mu.Lock()
		available := !c.leased && !c.needsRecycle()
		if available {
			c.leased = true
		}
		c.mu.Unlock()
		if available {
			return c, nil
		}
	}

	// Drop any unleased contexts that need recycling before minting.
	kept := p.contexts[:0]
	for _, c := range p.contexts {
		c.mu.Lock()
		stale := !c.leased && c.needsRecycle()
		c.mu.Unlock()
		if stale {
			c.close()
			continue
		}
		kept = append(kept, c)
	}
	p.contexts = kept

	if len(p.contexts) >= MaxContexts {
		return nil, fmt.Errorf("browser pool exhausted: %d contexts in use", len(p.contexts))
	}

	c, err := p.mintContext()
	if err != nil {
		return nil, err
	}
	c.leased = true
	p.contexts = append(p.contexts, c)
	return c, nil
}

func (p *Pool) release(c *browserContext) {
	c.mu.Lock()
	c.leased = false
	c.mu.Unlock()
}

func (p *Pool) openPage(c *browserContext) (*rod.Page, error) {
	page, err := c.rod.Page(proto.TargetCreateTarget{URL: "about:blank"})
	if err != nil {
		return nil, err
	}
	if _, err := page.EvalOnNewDocument(c.profile.StealthJS()); err != nil {
		p.logger.Warn("stealth injection failed", "error", err)
	}
	_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
		UserAgent:      c.profile.UserAgent,
		AcceptLanguage: c.profile.Locale,
		Platform:       c.profile.Platform,
	})
	_ = page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             c.profile.Viewport.Width,
		Height:            c.profile.Viewport.Height,
		DeviceScaleFactor: 1,
		Mobile:            false,
	})
	_ = proto.EmulationSetTimezoneOverride{TimezoneID: c.profile.Timezone}.Call(page)
	return page, nil
}

// Execute leases a healthy context, runs fn against a fresh page, and
// always releases the context afterward. Failures increment the
// context's failure_count and are reported to the proxy rotator so a
// flaky proxy gets penalized alongside a flaky context.
func (p *Pool) Execute(ctx context.Context, opts ExecuteOptions, fn func(*rod.Page) error) error {
	c, err := p.acquire()
	if err != nil {
		return err
	}
	defer p.release(c)

	page, err := p.openPage(c)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("open page: %w", err)
	}
	defer func() { _ = page.Close() }()

	if opts.Humanize {
		humanize(page)
	}

	c.recordRequest()
	runErr := fn(page)
	if runErr != nil {
		c.recordFailure()
		if p.rotator != nil && c.proxyURL != "" {
			p.rotator.RecordFailure(c.proxyURL)
		}
		return runErr
	}
	if p.rotator != nil && c.proxyURL != "" {
		p.rotator.RecordSuccess(c.proxyURL)
	}
	return nil
}

// LeasePage is the lower-level handle spec §4.D names for long-running
// scrape loops (e.g. live-score polling) that need to hold a page across
// several operations instead of one Execute call.
func (p *Pool) LeasePage(opts ExecuteOptions) (*rod.Page, func(), error) {
	c, err := p.acquire()
	if err != nil {
		return nil, nil, err
	}
	page, err := p.openPage(c)
	if err != nil {
		p.release(c)
		return nil, nil, fmt.Errorf("open page: %w", err)
	}
	if opts.Humanize {
		humanize(page)
	}
	c.recordRequest()
	release := func() {
		_ = page.Close()
		p.release(c)
	}
	return page, release, nil
}

// RecycleAll closes every context and eagerly re-warms one so the pool
// isn't cold on the next request.
func (p *Pool) RecycleAll(reason string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Info("recycling all browser contexts", "reason", reason, "count", len(p.contexts))
	for _, c := range p.contexts {
		c.close()
	}
	p.contexts = nil

	fresh, err := p.mintContext()
	if err != nil {
		p.logger.Error("failed to re-warm context after recycle", "error", err)
		return
	}
	p.contexts = append(p.contexts, fresh)
}

// Stats reports per-context counters for the control surface.
func (p *Pool) Stats() []ContextStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ContextStats, 0, len(p.contexts))
	for _, c := range p.contexts {
		out = append(out, c.stats())
	}
	return out
}

// Close shuts down every context and the underlying browser process.
func (p *Pool) Close() error {
	close(p.stopRotation)
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, c := range p.contexts {
		c.close()
	}
	return p.root.Close()
}

// Package scheduler implements component H: cron-like fixed rules for
// three of the four jobs plus a global browser-rotation tick, and an
// urgency-weighted adaptive timer for sync-odds. Grounded on the teacher's
// internal/engine.Scheduler worker-pool shape for exclusion/shutdown
// bookkeeping and on bramrahmadi-learnbot's scheduler.RunOnce single-flight
// pattern, rebuilt against robfig/cron/v3 for the fixed rules.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/pitchline/scoutd/internal/domain"
	"github.com/pitchline/scoutd/internal/jobs"
)

// ErrAlreadyRunning is returned by Trigger when the requested job's
// previous run has not yet finished.
var ErrAlreadyRunning = fmt.Errorf("job already running")

// Config carries the cron-style tunables spec §4.H leaves configurable.
type Config struct {
	SyncFixturesCron      string // default "0 3 * * *"
	SyncLiveScoresCron    string // default "*/1 * * * *"
	TransitionEventsCron  string // default "* * * * *"
	BrowserRotationPeriod time.Duration
	ShutdownDeadline      time.Duration
}

// DefaultConfig mirrors spec §4.H's stated defaults.
func DefaultConfig() Config {
	return Config{
		SyncFixturesCron:      "0 3 * * *",
		SyncLiveScoresCron:    "*/1 * * * *",
		TransitionEventsCron:  "* * * * *",
		BrowserRotationPeriod: 6 * time.Hour,
		ShutdownDeadline:      60 * time.Second,
	}
}

// JobStatus is the per-job bookkeeping the control surface's GET /jobs
// endpoint reports.
type JobStatus struct {
	LastRun         time.Time
	LastDurationMs  int64
	LastStatus      domain.RunStatus
	RunCount        int
	FailCount       int
	NextScheduledAt *time.Time
}

// Scheduler owns the cron dispatcher, the adaptive odds loop, and the
// per-job running-exclusion and status bookkeeping.
type Scheduler struct {
	deps   *jobs.Deps
	logger *slog.Logger
	cfg    Config
	cron   *cron.Cron

	mu       sync.Mutex
	statuses map[domain.JobType]*JobStatus
	running  map[domain.JobType]*atomic.Bool

	wg         sync.WaitGroup
	stopAdapt  chan struct{}
	adaptDone  chan struct{}
}

// New builds a Scheduler and registers the fixed-cadence jobs. Call Start
// to begin firing.
func New(deps *jobs.Deps, cfg Config, logger *slog.Logger) (*Scheduler, error) {
	s := &Scheduler{
		deps:      deps,
		logger:    logger.With("component", "scheduler"),
		cfg:       cfg,
		cron:      cron.New(),
		statuses:  make(map[domain.JobType]*JobStatus),
		running:   make(map[domain.JobType]*atomic.Bool),
		stopAdapt: make(chan struct{}),
		adaptDone: make(chan struct{}),
	}
	for _, jt := range domain.AllJobs {
		s.running[jt] = &atomic.Bool{}
		s.statuses[jt] = &JobStatus{}
	}

	entries := []struct {
		jobType domain.JobType
		spec    string
	}{
		{domain.JobSyncFixtures, cfg.SyncFixturesCron},
		{domain.JobSyncLiveScores, cfg.SyncLiveScoresCron},
		{domain.JobTransitionEvents, cfg.TransitionEventsCron},
	}
	for _, e := range entries {
		jt := e.jobType
		if _, err := s.cron.AddFunc(e.spec, func() { s.fire(context.Background(), jt) }); err != nil {
			return nil, fmt.Errorf("register cron rule for %s: %w", jt, err)
		}
	}
	if _, err := s.cron.AddFunc(everyDuration(cfg.BrowserRotationPeriod), func() {
		s.deps.Pool.RecycleAll("scheduled rotation tick")
	}); err != nil {
		return nil, fmt.Errorf("register browser rotation rule: %w", err)
	}

	return s, nil
}

func everyDuration(d time.Duration) string {
	return fmt.Sprintf("@every %s", d.String())
}

// Start begins firing cron rules and the adaptive sync-odds loop.
func (s *Scheduler) Start(ctx context.Context) {
	s.cron.Start()
	s.wg.Add(1)
	go s.adaptiveOddsLoop(ctx)
}

// Trigger runs jobType immediately, bypassing the schedule but still
// respecting the running-exclusion flag, per spec §4.H. The run keeps
// ctx's values but not its cancellation, so a trigger from an HTTP
// handler outlives the request that started it.
func (s *Scheduler) Trigger(ctx context.Context, jobType domain.JobType) error {
	flag, ok := s.running[jobType]
	if !ok {
		return domain.ErrUnknownJob
	}
	if !flag.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}
	runCtx := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer flag.Store(false)
		s.runAndRecord(runCtx, jobType)
	}()
	return nil
}

// fire is the cron callback: it suppresses the fire if the job is still
// running from a previous invocation, per spec §4.H's suppression rule.
func (s *Scheduler) fire(ctx context.Context, jobType domain.JobType) {
	flag := s.running[jobType]
	if !flag.CompareAndSwap(false, true) {
		s.logger.Debug("suppressing fire, previous run still in progress", "job", jobType)
		return
	}
	defer flag.Store(false)
	s.runAndRecord(ctx, jobType)
}

func (s *Scheduler) runAndRecord(ctx context.Context, jobType domain.JobType) {
	run, err := jobs.Run(ctx, s.deps, jobType, s.logger)

	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.statuses[jobType]
	st.RunCount++
	if run != nil {
		st.LastRun = run.StartedAt
		if run.DurationMillis != nil {
			st.LastDurationMs = *run.DurationMillis
		}
		st.LastStatus = run.Status
		if run.Status == domain.RunFailed || run.Status == domain.RunPartial {
			st.FailCount++
		}
	} else if err != nil {
		st.FailCount++
	}
}

// adaptiveOddsLoop runs sync-odds on the urgency-weighted schedule spec
// §4.H describes: classify, sleep, fire, reclassify. A "none" urgency at
// fire time skips the run (nothing to scrape soon) and reschedules.
func (s *Scheduler) adaptiveOddsLoop(ctx context.Context) {
	defer s.wg.Done()
	defer close(s.adaptDone)

	for {
		next, err := s.deps.Store.NextScheduledStart(ctx)
		if err != nil {
			s.logger.Warn("urgency classification query failed", "error", err)
		}
		u := classifyUrgency(next, time.Now())
		delay := nextOddsDelay(u, time.Now())

		nextAt := time.Now().Add(delay)
		s.mu.Lock()
		s.statuses[domain.JobSyncOdds].NextScheduledAt = &nextAt
		s.mu.Unlock()
		s.logger.Debug("adaptive odds delay chosen", "urgency", u.String(), "delay", delay)

		select {
		case <-ctx.Done():
			return
		case <-s.stopAdapt:
			return
		case <-time.After(delay):
		}

		refreshed, err := s.deps.Store.NextScheduledStart(ctx)
		if err != nil {
			s.logger.Warn("urgency re-classification query failed", "error", err)
		}
		if classifyUrgency(refreshed, time.Now()) == urgencyNone {
			s.logger.Debug("skipping sync-odds fire, urgency is none at fire time")
			continue
		}

		s.fire(ctx, domain.JobSyncOdds)
	}
}

// Status returns a snapshot of every job's bookkeeping for the control
// surface.
func (s *Scheduler) Status() map[domain.JobType]JobStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[domain.JobType]JobStatus, len(s.statuses))
	for jt, st := range s.statuses {
		out[jt] = *st
	}
	return out
}

// IsRunning reports whether jobType currently has a run in flight.
func (s *Scheduler) IsRunning(jobType domain.JobType) bool {
	if flag, ok := s.running[jobType]; ok {
		return flag.Load()
	}
	return false
}

// Shutdown stops accepting new fires, cancels the adaptive loop, and waits
// up to the configured deadline for in-flight jobs to finish. Any job
// still running past the deadline gets LastStatus partial in the
// scheduler's in-memory status; its scraper_runs row is not updated here.
func (s *Scheduler) Shutdown(ctx context.Context) {
	cronCtx := s.cron.Stop()
	close(s.stopAdapt)

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	deadline := time.NewTimer(s.cfg.ShutdownDeadline)
	defer deadline.Stop()

	select {
	case <-cronCtx.Done():
	case <-deadline.C:
		s.logger.Warn("shutdown deadline exceeded, marking in-flight jobs partial")
		s.markRunningPartial(ctx)
		return
	}

	select {
	case <-done:
		s.logger.Info("scheduler shut down cleanly")
	case <-deadline.C:
		s.logger.Warn("shutdown deadline exceeded, marking in-flight jobs partial")
		s.markRunningPartial(ctx)
	}
}

func (s *Scheduler) markRunningPartial(ctx context.Context) {
	for _, jt := range domain.AllJobs {
		if s.IsRunning(jt) {
			s.mu.Lock()
			s.statuses[jt].LastStatus = domain.RunPartial
			s.mu.Unlock()
		}
	}
}

// Package jobs implements component G: the four concrete jobs
// (sync-fixtures, sync-odds, sync-live-scores, transition-events) and the
// tagged dispatch table that replaces the ambient-singleton, string-keyed
// job map spec.md's redesign section calls out. Grounded on the teacher's
// internal/engine job-processing shape and bramrahmadi-learnbot's
// scheduler.RunOnce pattern for per-run bookkeeping.
package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pitchline/scoutd/internal/browser"
	"github.com/pitchline/scoutd/internal/queue"
	"github.com/pitchline/scoutd/internal/ratelimit"
	"github.com/pitchline/scoutd/internal/resolver"
	"github.com/pitchline/scoutd/internal/sources"
	"github.com/pitchline/scoutd/internal/store"
	"github.com/pitchline/scoutd/internal/telemetry"
	"github.com/pitchline/scoutd/internal/domain"
)

// Sport is one enabled sport's static identity. Its source URLs live in
// Deps.FixtureURLs and in each odds source's SportURLs, keyed by Slug.
type Sport struct {
	Name        string
	Slug        string
	Competition string
}

// Deps bundles every shared component a job may call (A-F, J, queue).
// Jobs never reach for ambient singletons; everything arrives here from
// the composition root.
type Deps struct {
	Store        *store.Store
	Pool         *browser.Pool
	RateLimit    *ratelimit.Detector
	OddsSources  *sources.Registry
	FixtureURLs  map[string][]string // sport slug -> schedule URLs; sync-fixtures scrapes only the first
	FixtureXPath string
	LiveScores   *sources.LiveScoresClient
	OddsAPI      *sources.OddsAPIClient
	Resolver     *resolver.Resolver
	Settlement   queue.SettlementQueue
	Metrics      *telemetry.Metrics
	Sports       []Sport
}

// outcome is what a job function reports back to the run-bookkeeping
// wrapper; it never returns a fatal error except via the error return,
// which surfaces to the scheduler per spec §4.G.
type outcome struct {
	processed, created, updated, failed int
	bySport                             map[string]int
}

type jobFunc func(ctx context.Context, deps *Deps, logger *slog.Logger) (outcome, error)

var dispatch = map[domain.JobType]jobFunc{
	domain.JobSyncFixtures:     runSyncFixtures,
	domain.JobSyncOdds:         runSyncOdds,
	domain.JobSyncLiveScores:   runSyncLiveScores,
	domain.JobTransitionEvents: runTransitionEvents,
}

// Run executes jobType, recording a ScraperRun row before and after. It is
// the sole entry point the scheduler calls; an unknown JobType is a
// programmer error since domain.AllJobs is exhaustively dispatched here.
func Run(ctx context.Context, deps *Deps, jobType domain.JobType, baseLogger *slog.Logger) (*domain.ScraperRun, error) {
	fn, ok := dispatch[jobType]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnknownJob, jobType)
	}

	logger, runID := telemetry.WithJob(baseLogger, string(jobType))
	run := &domain.ScraperRun{
		ID:        uuid.MustParse(runID),
		JobType:   jobType,
		Status:    domain.RunRunning,
		StartedAt: time.Now(),
	}
	if err := deps.Store.InsertRun(ctx, run); err != nil {
		logger.Error("failed to record run start", "error", err)
	}

	start := time.Now()
	out, err := fn(ctx, deps, logger)
	duration := time.Since(start)

	run.ItemsProcessed = out.processed
	run.ItemsCreated = out.created
	run.ItemsUpdated = out.updated
	run.ItemsFailed = out.failed
	run.BySport = out.bySport
	ended := time.Now()
	run.EndedAt = &ended
	millis := duration.Milliseconds()
	run.DurationMillis = &millis

	switch {
	case err != nil:
		run.Status = domain.RunFailed
		run.Error = err.Error()
	case out.failed > 0:
		run.Status = domain.RunPartial
	default:
		run.Status = domain.RunSuccess
	}

	if updateErr := deps.Store.UpdateRun(ctx, run); updateErr != nil {
		logger.Error("failed to record run end", "error", updateErr)
	}
	evaluateAlerts(ctx, deps, run, logger)
	if deps.Metrics != nil {
		deps.Metrics.JobDuration.WithLabelValues(string(jobType)).Observe(duration.Seconds())
		for sport, n := range out.bySport {
			deps.Metrics.JobItemsProcessed.WithLabelValues(string(jobType), sport).Add(float64(n))
		}
		if out.failed > 0 {
			deps.Metrics.JobItemsFailed.WithLabelValues(string(jobType)).Add(float64(out.failed))
		}
	}

	logger.Info("job finished",
		"status", run.Status,
		"duration_ms", millis,
		"processed", out.processed,
		"created", out.created,
		"updated", out.updated,
		"failed", out.failed,
	)
	return run, err
}

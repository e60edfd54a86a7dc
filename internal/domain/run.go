package domain

import (
	"time"

	"github.com/google/uuid"
)

// JobType is the compile-time-checked enum of known jobs. Adding a job
// means extending AllJobs and the dispatch table in internal/jobs, not
// registering a string key at runtime.
type JobType string

const (
	JobSyncFixtures     JobType = "sync_fixtures"
	JobSyncOdds         JobType = "sync_odds"
	JobSyncLiveScores   JobType = "sync_live_scores"
	JobTransitionEvents JobType = "transition_events"
)

// AllJobs lists every known job type, for the scheduler and control surface
// to range over without a reflection-based registry.
var AllJobs = []JobType{JobSyncFixtures, JobSyncOdds, JobSyncLiveScores, JobTransitionEvents}

// RunStatus is the enumerated status of a ScraperRun.
type RunStatus string

const (
	RunRunning RunStatus = "running"
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
	RunPartial RunStatus = "partial"
)

// ScraperRun is one row per job invocation, appended at start and updated
// at end. Rows are never mutated after completion.
type ScraperRun struct {
	ID             uuid.UUID
	JobType        JobType
	Source         string // empty for jobs that don't target a single source
	Status         RunStatus
	StartedAt      time.Time
	EndedAt        *time.Time
	DurationMillis *int64
	ItemsProcessed int
	ItemsCreated   int
	ItemsUpdated   int
	ItemsFailed    int
	BySport        map[string]int // per-sport item counts, for alert rules
	Error          string
}

// Duration computes the run's wall-clock duration once it has ended.
func (r *ScraperRun) Duration() time.Duration {
	if r.EndedAt == nil {
		return time.Since(r.StartedAt)
	}
	return r.EndedAt.Sub(r.StartedAt)
}

// AlertSeverity enumerates ScraperAlert severities.
type AlertSeverity string

const (
	SeverityInfo     AlertSeverity = "info"
	SeverityWarning  AlertSeverity = "warning"
	SeverityCritical AlertSeverity = "critical"
)

// ScraperAlert is raised by monitoring rules and read by the admin console.
type ScraperAlert struct {
	ID           uuid.UUID
	Severity     AlertSeverity
	Message      string
	RunID        *uuid.UUID
	Acknowledged bool
	CreatedAt    time.Time
}

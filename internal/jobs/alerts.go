package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pitchline/scoutd/internal/domain"
)

const (
	consecutiveFailureAlertThreshold = 3
	minFixturesPer24h                = 5
)

// evaluateAlerts is the rule set spec.md §3/§7 imply but never names an
// evaluator for. Run at the end of every job, it raises ScraperAlert rows
// for three conditions: a source stuck at three-plus consecutive failures,
// a sport's sync-fixtures run processing too few fixtures, and any
// scheduled Event stuck well past its kickoff without transitioning.
func evaluateAlerts(ctx context.Context, deps *Deps, run *domain.ScraperRun, logger *slog.Logger) {
	for _, name := range deps.OddsSources.Names() {
		if n := deps.OddsSources.ConsecutiveFailures(name); n >= consecutiveFailureAlertThreshold {
			raiseAlert(ctx, deps, logger, domain.SeverityCritical,
				fmt.Sprintf("source %q has failed %d times in a row", name, n), run.ID)
		}
	}

	if run.JobType == domain.JobSyncFixtures {
		for _, sport := range deps.Sports {
			if run.BySport[sport.Slug] < minFixturesPer24h {
				raiseAlert(ctx, deps, logger, domain.SeverityWarning,
					fmt.Sprintf("sport %q produced only %d fixtures in the last sync-fixtures run", sport.Slug, run.BySport[sport.Slug]), run.ID)
			}
		}
	}

	stuck, err := deps.Store.StuckScheduledEvents(ctx)
	if err != nil {
		logger.Warn("stuck-event alert check failed", "error", err)
		return
	}
	for _, e := range stuck {
		raiseAlert(ctx, deps, logger, domain.SeverityWarning,
			fmt.Sprintf("event %s (%s vs %s) is still scheduled more than 2h past its start time", e.ID, e.Home.Name, e.Away.Name), run.ID)
	}
}

func raiseAlert(ctx context.Context, deps *Deps, logger *slog.Logger, severity domain.AlertSeverity, message string, runID uuid.UUID) {
	alert := &domain.ScraperAlert{
		ID:        uuid.New(),
		Severity:  severity,
		Message:   message,
		RunID:     &runID,
		CreatedAt: time.Now(),
	}
	if err := deps.Store.InsertAlert(ctx, alert); err != nil {
		logger.Error("failed to persist alert", "error", err, "message", message)
	}
}

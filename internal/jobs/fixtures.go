package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-rod/rod"

	"github.com/pitchline/scoutd/internal/browser"
	"github.com/pitchline/scoutd/internal/domain"
	"github.com/pitchline/scoutd/internal/sources"
)

const fixtureWindowDays = 7

// runSyncFixtures walks each enabled sport, pulls the next 7 days of
// fixtures from the primary source, and creates scheduled Events with an
// initial match_winner Market. Expensive; the scheduler's cron rule caps
// it to once per 24h, not this function.
func runSyncFixtures(ctx context.Context, deps *Deps, logger *slog.Logger) (outcome, error) {
	out := outcome{bySport: map[string]int{}}

	for _, sport := range deps.Sports {
		urls := deps.FixtureURLs[sport.Slug]
		if len(urls) == 0 {
			continue
		}

		var result sources.FixtureResult
		err := deps.Pool.Execute(ctx, browser.ExecuteOptions{Humanize: true}, func(page *rod.Page) error {
			var scrapeErr error
			result, scrapeErr = sources.ScrapeFixtures(page, urls[0], deps.FixtureXPath, fixtureWindowDays)
			return scrapeErr
		})
		if err != nil {
			logger.Error("fixture scrape failed", "sport", sport.Slug, "error", err)
			out.failed++
			continue
		}

		switch result.Kind {
		case sources.KindBlocked:
			logger.Warn("fixture source blocked", "sport", sport.Slug, "reason", result.BlockedReason)
			out.failed++
			continue
		case sources.KindNoData:
			logger.Info("fixture source reported no data", "sport", sport.Slug)
			continue
		}

		created, processed, err := persistFixtures(ctx, deps, sport, result.Rows)
		if err != nil {
			logger.Error("persist fixtures failed", "sport", sport.Slug, "error", err)
			out.failed += len(result.Rows)
			continue
		}
		out.processed += processed
		out.created += created
		out.bySport[sport.Slug] += processed
	}

	return out, nil
}

func persistFixtures(ctx context.Context, deps *Deps, sport Sport, rows []sources.RawFixture) (created, processed int, err error) {
	sportID, err := deps.Store.UpsertSport(ctx, sport.Name, sport.Slug)
	if err != nil {
		return 0, 0, err
	}
	competitionID, err := deps.Store.UpsertCompetition(ctx, sportID, sport.Competition, sport.Competition)
	if err != nil {
		return 0, 0, err
	}
	_ = competitionID

	tx, err := deps.Store.BeginTx(ctx)
	if err != nil {
		return 0, 0, err
	}
	defer tx.Rollback()

	for _, r := range rows {
		homeID, err := deps.Store.UpsertTeam(ctx, sport.Slug, r.HomeTeam, r.HomeTeam)
		if err != nil {
			return created, processed, err
		}
		awayID, err := deps.Store.UpsertTeam(ctx, sport.Slug, r.AwayTeam, r.AwayTeam)
		if err != nil {
			return created, processed, err
		}

		event := &domain.Event{
			Sport:       sport.Slug,
			Competition: sport.Competition,
			Home:        domain.Participant{ID: homeID, Name: r.HomeTeam},
			Away:        domain.Participant{ID: awayID, Name: r.AwayTeam},
			StartTime:   r.StartTime,
			Status:      domain.EventScheduled,
			ExternalIDs: map[string]string{"primary": r.ExternalID},
		}
		eventID, isNew, err := deps.Store.UpsertEvent(ctx, tx, event, "primary")
		if err != nil {
			return created, processed, err
		}
		if _, err := deps.Store.InsertMatchWinnerMarket(ctx, tx, eventID); err != nil {
			return created, processed, err
		}

		processed++
		if isNew {
			created++
		}
	}

	if err := tx.Commit(); err != nil {
		return created, processed, fmt.Errorf("commit fixtures batch: %w", err)
	}
	_ = time.Now()
	return created, processed, nil
}

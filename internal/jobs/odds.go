package jobs

import (
	"context"
	"log/slog"

	"github.com/go-rod/rod"
	"github.com/google/uuid"

	"github.com/pitchline/scoutd/internal/browser"
	"github.com/pitchline/scoutd/internal/domain"
	"github.com/pitchline/scoutd/internal/resolver"
	"github.com/pitchline/scoutd/internal/sources"
)

const oddsTargetPerSport = 20

// runSyncOdds walks each sport's candidate events in the next 24h, pulling
// prices from registered sources in priority order until oddsTargetPerSport
// matched events are updated or the registry is exhausted, then falls back
// to the odds API client when nothing in-browser scored a match.
func runSyncOdds(ctx context.Context, deps *Deps, logger *slog.Logger) (outcome, error) {
	out := outcome{bySport: map[string]int{}}

	for _, sport := range deps.Sports {
		events, err := deps.Store.CandidatesForOdds(ctx, sport.Slug)
		if err != nil {
			logger.Error("load odds candidates failed", "sport", sport.Slug, "error", err)
			out.failed++
			continue
		}
		if len(events) == 0 {
			continue
		}

		candidates := toResolverCandidates(events)
		matched := 0

		for _, src := range deps.OddsSources.Available() {
			if matched >= oddsTargetPerSport {
				break
			}
			urls := src.SportURLs[sport.Slug]
			if len(urls) == 0 {
				continue
			}

			var result sources.Result
			execErr := deps.Pool.Execute(ctx, browser.ExecuteOptions{Humanize: true}, func(page *rod.Page) error {
				result = src.Scrape(page, sport.Slug)
				if result.Kind == sources.KindErr {
					return result.Err
				}
				return nil
			})

			switch {
			case execErr != nil || result.Kind == sources.KindErr:
				logger.Warn("odds source failed", "source", src.Name, "sport", sport.Slug, "error", execErr)
				deps.OddsSources.RecordFailure(src.Name)
				out.failed++
				continue
			case result.Kind == sources.KindBlocked:
				logger.Warn("odds source blocked", "source", src.Name, "sport", sport.Slug, "reason", result.BlockedReason)
				deps.OddsSources.RecordFailure(src.Name)
				out.failed++
				continue
			case result.Kind == sources.KindNoData:
				deps.OddsSources.RecordNoData(src.Name)
				continue
			}

			deps.OddsSources.RecordSuccess(src.Name)
			n, err := persistOddsRows(ctx, deps, src.Name, candidates, result.Rows)
			if err != nil {
				logger.Error("persist odds failed", "source", src.Name, "sport", sport.Slug, "error", err)
				out.failed++
				continue
			}
			matched += n
			out.processed += n
			out.updated += n
		}

		if matched == 0 && deps.OddsAPI != nil && deps.OddsAPI.Enabled() {
			result, err := deps.OddsAPI.Fetch(ctx, sport.Slug)
			if err != nil {
				logger.Warn("odds api fallback failed", "sport", sport.Slug, "error", err)
			} else if result.Kind == sources.KindOk {
				n, err := persistOddsRows(ctx, deps, "odds_api", candidates, result.Rows)
				if err != nil {
					logger.Error("persist odds api rows failed", "sport", sport.Slug, "error", err)
				} else {
					matched += n
					out.processed += n
					out.updated += n
				}
			}
		}

		out.bySport[sport.Slug] = matched
	}

	return out, nil
}

func toResolverCandidates(events []domain.Event) []resolver.Candidate {
	out := make([]resolver.Candidate, 0, len(events))
	for _, e := range events {
		out = append(out, resolver.Candidate{
			EventID:      e.ID.String(),
			HomeTeamID:   e.Home.ID.String(),
			AwayTeamID:   e.Away.ID.String(),
			HomeTeamName: e.Home.Name,
			AwayTeamName: e.Away.Name,
			StartTime:    e.StartTime,
		})
	}
	return out
}

func persistOddsRows(ctx context.Context, deps *Deps, sourceName string, candidates []resolver.Candidate, rows []sources.NormalizedOdds) (int, error) {
	matched := 0

	tx, err := deps.Store.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	for _, row := range rows {
		match, err := deps.Resolver.Resolve(sourceName, row.HomeTeam, row.AwayTeam, candidates, row.ScrapedAt)
		if err != nil {
			continue // unresolved row, not a batch failure
		}

		eventID, parseErr := uuid.Parse(match.EventID)
		if parseErr != nil {
			continue
		}
		marketID, err := deps.Store.InsertMatchWinnerMarket(ctx, tx, eventID)
		if err != nil {
			return matched, err
		}

		if row.HomeWin != nil && domain.ValidOdds(*row.HomeWin) {
			if err := deps.Store.UpsertOutcomes(ctx, tx, marketID, "home", *row.HomeWin); err != nil {
				return matched, err
			}
		}
		if row.Draw != nil && domain.ValidOdds(*row.Draw) {
			if err := deps.Store.UpsertOutcomes(ctx, tx, marketID, "draw", *row.Draw); err != nil {
				return matched, err
			}
		}
		if row.AwayWin != nil && domain.ValidOdds(*row.AwayWin) {
			if err := deps.Store.UpsertOutcomes(ctx, tx, marketID, "away", *row.AwayWin); err != nil {
				return matched, err
			}
		}
		matched++
	}

	if err := tx.Commit(); err != nil {
		return matched, err
	}
	return matched, nil
}

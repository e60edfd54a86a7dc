package jobs

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// runSyncLiveScores polls the live-scores endpoint for every Event already
// live or due to start, applies in-play readings, and settles finished
// events. Exits immediately when there is nothing to poll.
func runSyncLiveScores(ctx context.Context, deps *Deps, logger *slog.Logger) (outcome, error) {
	events, err := deps.Store.CandidatesForLive(ctx)
	if err != nil {
		return outcome{}, err
	}
	if len(events) == 0 {
		return outcome{}, nil
	}

	idToEvent := make(map[string]uuid.UUID, len(events))
	externalIDs := make([]string, 0, len(events))
	for _, e := range events {
		for _, extID := range e.ExternalIDs {
			idToEvent[extID] = e.ID
			externalIDs = append(externalIDs, extID)
		}
	}
	if len(externalIDs) == 0 {
		return outcome{}, nil
	}

	updates, err := deps.LiveScores.Fetch(ctx, externalIDs)
	if err != nil {
		return outcome{}, err
	}

	out := outcome{}
	for _, u := range updates {
		eventID, ok := idToEvent[u.ExternalID]
		if !ok {
			continue
		}

		if u.Finished {
			if err := deps.Store.MarkFinished(ctx, eventID, u.HomeScore, u.AwayScore); err != nil {
				logger.Error("mark finished failed", "event_id", eventID, "error", err)
				out.failed++
				continue
			}
			if err := deps.Settlement.Send(ctx, eventID.String()); err != nil {
				logger.Warn("settlement enqueue failed", "event_id", eventID, "error", err)
			}
			out.updated++
			out.processed++
			continue
		}

		if err := deps.Store.UpdateLiveState(ctx, eventID, u.HomeScore, u.AwayScore, u.Minute, u.Period); err != nil {
			logger.Error("update live state failed", "event_id", eventID, "error", err)
			out.failed++
			continue
		}
		out.updated++
		out.processed++
	}

	return out, nil
}

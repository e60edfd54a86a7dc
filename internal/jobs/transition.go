package jobs

import (
	"context"
	"log/slog"
)

// runTransitionEvents is the pure-DB job: flips due Events from
// scheduled to live. No scraping, no browser, no rate limiting.
func runTransitionEvents(ctx context.Context, deps *Deps, logger *slog.Logger) (outcome, error) {
	n, err := deps.Store.TransitionScheduledToLive(ctx)
	if err != nil {
		return outcome{}, err
	}
	logger.Debug("transitioned events to live", "count", n)
	return outcome{processed: int(n), updated: int(n)}, nil
}

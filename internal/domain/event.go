// Package domain holds the shared entities the scraper reads and writes in
// the relational store: events, markets, outcomes, teams, and the
// operational rows (scraper_runs, scraper_alerts) the job framework owns.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// EventStatus is the enumerated type stored in the shared schema's
// "status" column. The exact string spellings are part of the external
// contract (spec §6) and must not be altered.
type EventStatus string

const (
	EventScheduled EventStatus = "scheduled"
	EventLive      EventStatus = "live"
	EventFinished  EventStatus = "finished"
	EventCancelled EventStatus = "cancelled"
	EventPostponed EventStatus = "postponed"
)

// validEventTransitions enumerates the only status transitions the scraper
// may perform. Anything not listed here is rejected by the persistence
// adapter before it reaches the database.
var validEventTransitions = map[EventStatus][]EventStatus{
	EventScheduled: {EventLive, EventCancelled, EventPostponed},
	EventLive:      {EventFinished},
}

// CanTransition reports whether moving an Event from "from" to "to" is one
// of the transitions spec §8's status-monotonicity invariant allows.
func CanTransition(from, to EventStatus) bool {
	for _, allowed := range validEventTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Participant is one side of a fixture: a team pair or a player pair,
// depending on sport.
type Participant struct {
	ID        uuid.UUID
	Name      string
	ShortName string
}

// Event is a unique scheduled fixture.
type Event struct {
	ID           uuid.UUID
	Sport        string
	Competition  string
	Home         Participant
	Away         Participant
	StartTime    time.Time
	Status       EventStatus
	HomeScore    *int
	AwayScore    *int
	Period       *string
	Minute       *int
	ExternalIDs  map[string]string // source name -> external id, used for idempotent upserts
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Valid checks the two Event invariants spec.md §3 names. It does not
// mutate the Event; callers reject persistence of an invalid row.
func (e *Event) Valid() error {
	if e.Status == EventLive && e.StartTime.After(time.Now()) {
		return errInvalidEvent{"status=live requires start_time <= now"}
	}
	if e.Status == EventFinished && (e.HomeScore == nil || e.AwayScore == nil) {
		return errInvalidEvent{"status=finished requires both scores to be non-null"}
	}
	return nil
}

type errInvalidEvent struct{ reason string }

func (e errInvalidEvent) Error() string { return "invalid event: " + e.reason }

// MarketType enumerates the betting-market taxonomy the shared schema
// defines. Only the subset the scraper writes is listed; the schema may
// carry more that settlement or the mobile app use.
type MarketType string

const (
	MarketMatchWinner    MarketType = "match_winner"
	MarketOverUnderGoals MarketType = "over_under_goals"
)

// Market is a betting market attached to an Event.
type Market struct {
	ID        uuid.UUID
	EventID   uuid.UUID
	Type      MarketType
	Line      *float64
	Suspended bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Outcome is a single priced option within a Market.
type Outcome struct {
	ID            uuid.UUID
	MarketID      uuid.UUID
	Name          string
	Odds          float64
	PreviousOdds  *float64
	Winner        *bool
	UpdatedAt     time.Time
}

// MinOdds and MaxOdds bound the decimal-odds domain invariant from spec §8.
const (
	MinOdds = 1.01
	MaxOdds = 1000.0
)

// ValidOdds reports whether a decimal price is in the persistable range.
func ValidOdds(v float64) bool {
	return v >= MinOdds && v <= MaxOdds
}

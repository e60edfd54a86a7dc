// Package store implements the persistence adapter component (J): the
// relational store shared with the mobile/API product. Grounded on
// bramrahmadi-learnbot's internal/storage.JobRepository upsert pattern
// (ON CONFLICT ... RETURNING (xmax = 0) AS is_new), rebuilt against
// jmoiron/sqlx instead of database/sql for struct-scanning convenience,
// and scoped to the scraper's own write surface: Sport, Competition,
// Team, TeamAlias, Event, Market, Outcome, ScraperRun, ScraperAlert.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/pitchline/scoutd/internal/domain"
)

// Store wraps a sqlx connection pool with the scraper's persistence
// operations. Event, market and outcome writes of one job batch happen
// inside a single transaction; sport, competition and team upserts and
// alias write-backs run outside it and persist even when a batch rolls
// back.
type Store struct {
	db *sqlx.DB
}

// Open connects to Postgres using the given DSN.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Store{db: db}, nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error { return s.db.Close() }

// Ping verifies connectivity, used at startup to fail fast (spec §6: DB
// unreachable is an init-time fatal condition).
func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// UpsertSport ensures a Sport row exists for the slug, returning its id.
func (s *Store) UpsertSport(ctx context.Context, name, slug string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sports (id, name, slug)
		VALUES (gen_random_uuid(), $1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, name, slug).Scan(&id)
	if err != nil {
		return uuid.Nil, &domain.PersistenceError{Op: "upsert_sport", Err: err}
	}
	return id, nil
}

// UpsertCompetition ensures a Competition row exists under the given sport.
func (s *Store) UpsertCompetition(ctx context.Context, sportID uuid.UUID, name, slug string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO competitions (id, sport_id, name, slug)
		VALUES (gen_random_uuid(), $1, $2, $3)
		ON CONFLICT (sport_id, slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING id`, sportID, name, slug).Scan(&id)
	if err != nil {
		return uuid.Nil, &domain.PersistenceError{Op: "upsert_competition", Err: err}
	}
	return id, nil
}

// UpsertTeam ensures a Team row exists for (sport, name).
func (s *Store) UpsertTeam(ctx context.Context, sport, name, shortName string) (uuid.UUID, error) {
	var id uuid.UUID
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO teams (id, sport, name, short_name, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, NOW())
		ON CONFLICT (sport, name) DO UPDATE SET short_name = EXCLUDED.short_name
		RETURNING id`, sport, name, shortName).Scan(&id)
	if err != nil {
		return uuid.Nil, &domain.PersistenceError{Op: "upsert_team", Err: err}
	}
	return id, nil
}

// ResolveAlias implements resolver.AliasStore's exact-match fast path.
func (s *Store) ResolveAlias(source, text string) (string, bool) {
	var teamID uuid.UUID
	err := s.db.Get(&teamID, `SELECT team_id FROM team_aliases WHERE source_name = $1 AND alias = $2`, source, text)
	if err != nil {
		return "", false
	}
	return teamID.String(), true
}

// WriteAlias implements resolver.AliasStore's write-back on acceptance.
func (s *Store) WriteAlias(teamID, alias, source string) error {
	_, err := s.db.Exec(`
		INSERT INTO team_aliases (id, team_id, alias, source_name, created_at)
		VALUES (gen_random_uuid(), $1, $2, $3, NOW())
		ON CONFLICT (source_name, alias) DO NOTHING`, teamID, alias, source)
	if err != nil {
		return &domain.PersistenceError{Op: "write_alias", Err: err}
	}
	return nil
}

// UpsertEvent creates or updates an Event keyed by its external id for the
// given source, falling back to (sport, start_time, home, away) when no
// external id is available (spec §6 idempotence invariant). Returns the
// event id and whether the row was newly created.
func (s *Store) UpsertEvent(ctx context.Context, tx *sqlx.Tx, e *domain.Event, sourceName string) (uuid.UUID, bool, error) {
	if err := e.Valid(); err != nil {
		return uuid.Nil, false, &domain.PersistenceError{Op: "upsert_event", Err: err}
	}
	externalID := e.ExternalIDs[sourceName]

	var id uuid.UUID
	var isNew bool
	var err error
	if externalID != "" {
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO events (id, sport, competition, home_team_id, away_team_id, start_time, status, external_id, source, created_at, updated_at)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, $7, $8, NOW(), NOW())
			ON CONFLICT (source, external_id) DO UPDATE SET
				start_time = EXCLUDED.start_time,
				updated_at = NOW()
			RETURNING id, (xmax = 0) AS is_new`,
			e.Sport, e.Competition, e.Home.ID, e.Away.ID, e.StartTime, e.Status, externalID, sourceName,
		).Scan(&id, &isNew)
	} else {
		err = tx.QueryRowxContext(ctx, `
			INSERT INTO events (id, sport, competition, home_team_id, away_team_id, start_time, status, created_at, updated_at)
			VALUES (gen_random_uuid(), $1, $2, $3, $4, $5, $6, NOW(), NOW())
			ON CONFLICT (sport, start_time, home_team_id, away_team_id) DO UPDATE SET
				updated_at = NOW()
			RETURNING id, (xmax = 0) AS is_new`,
			e.Sport, e.Competition, e.Home.ID, e.Away.ID, e.StartTime, e.Status,
		).Scan(&id, &isNew)
	}
	if err != nil {
		return uuid.Nil, false, &domain.PersistenceError{Op: "upsert_event", Err: err}
	}
	return id, isNew, nil
}

// InsertMatchWinnerMarket creates the initial match_winner Market a newly
// created Event gets from sync-fixtures.
func (s *Store) InsertMatchWinnerMarket(ctx context.Context, tx *sqlx.Tx, eventID uuid.UUID) (uuid.UUID, error) {
	var id uuid.UUID
	err := tx.QueryRowxContext(ctx, `
		INSERT INTO markets (id, event_id, type, suspended, created_at, updated_at)
		VALUES (gen_random_uuid(), $1, $2, false, NOW(), NOW())
		ON CONFLICT (event_id, type) DO UPDATE SET updated_at = NOW()
		RETURNING id`, eventID, domain.MarketMatchWinner).Scan(&id)
	if err != nil {
		return uuid.Nil, &domain.PersistenceError{Op: "insert_market", Err: err}
	}
	return id, nil
}

// UpsertOutcomes writes one named match-winner outcome (callers pass
// "home", "draw" or "away" in turn), preserving the
// prior price in previous_odds per spec §3's ordering guarantee.
func (s *Store) UpsertOutcomes(ctx context.Context, tx *sqlx.Tx, marketID uuid.UUID, name string, oddsValue float64) error {
	if !domain.ValidOdds(oddsValue) {
		return &domain.PersistenceError{Op: "upsert_outcome", Err: fmt.Errorf("odds %v out of range", oddsValue)}
	}
	_, err := tx.ExecContext(ctx, `
		INSERT INTO outcomes (id, market_id, name, odds, updated_at)
		VALUES (gen_random_uuid(), $1, $2, $3, NOW())
		ON CONFLICT (market_id, name) DO UPDATE SET
			previous_odds = outcomes.odds,
			odds = EXCLUDED.odds,
			updated_at = NOW()`,
		marketID, name, oddsValue)
	if err != nil {
		return &domain.PersistenceError{Op: "upsert_outcome", Err: err}
	}
	return nil
}

// TransitionScheduledToLive flips due Events to live, implementing
// transition-events. Returns the number of rows affected.
func (s *Store) TransitionScheduledToLive(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET status = $1, updated_at = NOW()
		WHERE status = $2 AND start_time <= NOW()`,
		domain.EventLive, domain.EventScheduled)
	if err != nil {
		return 0, &domain.PersistenceError{Op: "transition_events", Err: err}
	}
	return res.RowsAffected()
}

// candidateColumns is shared by every query that hydrates domain.Event
// for the resolver: team names must travel with the id, since
// resolver.Candidate matching runs on name similarity, not on id.
const candidateColumns = `
	e.id, e.sport, e.competition, e.home_team_id, e.away_team_id, e.start_time, e.status,
	e.home_score, e.away_score, e.period, e.minute, e.external_id, e.source, e.created_at, e.updated_at,
	ht.name AS home_team_name, ht.short_name AS home_team_short_name,
	at.name AS away_team_name, at.short_name AS away_team_short_name
	FROM events e
	JOIN teams ht ON ht.id = e.home_team_id
	JOIN teams at ON at.id = e.away_team_id`

// CandidatesForLive selects Events sync-live-scores should poll: already
// live, or scheduled and due to start.
func (s *Store) CandidatesForLive(ctx context.Context) ([]domain.Event, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+candidateColumns+`
		WHERE e.status = $1 OR (e.status = $2 AND e.start_time <= NOW())`,
		domain.EventLive, domain.EventScheduled)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "candidates_for_live", Err: err}
	}
	return toEvents(rows), nil
}

// CandidatesForOdds selects Events starting in the next 24h, the window
// sync-odds operates over.
func (s *Store) CandidatesForOdds(ctx context.Context, sport string) ([]domain.Event, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+candidateColumns+`
		WHERE e.sport = $1 AND e.status = $2 AND e.start_time BETWEEN NOW() AND NOW() + INTERVAL '24 hours'`,
		sport, domain.EventScheduled)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "candidates_for_odds", Err: err}
	}
	return toEvents(rows), nil
}

// NextScheduledStart returns the start_time of the soonest Event still
// scheduled, or nil if there are none. Used by the adaptive sync-odds
// scheduler to classify urgency.
func (s *Store) NextScheduledStart(ctx context.Context) (*time.Time, error) {
	var t sql.NullTime
	err := s.db.GetContext(ctx, &t, `
		SELECT MIN(start_time) FROM events WHERE status = $1`, domain.EventScheduled)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "next_scheduled_start", Err: err}
	}
	if !t.Valid {
		return nil, nil
	}
	return &t.Time, nil
}

// StuckScheduledEvents returns scheduled Events whose start_time is more
// than two hours in the past, the "stuck event" alert rule's input.
func (s *Store) StuckScheduledEvents(ctx context.Context) ([]domain.Event, error) {
	var rows []eventRow
	err := s.db.SelectContext(ctx, &rows, `
		SELECT `+candidateColumns+`
		WHERE e.status = $1 AND e.start_time < NOW() - INTERVAL '2 hours'`,
		domain.EventScheduled)
	if err != nil {
		return nil, &domain.PersistenceError{Op: "stuck_scheduled_events", Err: err}
	}
	return toEvents(rows), nil
}

// MarkFinished applies a live-score "finished" cue: writes final scores
// and flips status to finished. Only a live Event may finish; any other
// current status is rejected with an error and the row is left unchanged.
func (s *Store) MarkFinished(ctx context.Context, eventID uuid.UUID, homeScore, awayScore int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE events SET status = $1, home_score = $2, away_score = $3, updated_at = NOW()
		WHERE id = $4 AND status = $5`, domain.EventFinished, homeScore, awayScore, eventID, domain.EventLive)
	if err != nil {
		return &domain.PersistenceError{Op: "mark_finished", Err: err}
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return &domain.PersistenceError{Op: "mark_finished", Err: fmt.Errorf("event %s is not live", eventID)}
	}
	return nil
}

// UpdateLiveState applies an in-play score/period/minute reading.
func (s *Store) UpdateLiveState(ctx context.Context, eventID uuid.UUID, homeScore, awayScore, minute int, period string) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE events SET home_score = $1, away_score = $2, minute = $3, period = $4, updated_at = NOW()
		WHERE id = $5`, homeScore, awayScore, minute, period, eventID)
	if err != nil {
		return &domain.PersistenceError{Op: "update_live_state", Err: err}
	}
	return nil
}

// BeginTx starts a transaction for one job batch.
func (s *Store) BeginTx(ctx context.Context) (*sqlx.Tx, error) {
	return s.db.BeginTxx(ctx, nil)
}

// InsertRun records the start of a job invocation.
func (s *Store) InsertRun(ctx context.Context, r *domain.ScraperRun) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scraper_runs (id, job_type, source, status, started_at)
		VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.JobType, r.Source, r.Status, r.StartedAt)
	if err != nil {
		return &domain.PersistenceError{Op: "insert_run", Err: err}
	}
	return nil
}

// UpdateRun persists the final state of a job invocation.
func (s *Store) UpdateRun(ctx context.Context, r *domain.ScraperRun) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE scraper_runs SET
			status = $1, ended_at = $2, duration_millis = $3,
			items_processed = $4, items_created = $5, items_updated = $6, items_failed = $7,
			error = $8
		WHERE id = $9`,
		r.Status, r.EndedAt, r.DurationMillis,
		r.ItemsProcessed, r.ItemsCreated, r.ItemsUpdated, r.ItemsFailed,
		nullIfEmpty(r.Error), r.ID)
	if err != nil {
		return &domain.PersistenceError{Op: "update_run", Err: err}
	}
	return nil
}

// InsertAlert raises an operational alert row.
func (s *Store) InsertAlert(ctx context.Context, a *domain.ScraperAlert) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO scraper_alerts (id, severity, message, run_id, acknowledged, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.Severity, a.Message, a.RunID, a.Acknowledged, a.CreatedAt)
	if err != nil {
		return &domain.PersistenceError{Op: "insert_alert", Err: err}
	}
	return nil
}

func nullIfEmpty(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

type eventRow struct {
	ID                uuid.UUID      `db:"id"`
	Sport             string         `db:"sport"`
	Competition       string         `db:"competition"`
	HomeTeamID        uuid.UUID      `db:"home_team_id"`
	AwayTeamID        uuid.UUID      `db:"away_team_id"`
	StartTime         time.Time      `db:"start_time"`
	Status            string         `db:"status"`
	HomeScore         sql.NullInt64  `db:"home_score"`
	AwayScore         sql.NullInt64  `db:"away_score"`
	Period            sql.NullString `db:"period"`
	Minute            sql.NullInt64  `db:"minute"`
	ExternalID        sql.NullString `db:"external_id"`
	Source            sql.NullString `db:"source"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
	HomeTeamName      sql.NullString `db:"home_team_name"`
	HomeTeamShortName sql.NullString `db:"home_team_short_name"`
	AwayTeamName      sql.NullString `db:"away_team_name"`
	AwayTeamShortName sql.NullString `db:"away_team_short_name"`
}

func toEvents(rows []eventRow) []domain.Event {
	out := make([]domain.Event, 0, len(rows))
	for _, r := range rows {
		e := domain.Event{
			ID:          r.ID,
			Sport:       r.Sport,
			Competition: r.Competition,
			Home: domain.Participant{
				ID:        r.HomeTeamID,
				Name:      r.HomeTeamName.String,
				ShortName: r.HomeTeamShortName.String,
			},
			Away: domain.Participant{
				ID:        r.AwayTeamID,
				Name:      r.AwayTeamName.String,
				ShortName: r.AwayTeamShortName.String,
			},
			StartTime:   r.StartTime,
			Status:      domain.EventStatus(r.Status),
			CreatedAt:   r.CreatedAt,
			UpdatedAt:   r.UpdatedAt,
			ExternalIDs: map[string]string{},
		}
		if r.HomeScore.Valid {
			v := int(r.HomeScore.Int64)
			e.HomeScore = &v
		}
		if r.AwayScore.Valid {
			v := int(r.AwayScore.Int64)
			e.AwayScore = &v
		}
		if r.Period.Valid {
			e.Period = &r.Period.String
		}
		if r.Minute.Valid {
			v := int(r.Minute.Int64)
			e.Minute = &v
		}
		if r.Source.Valid && r.ExternalID.Valid {
			e.ExternalIDs[r.Source.String] = r.ExternalID.String
		}
		out = append(out, e)
	}
	return out
}

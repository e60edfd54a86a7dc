package store

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/pitchline/scoutd/internal/domain"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return &Store{db: sqlx.NewDb(db, "postgres")}, mock
}

func TestUpsertSportReturnsID(t *testing.T) {
	s, mock := newMockStore(t)
	want := uuid.New()

	mock.ExpectQuery(`INSERT INTO sports`).
		WithArgs("Football", "football").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(want))

	got, err := s.UpsertSport(context.Background(), "Football", "football")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Fatalf("expected id %s, got %s", want, got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertOutcomesRejectsOutOfRangeOdds(t *testing.T) {
	s, _ := newMockStore(t)
	tx, _ := s.db.Beginx()

	err := s.UpsertOutcomes(context.Background(), tx, uuid.New(), "home", 0.5)
	if err == nil {
		t.Fatal("expected rejection of odds below MinOdds")
	}
}

func TestTransitionScheduledToLiveReturnsRowCount(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE events SET status`).
		WithArgs(domain.EventLive, domain.EventScheduled).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := s.TransitionScheduledToLive(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 rows affected, got %d", n)
	}
}

func TestInsertRunAndUpdateRun(t *testing.T) {
	s, mock := newMockStore(t)
	run := &domain.ScraperRun{
		ID:        uuid.New(),
		JobType:   domain.JobSyncFixtures,
		Status:    domain.RunRunning,
		StartedAt: time.Now(),
	}

	mock.ExpectExec(`INSERT INTO scraper_runs`).
		WithArgs(run.ID, run.JobType, run.Source, run.Status, run.StartedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := s.InsertRun(context.Background(), run); err != nil {
		t.Fatalf("insert run: %v", err)
	}

	ended := time.Now()
	run.EndedAt = &ended
	run.Status = domain.RunSuccess
	mock.ExpectExec(`UPDATE scraper_runs SET`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := s.UpdateRun(context.Background(), run); err != nil {
		t.Fatalf("update run: %v", err)
	}
}

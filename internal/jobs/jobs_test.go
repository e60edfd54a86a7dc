package jobs

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/pitchline/scoutd/internal/domain"
)

func TestDispatchCoversEveryJobType(t *testing.T) {
	for _, jt := range domain.AllJobs {
		if _, ok := dispatch[jt]; !ok {
			t.Fatalf("job type %s has no dispatch entry", jt)
		}
	}
}

func TestToResolverCandidatesCarriesEventFields(t *testing.T) {
	eventID := uuid.New()
	homeID := uuid.New()
	awayID := uuid.New()
	start := time.Date(2026, 8, 1, 15, 0, 0, 0, time.UTC)

	events := []domain.Event{{
		ID:        eventID,
		Home:      domain.Participant{ID: homeID, Name: "Arsenal"},
		Away:      domain.Participant{ID: awayID, Name: "Chelsea"},
		StartTime: start,
	}}

	got := toResolverCandidates(events)
	if len(got) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(got))
	}
	c := got[0]
	if c.EventID != eventID.String() || c.HomeTeamID != homeID.String() || c.AwayTeamID != awayID.String() {
		t.Fatalf("candidate id fields not carried through: %+v", c)
	}
	if c.HomeTeamName != "Arsenal" || c.AwayTeamName != "Chelsea" {
		t.Fatalf("candidate names not carried through: %+v", c)
	}
	if !c.StartTime.Equal(start) {
		t.Fatalf("expected start time %v, got %v", start, c.StartTime)
	}
}

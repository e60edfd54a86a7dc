package resolver

import (
	"io"
	"log/slog"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestNormalizeStripsNoiseAndMapsUnited(t *testing.T) {
	got := Normalize("Manchester United FC")
	if got != "manchester utd" {
		t.Fatalf("expected 'manchester utd', got %q", got)
	}
}

func TestNormalizeDropsTrailingCity(t *testing.T) {
	got := Normalize("Leicester City")
	if got != "leicester" {
		t.Fatalf("expected 'leicester', got %q", got)
	}
}

func TestSimilarityIdentical(t *testing.T) {
	if s := similarity("arsenal", "arsenal"); s != 1.0 {
		t.Fatalf("expected similarity 1.0 for identical strings, got %v", s)
	}
}

type fakeAliasStore struct {
	aliases map[string]string
	written []string
}

func (f *fakeAliasStore) ResolveAlias(source, text string) (string, bool) {
	id, ok := f.aliases[source+"|"+text]
	return id, ok
}

func (f *fakeAliasStore) WriteAlias(teamID, alias, source string) error {
	f.written = append(f.written, source+"|"+alias+"->"+teamID)
	return nil
}

func TestResolveAcceptsHighSimilarityCandidate(t *testing.T) {
	store := &fakeAliasStore{aliases: map[string]string{}}
	r := New(store, testLogger())

	start := time.Now().Add(2 * time.Hour)
	candidates := []Candidate{
		{EventID: "evt-1", HomeTeamID: "home-1", AwayTeamID: "away-1", HomeTeamName: "Arsenal", AwayTeamName: "Chelsea", StartTime: start},
	}

	match, err := r.Resolve("oddschecker", "Arsenal FC", "Chelsea FC", candidates, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.EventID != "evt-1" {
		t.Fatalf("expected evt-1, got %s", match.EventID)
	}
	if len(store.written) != 2 {
		t.Fatalf("expected 2 alias write-backs for raw!=canonical names, got %d", len(store.written))
	}
}

func TestResolveReturnsMissBelowThreshold(t *testing.T) {
	store := &fakeAliasStore{aliases: map[string]string{}}
	r := New(store, testLogger())

	start := time.Now()
	candidates := []Candidate{
		{EventID: "evt-1", HomeTeamID: "home-1", AwayTeamID: "away-1", HomeTeamName: "Arsenal", AwayTeamName: "Chelsea", StartTime: start},
	}

	_, err := r.Resolve("oddschecker", "Totally Different Team", "Another One", candidates, start)
	if err == nil {
		t.Fatal("expected resolver miss for dissimilar names")
	}
}

func TestResolveUsesAliasFastPath(t *testing.T) {
	store := &fakeAliasStore{aliases: map[string]string{
		"oddschecker|Gunners": "home-1",
		"oddschecker|Blues":   "away-1",
	}}
	r := New(store, testLogger())

	start := time.Now()
	candidates := []Candidate{
		{EventID: "evt-1", HomeTeamID: "home-1", AwayTeamID: "away-1", HomeTeamName: "Arsenal", AwayTeamName: "Chelsea", StartTime: start},
	}

	match, err := r.Resolve("oddschecker", "Gunners", "Blues", candidates, start)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if match.EventID != "evt-1" || match.Score != 1.0 {
		t.Fatalf("expected exact alias match with score 1.0, got %+v", match)
	}
}

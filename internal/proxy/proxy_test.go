package proxy

import (
	"log/slog"
	"io"
	"testing"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRotatorDisabledWithNoProviders(t *testing.T) {
	r, err := NewRotator(nil, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if r.Enabled() {
		t.Fatal("expected rotator to be disabled with no providers")
	}
	p := r.Select()
	if p.Enabled {
		t.Fatal("expected sentinel disabled Proxy")
	}
}

func TestRotatorPrefersLowestCost(t *testing.T) {
	r, err := NewRotator([]Config{
		{Name: "cheap", URLTemplate: "http://cheap.example:8080", CostWeight: 1},
		{Name: "pricey", URLTemplate: "http://pricey.example:8080", CostWeight: 10},
	}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	p := r.Select()
	if p.Provider != "cheap" {
		t.Fatalf("expected cheap provider selected first, got %q", p.Provider)
	}
}

func TestRotatorQuarantinesAfterFiveConsecutiveFailures(t *testing.T) {
	r, err := NewRotator([]Config{
		{Name: "only", URLTemplate: "http://only.example:8080", CostWeight: 1},
	}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < quarantineThreshold; i++ {
		r.RecordFailure("only")
	}
	if !r.providers[0].quarantined() {
		t.Fatal("expected provider to be quarantined after five consecutive failures")
	}

	p := r.Select()
	if !p.Enabled || p.Provider != "only" {
		t.Fatalf("expected graceful degrade to the only provider, got %+v", p)
	}
}

func TestRotatorFailsOverBelowSuccessFloor(t *testing.T) {
	r, err := NewRotator([]Config{
		{Name: "flaky", URLTemplate: "http://flaky.example:8080", CostWeight: 1},
		{Name: "reliable", URLTemplate: "http://reliable.example:8080", CostWeight: 2},
	}, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < quarantineThreshold-1; i++ {
		r.RecordFailure("flaky")
	}
	r.RecordSuccess("flaky")
	for i := 0; i < quarantineThreshold-1; i++ {
		r.RecordFailure("flaky")
	}
	r.RecordSuccess("flaky")
	// flaky now sits below the success floor without crossing into quarantine
	r.RecordSuccess("reliable")

	p := r.Select()
	if p.Provider != "reliable" {
		t.Fatalf("expected failover to reliable provider, got %q", p.Provider)
	}
}

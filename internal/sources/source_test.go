package sources

import "testing"

func TestClassifyEmptyPagePrefersBlockedOverNoData(t *testing.T) {
	text := "Please complete the captcha. No upcoming matches."
	r := ClassifyEmptyPage(text)
	if r.Kind != KindBlocked {
		t.Fatalf("expected blocked classification when both patterns present, got %v", r.Kind)
	}
}

func TestClassifyEmptyPageDetectsBotBlockPhrasing(t *testing.T) {
	for _, text := range []string{
		"Please verify you are human before continuing.",
		"Please verify you are a human before continuing.",
	} {
		r := ClassifyEmptyPage(text)
		if r.Kind != KindBlocked {
			t.Fatalf("expected blocked classification for %q, got %v", text, r.Kind)
		}
	}
}

func TestClassifyEmptyPageDetectsNoData(t *testing.T) {
	r := ClassifyEmptyPage("Sorry, no upcoming matches for this league right now.")
	if r.Kind != KindNoData {
		t.Fatalf("expected no-data classification, got %v", r.Kind)
	}
}

func TestClassifyEmptyPageDefaultsToNoData(t *testing.T) {
	r := ClassifyEmptyPage("Welcome to our totally ordinary sports page.")
	if r.Kind != KindNoData {
		t.Fatalf("expected default no-data classification, got %v", r.Kind)
	}
}

func TestRegistryAvailableOrdersByPriority(t *testing.T) {
	reg := NewRegistry([]Source{
		{Name: "b", Enabled: true, Priority: 2},
		{Name: "a", Enabled: true, Priority: 1},
		{Name: "disabled", Enabled: false, Priority: 0},
	})

	avail := reg.Available()
	if len(avail) != 2 {
		t.Fatalf("expected 2 available sources, got %d", len(avail))
	}
	if avail[0].Name != "a" || avail[1].Name != "b" {
		t.Fatalf("expected priority order a,b; got %s,%s", avail[0].Name, avail[1].Name)
	}
}

func TestRegistryFailureAppliesCooldown(t *testing.T) {
	reg := NewRegistry([]Source{{Name: "x", Enabled: true, CooldownMinutes: 30}})
	reg.RecordFailure("x")

	avail := reg.Available()
	if len(avail) != 0 {
		t.Fatalf("expected source to be cooling down, got %d available", len(avail))
	}
	if reg.ConsecutiveFailures("x") != 1 {
		t.Fatalf("expected failure streak 1, got %d", reg.ConsecutiveFailures("x"))
	}
}

func TestRegistrySuccessClearsCooldown(t *testing.T) {
	reg := NewRegistry([]Source{{Name: "x", Enabled: true, CooldownMinutes: 30}})
	reg.RecordFailure("x")
	reg.RecordSuccess("x")

	avail := reg.Available()
	if len(avail) != 1 {
		t.Fatalf("expected source available again after success, got %d", len(avail))
	}
}

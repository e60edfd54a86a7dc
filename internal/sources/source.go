// Package sources implements the source registry component (E): the
// catalog of scrapeable endpoints for fixtures, odds and live scores, and
// the shared result-variant contract their scrape functions return.
// Grounded on the teacher's internal/fetcher and internal/automation
// browser-interaction helpers and on bramrahmadi-learnbot's Scraper
// interface shape, but jobs (internal/jobs) drive the scrape loop rather
// than an engine's worker pool.
package sources

import (
	"strings"
	"time"

	"github.com/go-rod/rod"
)

// NormalizedOdds is one fixture's odds as lifted off a source page, before
// entity resolution matches it to a stored Event.
type NormalizedOdds struct {
	HomeTeam       string
	AwayTeam       string
	HomeWin        *float64
	Draw           *float64
	AwayWin        *float64
	BookmakerCount *int
	ScrapedAt      time.Time
}

// ResultKind tags a Result's variant. Spec §9 calls for a result-variant,
// not exception-based, "no data vs blocked" contract.
type ResultKind int

const (
	KindOk ResultKind = iota
	KindNoData
	KindBlocked
	KindErr
)

// Result is the sum-type scrape functions return: exactly one of Rows,
// NoData, Blocked or Err is meaningful, selected by Kind.
type Result struct {
	Kind          ResultKind
	Rows          []NormalizedOdds
	BlockedReason string
	Err           error
}

func Ok(rows []NormalizedOdds) Result       { return Result{Kind: KindOk, Rows: rows} }
func NoData() Result                        { return Result{Kind: KindNoData} }
func Blocked(reason string) Result          { return Result{Kind: KindBlocked, BlockedReason: reason} }
func Err(err error) Result                  { return Result{Kind: KindErr, Err: err} }

// ScrapeFunc is the per-source extraction behaviour spec §4.E describes:
// navigate, dismiss cookie banners, scroll, parse, and fall back to the
// no-data/blocked pattern catalogs when zero rows are produced.
type ScrapeFunc func(page *rod.Page, sport string) Result

// Source is one registry entry.
type Source struct {
	Name            string
	Domain          string
	Enabled         bool
	Priority        int // lower is preferred
	CooldownMinutes int
	SportURLs       map[string][]string
	Scrape          ScrapeFunc
}

var noDataPatterns = []string{
	"no upcoming matches",
	"no matches found",
	"odds will feature here",
	"check back later",
	"no events scheduled",
}

var blockedPatterns = []string{
	"captcha",
	"are you a robot",
	"access denied",
	"unusual traffic",
	"challenge platform",
	"please verify you are human",
	"please verify you are a human",
}

// ClassifyEmptyPage inspects page text when a scrape produced zero rows,
// testing BLOCKED patterns first: a page that both looks blocked and
// lacks the "no data" phrasing must be treated as a block, never as a
// quiet no-data result.
func ClassifyEmptyPage(pageText string) Result {
	lower := strings.ToLower(pageText)
	for _, p := range blockedPatterns {
		if strings.Contains(lower, p) {
			return Blocked(p)
		}
	}
	for _, p := range noDataPatterns {
		if strings.Contains(lower, p) {
			return NoData()
		}
	}
	return NoData()
}

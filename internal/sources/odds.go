package sources

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-rod/rod"
)

// cookieConsentSelectors repeats the first three entries of
// internal/browser's list (not its ".cookie-consent-accept"); kept source-side
// too since a source may need to dismiss a banner the pool's generic
// humanize pass didn't catch (e.g. a second interstitial after navigate).
var cookieConsentSelectors = []string{
	`#onetrust-accept-btn-handler`,
	`button[aria-label="Accept all cookies"]`,
	`button#accept-cookies`,
}

const minEventsPerSource = 20

// NewOddsSource builds a browser-based odds source against a bookmaker
// site: up to three fallback URLs per sport, a match-row selector to wait
// on, and a goquery-based DOM extraction of the three-way price columns.
func NewOddsSource(name, domain string, priority, cooldownMinutes int, sportURLs map[string][]string, matchRowSelector string, logger *slog.Logger) Source {
	log := logger.With("source", name)
	return Source{
		Name:            name,
		Domain:          domain,
		Enabled:         true,
		Priority:        priority,
		CooldownMinutes: cooldownMinutes,
		SportURLs:       sportURLs,
		Scrape: func(page *rod.Page, sport string) Result {
			urls := sportURLs[sport]
			var collected []NormalizedOdds

			for i, url := range urls {
				if i >= 3 {
					break
				}
				if err := page.Timeout(45 * time.Second).Navigate(url); err != nil {
					log.Warn("navigate failed", "url", url, "error", err)
					continue
				}
				dismissBanner(page)
				_, _ = page.Eval(`window.scrollBy(0, document.body.scrollHeight / 2)`)

				if matchRowSelector != "" {
					_, err := page.Timeout(10 * time.Second).Element(matchRowSelector)
					if err != nil {
						log.Debug("match row selector timeout", "selector", matchRowSelector)
					}
				}

				html, err := page.HTML()
				if err != nil {
					return Err(fmt.Errorf("read html: %w", err))
				}

				rows, parseErr := parseOddsRows(html, matchRowSelector)
				if parseErr != nil {
					log.Warn("parse error", "error", parseErr)
					continue
				}
				collected = append(collected, rows...)
				if len(collected) >= minEventsPerSource {
					break
				}
			}

			if len(collected) == 0 {
				text, _ := page.HTML()
				return ClassifyEmptyPage(text)
			}
			return Ok(collected)
		},
	}
}

func dismissBanner(page *rod.Page) {
	for _, sel := range cookieConsentSelectors {
		el, err := page.Timeout(500 * time.Millisecond).Element(sel)
		if err == nil && el != nil {
			_ = el.Click("left", 1)
			return
		}
	}
}

// parseOddsRows extracts {homeTeam, awayTeam, homeWin, draw, awayWin} from
// a match-listing page's DOM. Column class names are bookmaker-specific;
// callers supply a row selector and this walks conventional child-cell
// structure, matching the teacher's goquery-based extraction style.
func parseOddsRows(html, rowSelector string) ([]NormalizedOdds, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse dom: %w", err)
	}

	sel := rowSelector
	if sel == "" {
		sel = `[class*="match-row"], [class*="fixture-row"]`
	}

	now := time.Now()
	var rows []NormalizedOdds
	doc.Find(sel).Each(func(_ int, row *goquery.Selection) {
		home := strings.TrimSpace(row.Find(`[class*="team-home"], [class*="home-team"]`).First().Text())
		away := strings.TrimSpace(row.Find(`[class*="team-away"], [class*="away-team"]`).First().Text())
		if home == "" || away == "" {
			return
		}

		odds := NormalizedOdds{HomeTeam: home, AwayTeam: away, ScrapedAt: now}
		if v, ok := priceFrom(row, `[class*="price-home"], [class*="odds-home"]`); ok {
			odds.HomeWin = &v
		}
		if v, ok := priceFrom(row, `[class*="price-draw"], [class*="odds-draw"]`); ok {
			odds.Draw = &v
		}
		if v, ok := priceFrom(row, `[class*="price-away"], [class*="odds-away"]`); ok {
			odds.AwayWin = &v
		}
		rows = append(rows, odds)
	})
	return rows, nil
}

func priceFrom(row *goquery.Selection, selector string) (float64, bool) {
	text := strings.TrimSpace(row.Find(selector).First().Text())
	if text == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

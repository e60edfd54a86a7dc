package sources

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/andybalholm/brotli"
)

// OddsAPIClient is the optional fallback HTTP source spec §6 names
// (ODDS_API_KEY): used when browser sources return nothing for a sport.
// It never touches the browser pool, so it carries its own decompression
// handling the way the teacher's internal/fetcher.HTTPFetcher does.
type OddsAPIClient struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewOddsAPIClient builds a client; an empty apiKey makes the fallback a
// no-op (Fetch returns NoData without making a request).
func NewOddsAPIClient(baseURL, apiKey string) *OddsAPIClient {
	return &OddsAPIClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 20 * time.Second},
	}
}

func (c *OddsAPIClient) Enabled() bool { return c.apiKey != "" }

type oddsAPIResponse struct {
	Events []struct {
		HomeTeam string `json:"home_team"`
		AwayTeam string `json:"away_team"`
		Bookmakers []struct {
			Markets []struct {
				Key      string `json:"key"`
				Outcomes []struct {
					Name  string  `json:"name"`
					Price float64 `json:"price"`
				} `json:"outcomes"`
			} `json:"markets"`
		} `json:"bookmakers"`
	} `json:"events"`
}

// Fetch retrieves odds for one sport's slug. The free tier this is
// grounded against returns brotli- or gzip-compressed bodies depending on
// the client's Accept-Encoding, so both are handled explicitly rather
// than relying on net/http's transparent gzip (which the teacher disables
// in favor of manual decompression for exactly this reason).
func (c *OddsAPIClient) Fetch(ctx context.Context, sportSlug string) (Result, error) {
	if !c.Enabled() {
		return NoData(), nil
	}

	url := fmt.Sprintf("%s/v4/sports/%s/odds?apiKey=%s&regions=uk&markets=h2h", c.baseURL, sportSlug, c.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Result{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept-Encoding", "br, gzip")

	resp, err := c.http.Do(req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch odds api: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return Blocked("rate_limited"), nil
	}
	if resp.StatusCode != http.StatusOK {
		return Result{}, fmt.Errorf("odds api returned %d", resp.StatusCode)
	}

	reader, err := decompress(resp)
	if err != nil {
		return Result{}, fmt.Errorf("decompress: %w", err)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return Result{}, fmt.Errorf("read body: %w", err)
	}

	var parsed oddsAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Result{}, fmt.Errorf("decode body: %w", err)
	}

	now := time.Now()
	var rows []NormalizedOdds
	for _, e := range parsed.Events {
		odds := NormalizedOdds{HomeTeam: e.HomeTeam, AwayTeam: e.AwayTeam, ScrapedAt: now}
		bookmakers := 0
		for _, bm := range e.Bookmakers {
			bookmakers++
			for _, mk := range bm.Markets {
				if mk.Key != "h2h" {
					continue
				}
				for _, o := range mk.Outcomes {
					price := o.Price
					switch o.Name {
					case e.HomeTeam:
						odds.HomeWin = &price
					case e.AwayTeam:
						odds.AwayWin = &price
					case "Draw":
						odds.Draw = &price
					}
				}
			}
		}
		odds.BookmakerCount = &bookmakers
		rows = append(rows, odds)
	}

	if len(rows) == 0 {
		return NoData(), nil
	}
	return Ok(rows), nil
}

func decompress(resp *http.Response) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "br":
		return brotli.NewReader(resp.Body), nil
	case "gzip":
		return gzip.NewReader(resp.Body)
	case "deflate":
		return flate.NewReader(resp.Body), nil
	default:
		return resp.Body, nil
	}
}

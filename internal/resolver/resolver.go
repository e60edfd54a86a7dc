package resolver

import (
	"log/slog"
	"time"

	"github.com/pitchline/scoutd/internal/domain"
)

// AcceptThreshold is the minimum pair score spec §4.F requires for a
// candidate to be accepted; decided inclusive (>= 0.75) per the Open
// Question this spec left unresolved.
const AcceptThreshold = 0.75

// AliasStore is the persistence-side dependency the resolver needs: exact
// alias lookups and write-back on acceptance. Defined here, implemented
// by internal/store, to keep resolver free of a storage import.
type AliasStore interface {
	ResolveAlias(source, text string) (teamID string, ok bool)
	WriteAlias(teamID, alias, source string) error
}

// Candidate is one Event the resolver considers for a scraped fixture,
// reduced to the fields matching needs.
type Candidate struct {
	EventID        string
	HomeTeamID     string
	AwayTeamID     string
	HomeTeamName   string
	AwayTeamName   string
	StartTime      time.Time
}

// Match is a successful resolution.
type Match struct {
	EventID string
	Score   float64
}

// Resolver matches scraped team-name pairs to stored Events.
type Resolver struct {
	aliases AliasStore
	logger  *slog.Logger
}

// New builds a Resolver.
func New(aliases AliasStore, logger *slog.Logger) *Resolver {
	return &Resolver{aliases: aliases, logger: logger.With("component", "resolver")}
}

// Resolve implements spec §4.F's algorithm: alias fast path, then
// similarity scoring across candidates, with start-time as the tiebreak
// and an opportunistic alias write-back on acceptance.
func (r *Resolver) Resolve(source, rawHome, rawAway string, candidates []Candidate, approxStart time.Time) (Match, error) {
	normHome := Normalize(rawHome)
	normAway := Normalize(rawAway)

	// Aliases are looked up by the raw string first, then by the
	// normalized form that the write-back below stores.
	homeID, homeOK := r.aliases.ResolveAlias(source, rawHome)
	if !homeOK {
		homeID, homeOK = r.aliases.ResolveAlias(source, normHome)
	}
	awayID, awayOK := r.aliases.ResolveAlias(source, rawAway)
	if !awayOK {
		awayID, awayOK = r.aliases.ResolveAlias(source, normAway)
	}
	if homeOK && awayOK {
		for _, c := range candidates {
			if c.HomeTeamID == homeID && c.AwayTeamID == awayID {
				return Match{EventID: c.EventID, Score: 1.0}, nil
			}
		}
	}

	var best *Candidate
	var bestScore float64
	for i := range candidates {
		c := &candidates[i]
		score := min2(
			similarity(normHome, Normalize(c.HomeTeamName)),
			similarity(normAway, Normalize(c.AwayTeamName)),
		)
		if score < AcceptThreshold {
			continue
		}
		if best == nil || score > bestScore ||
			(score == bestScore && closerTo(approxStart, c.StartTime, best.StartTime)) {
			best = c
			bestScore = score
		}
	}

	if best == nil {
		return Match{}, &domain.ResolverMissError{RawHome: rawHome, RawAway: rawAway, NormHome: normHome, NormAway: normAway}
	}

	if rawHome != best.HomeTeamName {
		if err := r.aliases.WriteAlias(best.HomeTeamID, normHome, source); err != nil {
			r.logger.Warn("alias write-back failed", "team_id", best.HomeTeamID, "error", err)
		}
	}
	if rawAway != best.AwayTeamName {
		if err := r.aliases.WriteAlias(best.AwayTeamID, normAway, source); err != nil {
			r.logger.Warn("alias write-back failed", "team_id", best.AwayTeamID, "error", err)
		}
	}

	return Match{EventID: best.EventID, Score: bestScore}, nil
}

func min2(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func closerTo(target, a, b time.Time) bool {
	da := abs(target.Sub(a))
	db := abs(target.Sub(b))
	return da < db
}

func abs(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}

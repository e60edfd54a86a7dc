// Package resolver implements the entity resolver component (F): fuzzy
// matching of scraped team strings to canonical stored Events. Grounded
// on bramrahmadi-learnbot's text-normalization style in
// internal/scraper/scraper.go, generalized from job-title normalization
// to team-name normalization per spec §4.F.
package resolver

import "strings"

var stripTokens = []string{"fc", "sc"}

// Normalize lowercases, strips punctuation, drops FC/SC tokens and a
// trailing "city", collapses whitespace, and maps "united" to "utd".
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = stripPunctuation(s)
	for _, tok := range stripTokens {
		s = replaceWord(s, tok, "")
	}
	s = collapseWhitespace(s)
	s = strings.TrimSuffix(s, " city")
	s = replaceWord(s, "united", "utd")
	return strings.TrimSpace(s)
}

func stripPunctuation(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == ' ':
			b.WriteRune(r)
		default:
			b.WriteRune(' ')
		}
	}
	return b.String()
}

func collapseWhitespace(s string) string {
	fields := strings.Fields(s)
	return strings.Join(fields, " ")
}

func replaceWord(s, from, to string) string {
	fields := strings.Fields(s)
	for i, f := range fields {
		if f == from {
			fields[i] = to
		}
	}
	return strings.Join(fields, " ")
}

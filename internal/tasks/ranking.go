package tasks

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/desertthunder/segue/internal/models"
	"github.com/desertthunder/segue/internal/shared"
	"github.com/pmezard/go-difflib/difflib"
)

// MatchThreshold is the hard acceptance cutoff on the 0-1 similarity scale.
// Candidates scoring below it are discarded entirely, never soft-ranked.
const MatchThreshold = 0.6

// dedupTolerance is the title+artist similarity at which two candidates from
// different backends count as the same logical track.
const dedupTolerance = 0.9

// prefixBoost rewards prefix relationships between query and candidate, since
// spoken queries tend to shorten long titles.
const prefixBoost = 0.2

// Match pairs a resolved track with its similarity score against the query.
type Match struct {
	Track models.Track `json:"track"`
	Score float64      `json:"score"`
}

// Ranker scores candidates against a query, applies the acceptance threshold,
// merges cross-backend duplicates and breaks ties by backend priority,
// bitrate and first-seen order.
type Ranker struct {
	priority          map[string]int
	preferHighBitrate bool
}

// NewRanker builds a ranker. priority lists backend names best first; an
// empty list disables the priority tie-break.
func NewRanker(priority []string, preferHighBitrate bool) *Ranker {
	ranks := make(map[string]int, len(priority))
	for i, name := range priority {
		ranks[strings.ToLower(name)] = i
	}
	return &Ranker{priority: ranks, preferHighBitrate: preferHighBitrate}
}

// Rank returns the deduplicated matches at or above the acceptance threshold
// in descending score order. Tracks are expected in first-seen backend order;
// the sort is stable so equal scores keep that order.
func (r *Ranker) Rank(query string, tracks []models.Track) []Match {
	var accepted []Match
	for _, t := range tracks {
		score := similarity(query, t.Title)
		if score < MatchThreshold {
			continue
		}
		accepted = append(accepted, Match{Track: t, Score: score})
	}

	merged := r.mergeDuplicates(accepted)
	slices.SortStableFunc(merged, func(a, b Match) int {
		switch {
		case a.Score > b.Score:
			return -1
		case a.Score < b.Score:
			return 1
		default:
			return 0
		}
	})
	return merged
}

// Best returns the single best match, or ErrNotFound when nothing clears the
// threshold.
func (r *Ranker) Best(query string, tracks []models.Track) (Match, error) {
	ranked := r.Rank(query, tracks)
	if len(ranked) == 0 {
		return Match{}, fmt.Errorf("%w: %q", shared.ErrNotFound, query)
	}
	return ranked[0], nil
}

type matchGroup struct {
	key  string
	best Match
}

// mergeDuplicates collapses candidates referring to the same logical track.
// Group identity is the first member's normalized title+artist; the surviving
// member is chosen by the tie-break cascade, not by score.
func (r *Ranker) mergeDuplicates(matches []Match) []Match {
	var groups []matchGroup

next:
	for _, m := range matches {
		key := normalizeMatchField(m.Track.Title + " " + m.Track.Artist)
		for i := range groups {
			if stringRatio(groups[i].key, key) >= dedupTolerance {
				if r.wins(m, groups[i].best) {
					groups[i].best = m
				}
				continue next
			}
		}
		groups = append(groups, matchGroup{key: key, best: m})
	}

	out := make([]Match, len(groups))
	for i, g := range groups {
		out[i] = g.best
	}
	return out
}

// wins reports whether challenger displaces incumbent inside a duplicate
// group. The cascade: configured backend priority, then declared bitrate when
// preferred, else the incumbent stays (first seen).
func (r *Ranker) wins(challenger, incumbent Match) bool {
	if len(r.priority) > 0 {
		cp, ip := r.rank(challenger.Track.Source), r.rank(incumbent.Track.Source)
		if cp != ip {
			return cp < ip
		}
	}
	if r.preferHighBitrate && challenger.Track.Bitrate != incumbent.Track.Bitrate {
		return challenger.Track.Bitrate > incumbent.Track.Bitrate
	}
	return false
}

// rank places unlisted backends after every configured one.
func (r *Ranker) rank(source string) int {
	if p, ok := r.priority[strings.ToLower(source)]; ok {
		return p
	}
	return len(r.priority)
}

// similarity computes the 0-1 match ratio between the spoken query and a
// candidate field, insensitive to case and punctuation. An exact normalized
// match scores 1; prefix relationships get a boost, clamped at 1.
func similarity(query, value string) float64 {
	q, v := normalizeMatchField(query), normalizeMatchField(value)
	if q == "" || v == "" {
		return 0
	}
	if q == v {
		return 1
	}

	score := stringRatio(q, v)
	if strings.HasPrefix(v, q) || strings.HasPrefix(q, v) {
		score += prefixBoost
	}
	return min(score, 1)
}

// stringRatio is the sequence-matcher ratio over the two strings' characters.
func stringRatio(a, b string) float64 {
	m := difflib.NewMatcher(strings.Split(a, ""), strings.Split(b, ""))
	return m.Ratio()
}

// normalizeMatchField lowercases, strips punctuation, collapses whitespace
// and drops a leading article.
func normalizeMatchField(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	out := strings.Join(strings.Fields(b.String()), " ")
	return strings.TrimPrefix(out, "the ")
}

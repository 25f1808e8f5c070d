package core

// match.go scores imported rows against the reference population.
//
// Strategies run in strict priority order and the first hit wins:
//  1. Exact key: customer number or id equals a record's number or id
//  2. Exact name: uppercased name equals a record's name or search name
//  3. Partial name: best containment ratio over the whole population
//
// The containment ratio is shorter/longer length * 100, computed only when
// one uppercased string contains the other. Candidates below
// PartialMatchThreshold are ignored and ties keep the first record reached in
// enumeration order.

import (
	"context"
	"fmt"
	"math"
	"strings"
	"unicode/utf8"
)

// PartialMatchThreshold is the minimum containment ratio for a partial match.
const PartialMatchThreshold = 50.0

// ExactScore is the score of every exact match.
const ExactScore = 100

// Matcher scores imported rows against a ReferenceStore.
type Matcher struct {
	store ReferenceStore
}

// NewMatcher creates a Matcher over the given population.
func NewMatcher(store ReferenceStore) *Matcher {
	return &Matcher{store: store}
}

// Match returns one result per row, in input order.
func (m *Matcher) Match(ctx context.Context, rows []ImportedRow) ([]MatchResult, error) {
	results := make([]MatchResult, 0, len(rows))
	for i, row := range rows {
		res, err := m.MatchRow(ctx, row)
		if err != nil {
			return nil, fmt.Errorf("match row %d: %w", i+1, err)
		}
		results = append(results, res)
	}
	return results, nil
}

// MatchRow scores a single row. Identifiers are looked up one at a time with
// the customer number before the customer id, so a record keyed by the row's
// customer number wins even when another record matching only the customer id
// comes earlier in the population.
func (m *Matcher) MatchRow(ctx context.Context, row ImportedRow) (MatchResult, error) {
	if row.HasIdentifier() {
		for _, id := range identifiers(row) {
			rec, ok, err := m.store.FindByKey(ctx, id)
			if err != nil {
				return MatchResult{}, fmt.Errorf("find by key: %w", err)
			}
			if ok {
				return exactResult(row, rec), nil
			}
		}
	}

	nameUpper := strings.ToUpper(strings.TrimSpace(row.Name))

	rec, ok, err := m.store.FindByExactName(ctx, nameUpper)
	if err != nil {
		return MatchResult{}, fmt.Errorf("find by name: %w", err)
	}
	if ok {
		return exactResult(row, rec), nil
	}

	var (
		best      ReferenceRecord
		bestScore float64
		found     bool
	)
	for candidate, err := range m.store.All(ctx) {
		if err != nil {
			return MatchResult{}, fmt.Errorf("scan population: %w", err)
		}
		score := NameScore(nameUpper, candidate)
		if score > bestScore && score >= PartialMatchThreshold {
			best, bestScore, found = candidate, score, true
		}
	}

	if !found {
		return MatchResult{Row: row, Type: MatchNone}, nil
	}

	score := partialScore(bestScore)
	return MatchResult{Row: row, Matched: &best, Type: MatchPartial, Score: &score}, nil
}

// NameScore is the containment ratio between an uppercased row name and a
// record. The record's name is tried first and its search name second; a
// record contained in neither direction scores 0.
func NameScore(nameUpper string, rec ReferenceRecord) float64 {
	if r, ok := containmentRatio(nameUpper, strings.ToUpper(rec.Name)); ok {
		return r
	}
	if r, ok := containmentRatio(nameUpper, strings.ToUpper(rec.SearchName)); ok {
		return r
	}
	return 0
}

// containmentRatio returns min/max length * 100 when one string contains the
// other. Lengths are counted in runes.
func containmentRatio(a, b string) (float64, bool) {
	if !strings.Contains(a, b) && !strings.Contains(b, a) {
		return 0, false
	}
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	longer := max(la, lb)
	if longer == 0 {
		return 0, true
	}
	return float64(min(la, lb)) / float64(longer) * 100, true
}

// partialScore rounds a ratio to an integer in [50, 100).
func partialScore(ratio float64) int {
	s := int(math.Round(ratio))
	if s >= ExactScore {
		s = ExactScore - 1
	}
	return s
}

func exactResult(row ImportedRow, rec ReferenceRecord) MatchResult {
	score := ExactScore
	return MatchResult{Row: row, Matched: &rec, Type: MatchExact, Score: &score}
}

// identifiers returns the row's non-empty identifiers without repeats.
func identifiers(row ImportedRow) []string {
	ids := make([]string, 0, 2)
	if row.CustomerNo != "" {
		ids = append(ids, row.CustomerNo)
	}
	if row.CustomerID != "" && row.CustomerID != row.CustomerNo {
		ids = append(ids, row.CustomerID)
	}
	return ids
}

// MatchSummary counts results per match type.
type MatchSummary struct {
	Total   int `json:"total"`
	Exact   int `json:"exact"`
	Partial int `json:"partial"`
	None    int `json:"none"`
}

// Summarize counts results per match type.
func Summarize(results []MatchResult) MatchSummary {
	s := MatchSummary{Total: len(results)}
	for _, r := range results {
		switch r.Type {
		case MatchExact:
			s.Exact++
		case MatchPartial:
			s.Partial++
		default:
			s.None++
		}
	}
	return s
}

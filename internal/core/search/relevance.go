package search

import (
	"strings"

	snowballeng "github.com/kljensen/snowball/english"
)

// Scorer computes query/result word overlap.
type Scorer struct {
	stopWords map[string]struct{}
	stem      bool
}

// NewScorer builds a scorer. Stop words are dropped from both sides before
// comparison; stemming folds English inflections (news/new, running/run).
func NewScorer(stopWords []string, stem bool) *Scorer {
	s := &Scorer{stem: stem, stopWords: make(map[string]struct{}, len(stopWords))}
	for _, w := range stopWords {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			s.stopWords[w] = struct{}{}
		}
	}
	return s
}

// Score returns |Q ∩ T| / |Q| over lowercase whitespace-separated word
// sets, or 0 when the query has no words.
func (s *Scorer) Score(query, text string) float64 {
	q := s.words(query)
	if len(q) == 0 {
		return 0
	}
	t := s.words(text)
	common := 0
	for w := range q {
		if _, ok := t[w]; ok {
			common++
		}
	}
	return float64(common) / float64(len(q))
}

func (s *Scorer) words(text string) map[string]struct{} {
	fields := strings.Fields(strings.ToLower(text))
	out := make(map[string]struct{}, len(fields))
	for _, w := range fields {
		if _, stop := s.stopWords[w]; stop {
			continue
		}
		if s.stem {
			w = snowballeng.Stem(w, false)
		}
		out[w] = struct{}{}
	}
	return out
}

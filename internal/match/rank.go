package match

import (
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
)

// Candidate is a named entry being ranked.
type Candidate struct {
	Name  string
	Path  string
	Match Match
}

// Rank evaluates every candidate and orders them by exact flag, score,
// important-keyword hits and simplicity, all descending. Ties keep their
// input order.
func (s *Scorer) Rank(cands []Candidate, keywords, expanded []string) []Candidate {
	ranked := make([]Candidate, len(cands))
	for i, c := range cands {
		c.Match = s.Evaluate(c.Name, keywords, expanded)
		ranked[i] = c
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return better(ranked[i].Match, ranked[j].Match)
	})
	return ranked
}

func better(a, b Match) bool {
	if a.Exact != b.Exact {
		return a.Exact
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if a.ImportantHits != b.ImportantHits {
		return a.ImportantHits > b.ImportantHits
	}
	return a.Simple && !b.Simple
}

// ClearWinner returns the first of an already ranked slice when it stands out
// enough to be picked without asking anyone: it must hit an important keyword
// and be exact, score at least QuickMatchMinScore, be the only candidate, or
// score more than twice the runner-up.
func (s *Scorer) ClearWinner(ranked []Candidate) (Candidate, bool) {
	if len(ranked) == 0 {
		return Candidate{}, false
	}
	best := ranked[0]
	if best.Match.ImportantHits == 0 {
		return Candidate{}, false
	}
	switch {
	case best.Match.Exact,
		best.Match.Score >= s.w.QuickMatchMinScore,
		len(ranked) == 1,
		best.Match.Score > 2*ranked[1].Match.Score:
		return best, true
	}
	return Candidate{}, false
}

// FuzzyBest finds the name that best matches any keyword as a
// subsequence, tolerating spelling mistakes such as "crome" for "Chrome".
// Only keywords longer than three characters take part, and the matched
// characters must sit close together. It returns -1 when nothing qualifies.
func FuzzyBest(keywords []string, names []string) int {
	lowered := make([]string, len(names))
	for i, n := range names {
		lowered[i] = strings.ToLower(n)
	}

	bestIdx, bestScore := -1, 0
	for _, kw := range keywords {
		if len(kw) <= 3 {
			continue
		}
		for _, m := range fuzzy.Find(kw, lowered) {
			if len(m.MatchedIndexes) == 0 {
				continue
			}
			span := m.MatchedIndexes[len(m.MatchedIndexes)-1] - m.MatchedIndexes[0] + 1
			if span > len(kw)+2 {
				continue
			}
			if bestIdx == -1 || m.Score > bestScore {
				bestIdx, bestScore = m.Index, m.Score
			}
		}
	}
	return bestIdx
}

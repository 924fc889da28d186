package match

import (
	"path/filepath"
	"strings"
)

// weakWords carry little signal about which entry the user means.
var weakWords = toSet(
	"the", "my", "open", "find", "launch", "games", "game", "app",
	"application", "program", "software", "folder", "folders",
)

// fillerWords are ignored when counting extra words in a candidate name.
var fillerWords = toSet("and", "the", "of", "a", "an", "in", "on", "at", "for", "to", "with")

// Weights are the tunable scoring constants.
type Weights struct {
	DirectLong         int // direct hit of a keyword longer than 3 characters
	DirectShort        int // direct hit of a short keyword
	Synonym            int // hit of a synonym only
	PhraseBonus        int // name equals, starts or ends with the keyword phrase
	WordBoundary       int // keyword or synonym equals a whole word of the name
	Simplicity         int // name has about as many words as the query
	MissingPenalty     int // per important keyword with no hit
	ExtraWordPenalty   int // per unrelated word, once they outnumber the query
	QuickMatchMinScore int // minimum score for an unambiguous local pick
}

// DefaultWeights returns the stock scoring constants.
func DefaultWeights() Weights {
	return Weights{
		DirectLong:         3,
		DirectShort:        2,
		Synonym:            1,
		PhraseBonus:        10,
		WordBoundary:       3,
		Simplicity:         5,
		MissingPenalty:     2,
		ExtraWordPenalty:   1,
		QuickMatchMinScore: 3,
	}
}

// Match is the full evaluation of one candidate name.
type Match struct {
	Score         int
	Exact         bool
	ImportantHits int
	Simple        bool
}

// Scorer rates entry names against a keyword set. It is pure: the same
// inputs always give the same Match.
type Scorer struct {
	w Weights
}

// NewScorer creates a Scorer with the given weights.
func NewScorer(w Weights) *Scorer {
	return &Scorer{w: w}
}

// Weights returns the scorer's constants.
func (s *Scorer) Weights() Weights { return s.w }

// Score returns the non-negative relevance of name.
func (s *Scorer) Score(name string, keywords, expanded []string) int {
	return s.Evaluate(name, keywords, expanded).Score
}

// Evaluate rates name against keywords and their expansion.
func (s *Scorer) Evaluate(name string, keywords, expanded []string) Match {
	lower := strings.ToLower(stripExtension(name))
	tokens := Tokens(lower)
	tokenSet := toSet(tokens...)
	keywordSet := toSet(keywords...)

	var m Match
	score := 0

	for _, kw := range keywords {
		if kw == "" || !strings.Contains(lower, kw) {
			continue
		}
		if len(kw) > 3 {
			score += s.w.DirectLong
		} else {
			score += s.w.DirectShort
		}
		if tokenSet[kw] {
			score += s.w.WordBoundary
		}
	}

	for _, syn := range expanded {
		if keywordSet[syn] || !strings.Contains(lower, syn) {
			continue
		}
		score += s.w.Synonym
		if tokenSet[syn] {
			score += s.w.WordBoundary
			m.Exact = true
		}
	}

	important := ImportantKeywords(keywords)
	for _, kw := range important {
		if strings.Contains(lower, kw) || ContainsAny(lower, Synonyms(kw)) {
			m.ImportantHits++
		}
	}
	score -= (len(important) - m.ImportantHits) * s.w.MissingPenalty

	if len(important) > 0 {
		phrase := strings.Join(important, " ")
		compact := strings.Join(important, "")
		if hasPhrase(strings.Join(tokens, " "), phrase) || hasPhrase(strings.Join(tokens, ""), compact) {
			score += s.w.PhraseBonus
			m.Exact = true
		}
	}

	if len(tokens) <= len(important)+1 && m.ImportantHits > 0 {
		score += s.w.Simplicity
		m.Simple = true
	}

	expandedSet := toSet(expanded...)
	extra := 0
	for _, tok := range tokens {
		if !keywordSet[tok] && !expandedSet[tok] && !fillerWords[tok] {
			extra++
		}
	}
	if extra > len(keywords) {
		score -= extra * s.w.ExtraWordPenalty
	}

	if score < 0 {
		score = 0
	}
	m.Score = score
	return m
}

// ImportantKeywords returns the keywords that are not weak words and are
// longer than two characters. When none qualify, all keywords are returned.
func ImportantKeywords(keywords []string) []string {
	var out []string
	for _, kw := range keywords {
		if len(kw) > 2 && !weakWords[kw] {
			out = append(out, kw)
		}
	}
	if len(out) == 0 {
		return keywords
	}
	return out
}

func hasPhrase(s, phrase string) bool {
	if s == "" || phrase == "" {
		return false
	}
	return s == phrase || strings.HasPrefix(s, phrase) || strings.HasSuffix(s, phrase)
}

// stripExtension drops a short alphanumeric extension such as ".exe".
func stripExtension(name string) string {
	ext := filepath.Ext(name)
	if ext == "" || len(ext) > 6 || len(ext) == len(name) {
		return name
	}
	for _, r := range ext[1:] {
		if !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
			return name
		}
	}
	return strings.TrimSuffix(name, ext)
}

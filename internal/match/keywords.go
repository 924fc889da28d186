// Package match turns free-text requests into keywords and scores
// directory entry names against them.
package match

import (
	"strings"
)

var stopWords = toSet(
	"open", "find", "launch", "search", "locate", "get", "show", "run", "start",
	"the", "a", "an", "in", "on", "at", "for", "to", "of", "and", "or", "but",
	"is", "are", "was", "were", "be", "been", "being",
	"have", "has", "had", "do", "does", "did",
	"will", "would", "could", "should", "may", "might",
)

// synonyms maps a keyword to the alternative spellings it should also match.
var synonyms = map[string][]string{
	"cv":          {"resume", "resumes", "curriculum", "vitae"},
	"resume":      {"cv", "curriculum", "vitae"},
	"certificate": {"cert", "certs", "certificates"},
	"cert":        {"certificate", "certificates", "certs"},
	"document":    {"doc", "docs", "documents"},
	"photo":       {"picture", "pictures", "image", "images"},
	"movie":       {"film", "films", "video", "videos"},
	"music":       {"song", "songs", "audio", "tracks"},
}

// Extract returns the meaningful lower-cased tokens of query in order.
// Stop words and single-character tokens are removed. When nothing survives,
// the unfiltered tokens are returned instead.
func Extract(query string) []string {
	fields := strings.Fields(strings.ToLower(query))

	all := make([]string, 0, len(fields))
	kept := make([]string, 0, len(fields))
	for _, f := range fields {
		tok := strings.Trim(f, `"'.,!?;`)
		if tok == "" {
			continue
		}
		all = append(all, tok)
		if len(tok) <= 1 || stopWords[tok] {
			continue
		}
		kept = append(kept, tok)
	}

	if len(kept) == 0 {
		return all
	}
	return kept
}

// Synonyms returns the fixed alternatives for word, if any.
func Synonyms(word string) []string {
	return synonyms[strings.ToLower(word)]
}

// Expand returns keywords followed by their synonyms, without duplicates.
func Expand(keywords []string) []string {
	seen := make(map[string]bool, len(keywords)*2)
	out := make([]string, 0, len(keywords)*2)
	add := func(w string) {
		if !seen[w] {
			seen[w] = true
			out = append(out, w)
		}
	}
	for _, kw := range keywords {
		add(kw)
	}
	for _, kw := range keywords {
		for _, syn := range synonyms[kw] {
			add(syn)
		}
	}
	return out
}

// ContainsAny reports whether the lower-cased name contains any of terms.
func ContainsAny(name string, terms []string) bool {
	lower := strings.ToLower(name)
	for _, t := range terms {
		if t != "" && strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

// HasSetupKeyword reports whether text contains any of setupKeywords,
// ignoring case.
func HasSetupKeyword(text string, setupKeywords []string) bool {
	lower := strings.ToLower(text)
	for _, kw := range setupKeywords {
		if kw != "" && strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}

// Tokens splits a name into lower-cased words on anything that is not a
// letter or digit. "DaVinci_Resolve 18.exe" becomes [davinci resolve 18 exe].
func Tokens(name string) []string {
	return strings.FieldsFunc(strings.ToLower(name), func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || r > 127)
	})
}

func toSet(words ...string) map[string]bool {
	m := make(map[string]bool, len(words))
	for _, w := range words {
		m[w] = true
	}
	return m
}

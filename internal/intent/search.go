// Package intent recognizes requests that never need a file system walk:
// web searches and bare partition requests.
package intent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/normanking/alquad/internal/llm"
)

// GoogleSearchURL is the prefix of web search URLs.
const GoogleSearchURL = "https://www.google.com/search?q="

// maxQuestionWords bounds how long a question may be and still count as a
// web search on pattern alone.
const maxQuestionWords = 10

var searchKeywords = []string{
	"search", "look up", "find information about", "what is", "who is",
	"where is", "how to", "explain", "tell me about", "information about",
	"web search", "internet search",
}

var (
	searchPhraseRes = compileAll(
		`search\s+(for|about|on)\s+`,
		`^google\s+(search\s+)?((for|about|on)\s+)?\S`,
		`look\s+up\s+`,
		`find\s+(information\s+)?(about|on)\s+`,
		`what\s+is\s+`,
		`who\s+is\s+`,
		`where\s+is\s+`,
		`how\s+to\s+`,
		`explain\s+`,
		`tell\s+me\s+about\s+`,
		`information\s+about\s+`,
	)
	searchTrailerRe = regexp.MustCompile(`(search|google)\s+((for|about|on)\s+)?\S`)
	questionRes     = compileAll(`^(what|who|where|when|why|how)\s+`, `\?$`)

	prefixRes = compileAll(
		`^search\s+(for|about|on)\s+`,
		`^google\s+(search\s+)?((for|about|on)\s+)?`,
		`^look\s+up\s+`,
		`^find\s+(information\s+)?(about|on)\s+`,
		`^what\s+is\s+`,
		`^who\s+is\s+`,
		`^where\s+is\s+`,
		`^how\s+to\s+`,
		`^explain\s+`,
		`^tell\s+me\s+about\s+`,
		`^information\s+about\s+`,
		`^web\s+search\s+((for|about)\s+)?`,
		`^internet\s+search\s+((for|about)\s+)?`,
	)

	// Local applications that start with "google" are launches, not searches.
	googleAppRe = regexp.MustCompile(`\bgoogle\s+(chrome|drive|earth)\b`)
)

func compileAll(patterns ...string) []*regexp.Regexp {
	res := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		res[i] = regexp.MustCompile(`(?i)` + p)
	}
	return res
}

// IsSearchRequest applies the deterministic web search rules.
func IsSearchRequest(query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if len(q) < 3 || googleAppRe.MatchString(q) {
		return false
	}

	for _, re := range searchPhraseRes {
		if re.MatchString(q) {
			return true
		}
	}
	for _, kw := range searchKeywords {
		if strings.HasPrefix(q, kw) {
			return true
		}
	}
	if searchTrailerRe.MatchString(q) {
		return true
	}
	if len(strings.Fields(q)) <= maxQuestionWords {
		for _, re := range questionRes {
			if re.MatchString(q) {
				return true
			}
		}
	}
	return false
}

// ExtractQuery strips the request phrasing, leaving the terms to search for.
// "search for python tutorials" becomes "python tutorials".
func ExtractQuery(query string) string {
	q := strings.TrimSpace(query)
	for _, re := range prefixRes {
		q = re.ReplaceAllString(q, "")
	}
	q = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(q), "?"))
	if len(q) < 2 {
		return strings.TrimSpace(query)
	}
	return q
}

// SearchURL returns the web search URL for terms.
func SearchURL(terms string) string {
	return GoogleSearchURL + url.QueryEscape(terms)
}

// SearchDetector decides whether a request asks for a web search. Pattern
// matches answer immediately; anything else is put to the oracle when one
// is configured.
type SearchDetector struct {
	oracle llm.Oracle
}

// NewSearchDetector creates a detector. A nil oracle leaves only the
// deterministic rules.
func NewSearchDetector(oracle llm.Oracle) *SearchDetector {
	return &SearchDetector{oracle: oracle}
}

// Classify reports whether query is a web search and, if so, the terms.
func (d *SearchDetector) Classify(ctx context.Context, query string) (bool, string) {
	if len(strings.TrimSpace(query)) < 3 {
		return false, ""
	}
	if IsSearchRequest(query) {
		return true, ExtractQuery(query)
	}
	if d.oracle == nil {
		return false, ""
	}

	raw, err := d.oracle.GenerateContent(ctx, searchPrompt(query))
	if err != nil {
		log.Debug().Err(err).Msg("search classification unavailable, using patterns")
		return false, ""
	}

	verdict, err := parseVerdict(raw)
	if err != nil {
		log.Debug().Err(err).Str("reply", raw).Msg("unreadable search classification")
		return false, ""
	}
	log.Debug().Bool("search", verdict.IsSearch).Str("reason", verdict.Reason).Msg("search classification")
	if !verdict.IsSearch {
		return false, ""
	}
	return true, ExtractQuery(query)
}

type verdict struct {
	IsSearch bool   `json:"is_search_request"`
	Reason   string `json:"reason"`
}

var objectRe = regexp.MustCompile(`(?s)\{.*\}`)

func parseVerdict(raw string) (verdict, error) {
	obj := objectRe.FindString(raw)
	if obj == "" {
		return verdict{}, fmt.Errorf("no JSON object in reply")
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return verdict{}, fmt.Errorf("decode verdict: %w", err)
	}
	if _, ok := fields["is_search_request"]; !ok {
		return verdict{}, fmt.Errorf("verdict missing is_search_request")
	}
	var v verdict
	if err := json.Unmarshal([]byte(obj), &v); err != nil {
		return verdict{}, fmt.Errorf("decode verdict: %w", err)
	}
	return v, nil
}

func searchPrompt(query string) string {
	return fmt.Sprintf(`Analyze the following user query and decide whether the user wants a web search for information online, or wants to find or open a file, folder or application on their computer.

User Query: %q

Respond with ONLY a JSON object in this exact format:
{"is_search_request": true/false, "reason": "brief explanation"}

Examples:
- "search for python tutorials" -> {"is_search_request": true, "reason": "explicit search request"}
- "what is machine learning" -> {"is_search_request": true, "reason": "information-seeking question"}
- "open chrome" -> {"is_search_request": false, "reason": "requesting to open an application"}
- "find my documents folder" -> {"is_search_request": false, "reason": "requesting to find a local folder"}
- "open python" -> {"is_search_request": false, "reason": "requesting to open an application"}

Only answer true when the user clearly asks to search the web. Finding or opening something on the computer is false.`, query)
}

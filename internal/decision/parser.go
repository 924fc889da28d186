package decision

import (
	"encoding/json"
	"regexp"
	"sort"
	"strings"

	"github.com/rs/zerolog/log"
)

// Strategy is one repair attempt. Apply must be free of side effects apart
// from existence checks.
type Strategy struct {
	Name  string
	Apply func(raw string) (Decision, bool)
}

// Parser turns raw model output into a Decision.
type Parser struct {
	strategies []Strategy
}

// NewParser builds the default strategy chain. exists is consulted only by
// the last-resort path scan; nil means "nothing exists".
func NewParser(exists func(path string) bool) *Parser {
	if exists == nil {
		exists = func(string) bool { return false }
	}
	return &Parser{strategies: []Strategy{
		{Name: "fenced", Apply: parseFenced},
		{Name: "escape_path", Apply: parseEscapedPath},
		{Name: "pairs", Apply: parsePairs},
		{Name: "scan_paths", Apply: func(raw string) (Decision, bool) { return scanPaths(raw, exists) }},
	}}
}

// Strategies returns the strategy names in the order they run.
func (p *Parser) Strategies() []string {
	names := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		names[i] = s.Name
	}
	return names
}

// Parse returns the first decision any strategy produces, or an ActionError
// decision carrying a snippet of the raw reply.
func (p *Parser) Parse(raw string) Decision {
	for _, s := range p.strategies {
		if d, ok := s.Apply(raw); ok {
			log.Debug().Str("strategy", s.Name).Str("action", string(d.Action)).Str("path", d.Path).Msg("decision parsed")
			return d
		}
	}
	log.Debug().Str("raw", snippet(raw)).Msg("decision unparseable")
	return Decision{Action: ActionError, Reason: "unparseable response: " + snippet(raw)}
}

var fenceRe = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)\\s*```")

// stripFences returns the contents of the first fenced block, or raw.
func stripFences(raw string) string {
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}

// decodeObject decodes text, falling back to the outermost braces.
func decodeObject(text string) (Decision, bool) {
	var d Decision
	if err := json.Unmarshal([]byte(text), &d); err == nil {
		return valid(d)
	}
	start, end := strings.Index(text, "{"), strings.LastIndex(text, "}")
	if start < 0 || end <= start {
		return Decision{}, false
	}
	if err := json.Unmarshal([]byte(text[start:end+1]), &d); err != nil {
		return Decision{}, false
	}
	return valid(d)
}

// parseFenced strips markdown fences and decodes the JSON directly.
func parseFenced(raw string) (Decision, bool) {
	return decodeObject(stripFences(raw))
}

var pathFieldRe = regexp.MustCompile(`("path"\s*:\s*")([A-Za-z]:[^"]*)(")`)

// parseEscapedPath repairs an unescaped drive-letter path inside the "path"
// field, as in {"path": "D:\Games\Steam"}.
func parseEscapedPath(raw string) (Decision, bool) {
	text := stripFences(raw)
	if !pathFieldRe.MatchString(text) {
		return Decision{}, false
	}
	fixed := pathFieldRe.ReplaceAllStringFunc(text, func(field string) string {
		m := pathFieldRe.FindStringSubmatch(field)
		p := strings.ReplaceAll(m[2], "/", `\`)
		p = backslashRunRe.ReplaceAllString(p, `\`)
		p = strings.ReplaceAll(p, `\`, `\\`)
		return m[1] + p + m[3]
	})
	return decodeObject(fixed)
}

var (
	actionPairRe = regexp.MustCompile(`"action"\s*:\s*"(explore|open|not_found)"`)
	pathPairRe   = regexp.MustCompile(`"path"\s*:\s*"([^"]+)"`)
	reasonPairRe = regexp.MustCompile(`"reason"\s*:\s*"([^"]*)"`)
)

// parsePairs pulls "action" and "path" pairs out of free text.
func parsePairs(raw string) (Decision, bool) {
	am := actionPairRe.FindStringSubmatch(raw)
	if am == nil {
		return Decision{}, false
	}
	d := Decision{Action: Action(am[1])}
	if pm := pathPairRe.FindStringSubmatch(raw); pm != nil {
		d.Path = strings.ReplaceAll(pm[1], `\\`, `\`)
	}
	if rm := reasonPairRe.FindStringSubmatch(raw); rm != nil {
		d.Reason = rm[1]
	}
	return valid(d)
}

var pathTokenRe = regexp.MustCompile(`[A-Za-z]:[\\/][^"'<>|*?\r\n]*`)

// scanPaths looks for any drive-letter path in the text, longest first, and
// opens the first one that exists, or else its closest existing parent.
func scanPaths(raw string, exists func(string) bool) (Decision, bool) {
	found := pathTokenRe.FindAllString(raw, -1)
	if len(found) == 0 {
		return Decision{}, false
	}

	// Paths may contain spaces, so every whitespace-delimited prefix of a
	// match is a candidate: "D:\Tools\app.exe now" also yields "D:\Tools\app.exe".
	var candidates []string
	seen := make(map[string]bool)
	for _, f := range found {
		for cut := len(f); cut > 0; cut = strings.LastIndexAny(f[:cut], " \t") {
			p := NormalizePath(strings.TrimRight(f[:cut], trailingJunkChar))
			if len(p) >= 3 && !seen[p] {
				seen[p] = true
				candidates = append(candidates, p)
			}
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool { return len(candidates[i]) > len(candidates[j]) })

	for _, p := range candidates {
		if exists(p) {
			return Decision{Action: ActionOpen, Path: p, Reason: "path found in response"}, true
		}
	}
	for _, p := range candidates {
		parent := driveParent(p)
		if len(parent) > 3 && exists(parent) {
			return Decision{Action: ActionOpen, Path: parent, Reason: "parent of path found in response"}, true
		}
	}
	return Decision{}, false
}

// driveParent returns the parent of a normalized drive-letter path.
func driveParent(p string) string {
	i := strings.LastIndex(p, `\`)
	if i <= 2 {
		return p[:min(len(p), 3)]
	}
	return p[:i]
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}

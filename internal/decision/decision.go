// Package decision parses the navigation decisions returned by a language
// model. Model output is often almost-JSON: wrapped in markdown fences,
// carrying unescaped Windows paths, or buried in prose. Parse runs an
// ordered list of repair strategies and never fails; the worst case is a
// Decision with ActionError.
package decision

import (
	"encoding/json"
	"path/filepath"
	"regexp"
	"strings"
)

// Action is what the model wants the navigator to do next.
type Action string

const (
	ActionExplore  Action = "explore"
	ActionOpen     Action = "open"
	ActionNotFound Action = "not_found"
	ActionError    Action = "error"
)

// Decision is a parsed model reply.
type Decision struct {
	Action Action `json:"action"`
	Path   string `json:"path,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// Render returns the canonical JSON form of d.
func Render(d Decision) string {
	data, err := json.Marshal(d)
	if err != nil {
		return `{"action":"error"}`
	}
	return string(data)
}

var (
	driveRe          = regexp.MustCompile(`^[A-Za-z]:`)
	backslashRunRe   = regexp.MustCompile(`\\+`)
	trailingJunkChar = ".,;:)]}>'\" \t"
)

// NormalizePath canonicalizes a path from model output. Drive-letter paths
// use single backslashes throughout; anything else is cleaned with the host
// path rules.
func NormalizePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if !driveRe.MatchString(p) {
		return filepath.Clean(p)
	}
	p = strings.ReplaceAll(p, "/", `\`)
	p = backslashRunRe.ReplaceAllString(p, `\`)
	if len(p) > 3 {
		p = strings.TrimRight(p, `\`)
	}
	if len(p) == 2 {
		p += `\`
	}
	return strings.ToUpper(p[:1]) + p[1:]
}

// IsDrivePath reports whether p starts with a drive letter.
func IsDrivePath(p string) bool {
	return driveRe.MatchString(p)
}

// valid checks the shape of a decoded decision and normalizes its path.
func valid(d Decision) (Decision, bool) {
	d.Action = Action(strings.ToLower(strings.TrimSpace(string(d.Action))))
	switch d.Action {
	case ActionExplore, ActionOpen:
		if strings.ContainsAny(d.Path, "\n\r\t\b\f") {
			// A JSON escape such as \t in D:\tools decoded into a control char.
			return Decision{}, false
		}
		d.Path = NormalizePath(d.Path)
		if d.Path == "" {
			return Decision{}, false
		}
		return d, true
	case ActionNotFound:
		d.Path = ""
		return d, true
	default:
		return Decision{}, false
	}
}

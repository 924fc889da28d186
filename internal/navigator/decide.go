package navigator

import (
	"github.com/normanking/alquad/internal/decision"
	"github.com/normanking/alquad/internal/match"
	"github.com/normanking/alquad/internal/scanner"
)

// programTerms mark folders that usually hold an application's binaries.
var programTerms = []string{"prog", "program", "app", "application", "bin"}

func matching(entries []scanner.Entry, terms []string) []scanner.Entry {
	var out []scanner.Entry
	for _, e := range entries {
		if match.ContainsAny(e.Name, terms) {
			out = append(out, e)
		}
	}
	return out
}

func candidates(entries []scanner.Entry) []match.Candidate {
	out := make([]match.Candidate, len(entries))
	for i, e := range entries {
		out[i] = match.Candidate{Name: e.Name, Path: e.Path}
	}
	return out
}

// precheck resolves a hop from the listing alone when the heuristics are
// confident enough.
func (e *Engine) precheck(req *request, f Frame, l *scanner.Listing) (Transition, bool) {
	folders := matching(l.Folders, req.expanded)
	execs := matching(l.Executables, req.expanded)
	others := matching(l.OtherFiles, req.expanded)

	if f.Depth > 0 &&
		len(folders)+len(execs)+len(others) == 0 &&
		match.ContainsAny(baseName(f.Path), req.expanded) &&
		len(l.Executables)+len(l.OtherFiles) > 0 {
		return resolved(f.Path, "directory name matches"), true
	}

	if len(folders) == 1 && len(execs) == 0 {
		return descend(folders[0].Path, f.Depth+1, "single folder match"), true
	}

	if len(folders) >= 2 && len(execs) == 0 && !req.wantsPartition {
		ranked := e.scorer.Rank(candidates(folders), req.keywords, req.expanded)
		if best, ok := e.scorer.ClearWinner(ranked); ok {
			return descend(best.Path, f.Depth+1, "clear winner"), true
		}
	}
	return Transition{}, false
}

// apply turns an oracle decision into a transition.
func (e *Engine) apply(req *request, f Frame, l *scanner.Listing, d decision.Decision) Transition {
	rules := e.scanner.Rules()

	switch d.Action {
	case decision.ActionOpen:
		if samePath(d.Path, f.Path) {
			return resolved(f.Path, "oracle opened current directory")
		}
		if !e.scanner.Exists(d.Path) {
			return e.fallback(req, f, l)
		}
		if !req.wantsSetup && rules.IsSetupName(relativeTo(f.Path, d.Path)) {
			parent := d.Path
			if !e.scanner.IsDir(parent) {
				parent = parentDir(parent)
			}
			if samePath(parent, f.Path) {
				return e.fallback(req, f, l)
			}
			return descend(parent, f.Depth+1, "setup item declined")
		}
		return resolved(d.Path, "oracle open")

	case decision.ActionExplore:
		if !e.scanner.IsDir(d.Path) {
			return exhausted("explore target missing")
		}
		if !req.wantsSetup && rules.IsSetupName(baseName(d.Path)) {
			sub, err := e.scanner.List(d.Path, scanner.ListOptions{
				MaxItems: e.opts.MaxItems,
				UseCache: e.opts.UseCache,
			})
			if err != nil || len(sub.Folders)+len(sub.Executables) == 0 {
				return exhausted("setup folder declined")
			}
		}
		return descend(d.Path, f.Depth+1, "oracle explore")
	}

	return e.fallback(req, f, l)
}

// fallback searches the listing without the oracle.
func (e *Engine) fallback(req *request, f Frame, l *scanner.Listing) Transition {
	rules := e.scanner.Rules()

	var long []string
	for _, kw := range req.keywords {
		if len(kw) > 2 {
			long = append(long, kw)
		}
	}
	if len(matching(l.OtherFiles, long)) >= 2 {
		return resolved(f.Path, "several matching files")
	}

	dirMatches := f.Depth > 0 && match.ContainsAny(baseName(f.Path), req.expanded)
	if dirMatches && len(l.OtherFiles) > 0 {
		return resolved(f.Path, "directory name matches")
	}

	if execs := matching(l.Executables, req.expanded); len(execs) > 0 {
		ranked := e.scorer.Rank(candidates(execs), req.keywords, req.expanded)
		return resolved(ranked[0].Path, "matching executable")
	}

	var open []scanner.Entry
	for _, folder := range l.Folders {
		if req.visited[e.visitKey(folder.Path)] {
			continue
		}
		if !req.wantsSetup && rules.IsSetupName(folder.Name) {
			continue
		}
		open = append(open, folder)
	}

	terms := req.expanded
	if dirMatches {
		terms = append(append([]string{}, req.expanded...), programTerms...)
	}
	if overlap := matching(open, terms); len(overlap) > 0 {
		ranked := e.scorer.Rank(candidates(overlap), req.keywords, req.expanded)
		return descend(ranked[0].Path, f.Depth+1, "best local folder")
	}

	if i := match.FuzzyBest(req.keywords, entryNames(l.Executables)); i >= 0 {
		return resolved(l.Executables[i].Path, "spelling match")
	}
	if i := match.FuzzyBest(req.keywords, entryNames(open)); i >= 0 {
		return descend(open[i].Path, f.Depth+1, "spelling match")
	}

	if dirMatches && len(open) > 0 {
		var first, rest []Frame
		for _, folder := range open {
			fr := Frame{Path: folder.Path, Depth: f.Depth + 1}
			if match.ContainsAny(folder.Name, programTerms) {
				first = append(first, fr)
			} else {
				rest = append(rest, fr)
			}
		}
		return Transition{State: Descending, Children: append(first, rest...), Reason: "inside matching directory"}
	}

	return exhausted("nothing matches")
}

func entryNames(entries []scanner.Entry) []string {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}
	return names
}

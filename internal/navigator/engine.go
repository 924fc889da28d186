// Package navigator walks partitions directory by directory to resolve a
// free-text request into a path. Each hop is decided locally when the
// heuristics are confident and by the decision oracle otherwise.
//
// The walk is an explicit stack of frames. A step scans one directory and
// yields a Transition; the loop in search pushes children or stops on the
// first resolution. Every step is independently testable.
package navigator

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/normanking/alquad/internal/config"
	"github.com/normanking/alquad/internal/decision"
	"github.com/normanking/alquad/internal/llm"
	"github.com/normanking/alquad/internal/match"
	"github.com/normanking/alquad/internal/platform"
	"github.com/normanking/alquad/internal/scanner"
)

// DefaultMaxDepth bounds descents below a partition root.
const DefaultMaxDepth = 10

// Options tune navigation.
type Options struct {
	MaxDepth          int
	MaxItems          int
	UseCache          bool
	DeferPartition    bool
	DeferredPartition string
}

// OptionsFromConfig converts the agent settings.
func OptionsFromConfig(cfg config.AgentConfig) Options {
	return Options{
		MaxDepth:          cfg.MaxDepth,
		MaxItems:          cfg.MaxItemsPerFolder,
		UseCache:          cfg.UseCache,
		DeferPartition:    cfg.DeferPartition,
		DeferredPartition: cfg.DeferredPartition,
	}
}

// quotaReporter is implemented by oracles that latch quota exhaustion.
type quotaReporter interface {
	QuotaExceeded() bool
}

// Engine resolves requests against a fixed set of partitions. It is not
// safe for concurrent use.
type Engine struct {
	scanner    *scanner.Scanner
	scorer     *match.Scorer
	oracle     llm.Oracle
	parser     *decision.Parser
	partitions []platform.Partition
	opts       Options

	quotaHit    bool
	oracleCalls int
}

// New creates an engine. A nil oracle makes every hop local.
func New(sc *scanner.Scanner, scorer *match.Scorer, oracle llm.Oracle, parts []platform.Partition, opts Options) *Engine {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	if scorer == nil {
		scorer = match.NewScorer(match.DefaultWeights())
	}
	return &Engine{
		scanner:    sc,
		scorer:     scorer,
		oracle:     oracle,
		parser:     decision.NewParser(sc.Exists),
		partitions: parts,
		opts:       opts,
	}
}

// Partitions returns the partitions the engine searches.
func (e *Engine) Partitions() []platform.Partition { return e.partitions }

// OracleCalls returns how many times the engine consulted the oracle.
func (e *Engine) OracleCalls() int { return e.oracleCalls }

// QuotaExceeded reports whether the engine has stopped consulting the oracle.
func (e *Engine) QuotaExceeded() bool {
	if e.quotaHit {
		return true
	}
	if q, ok := e.oracle.(quotaReporter); ok && q.QuotaExceeded() {
		e.quotaHit = true
	}
	return e.quotaHit
}

// request is the per-call state derived from the query.
type request struct {
	raw            string
	keywords       []string
	expanded       []string
	wantsSetup     bool
	wantsPartition bool
	named          *platform.Partition
	visited        map[string]bool
}

var (
	partitionWordRe = regexp.MustCompile(`\b(drive|partition|disk|volume)\b`)
	letterColonRe   = regexp.MustCompile(`(?:^|\s)([a-z]):`)
	letterDriveRe   = regexp.MustCompile(`\b([a-z])\s+drive\b`)
)

func (e *Engine) newRequest(query string) *request {
	keywords := match.Extract(query)
	req := &request{
		raw:        query,
		keywords:   keywords,
		expanded:   match.Expand(keywords),
		wantsSetup: e.scanner.Rules().IsSetupName(query),
		visited:    make(map[string]bool),
	}

	lower := strings.ToLower(query)
	for _, re := range []*regexp.Regexp{letterColonRe, letterDriveRe} {
		for _, m := range re.FindAllStringSubmatch(lower, -1) {
			if p, ok := platform.Find(e.partitions, m[1]); ok && req.named == nil {
				req.named = &p
			}
		}
	}
	req.wantsPartition = req.named != nil || partitionWordRe.MatchString(lower)
	return req
}

// order returns the partitions to search for req.
func (e *Engine) order(req *request) []platform.Partition {
	if req.named != nil {
		return []platform.Partition{*req.named}
	}
	if e.opts.DeferPartition {
		return platform.Order(e.partitions, e.opts.DeferredPartition)
	}
	return e.partitions
}

// Resolve searches the partitions in order and returns the first resolved
// path.
func (e *Engine) Resolve(ctx context.Context, query string) (string, bool) {
	req := e.newRequest(query)
	log.Debug().
		Strs("keywords", req.keywords).
		Strs("expanded", req.expanded).
		Bool("setup", req.wantsSetup).
		Bool("partition", req.wantsPartition).
		Msg("resolving")

	for _, p := range e.order(req) {
		if ctx.Err() != nil {
			return "", false
		}
		log.Info().Str("partition", p.Label()).Msg("searching partition")
		if path, ok := e.search(ctx, req, p.Root); ok {
			return path, true
		}
	}
	return "", false
}

// ResolveIn searches below root only.
func (e *Engine) ResolveIn(ctx context.Context, root, query string) (string, bool) {
	return e.search(ctx, e.newRequest(query), root)
}

func (e *Engine) search(ctx context.Context, req *request, root string) (string, bool) {
	stack := []Frame{{Path: root, Depth: 0}}
	for len(stack) > 0 {
		if ctx.Err() != nil {
			return "", false
		}
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		t := e.step(ctx, req, f)
		log.Debug().
			Str("path", f.Path).
			Int("depth", f.Depth).
			Stringer("state", t.State).
			Str("reason", t.Reason).
			Msg("step")

		switch t.State {
		case Resolved:
			log.Info().Str("path", t.Path).Msg("resolved")
			return t.Path, true
		case Descending:
			// Push in reverse so the first child is visited first.
			for i := len(t.Children) - 1; i >= 0; i-- {
				stack = append(stack, t.Children[i])
			}
		}
	}
	return "", false
}

// visitKey keys the visited set by the real directory, so a symlink back
// to an ancestor counts as already visited.
func (e *Engine) visitKey(p string) string {
	return visitKey(e.scanner.Canonical(p))
}

// step visits one frame.
func (e *Engine) step(ctx context.Context, req *request, f Frame) Transition {
	key := e.visitKey(f.Path)
	if req.visited[key] {
		return exhausted("already visited")
	}
	if f.Depth >= e.opts.MaxDepth {
		return exhausted("max depth reached")
	}
	req.visited[key] = true

	listing, err := e.scanner.List(f.Path, scanner.ListOptions{
		MaxItems:     e.opts.MaxItems,
		UseCache:     e.opts.UseCache,
		IncludeSetup: req.wantsSetup,
	})
	if err != nil {
		log.Warn().Err(err).Str("path", f.Path).Msg("scan failed")
		return Transition{State: Failed, Reason: err.Error()}
	}

	if t, ok := e.precheck(req, f, listing); ok {
		return t
	}
	return e.apply(req, f, listing, e.consult(ctx, req, f, listing))
}

// consult asks the oracle for a decision. Unavailability and quota
// exhaustion both read as not_found.
func (e *Engine) consult(ctx context.Context, req *request, f Frame, l *scanner.Listing) decision.Decision {
	if e.oracle == nil {
		return decision.Decision{Action: decision.ActionNotFound, Reason: "no oracle"}
	}
	if e.QuotaExceeded() {
		return decision.Decision{Action: decision.ActionNotFound, Reason: "oracle quota exceeded"}
	}

	e.oracleCalls++
	raw, err := e.oracle.GenerateContent(ctx, e.prompt(req, f, l))
	if err != nil {
		if errors.Is(err, llm.ErrQuotaExceeded) {
			e.quotaHit = true
			log.Warn().Msg("oracle quota exceeded, continuing with local search only")
		} else {
			log.Warn().Err(err).Str("path", f.Path).Msg("oracle unavailable")
		}
		return decision.Decision{Action: decision.ActionNotFound, Reason: err.Error()}
	}

	d := e.parser.Parse(raw)
	log.Debug().Str("action", string(d.Action)).Str("target", d.Path).Str("path", f.Path).Msg("oracle decision")
	return d
}

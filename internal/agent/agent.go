// Package agent runs one request through the full pipeline: partition and
// web search fast exits, navigation, launching and history.
package agent

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/normanking/alquad/internal/history"
	"github.com/normanking/alquad/internal/intent"
	"github.com/normanking/alquad/internal/logging"
)

// ═══════════════════════════════════════════════════════════════════════════════
// COLLABORATORS
// ═══════════════════════════════════════════════════════════════════════════════

// Resolver finds the path a request refers to.
type Resolver interface {
	Resolve(ctx context.Context, query string) (string, bool)
}

// Opener hands targets to the operating system.
type Opener interface {
	Open(ctx context.Context, path string) bool
	OpenURL(ctx context.Context, url string) bool
}

// Recorder stores finished requests.
type Recorder interface {
	Record(ctx context.Context, e history.Entry) (history.Entry, error)
}

// ═══════════════════════════════════════════════════════════════════════════════
// OUTCOMES
// ═══════════════════════════════════════════════════════════════════════════════

// Kind classifies how a request was answered.
type Kind string

const (
	KindPath      Kind = "path"
	KindPartition Kind = "partition"
	KindWebSearch Kind = "web_search"
	KindNotFound  Kind = "not_found"
)

// Outcome is the answer to one request.
type Outcome struct {
	Kind     Kind
	Target   string // path, partition root or URL
	Query    string // web search terms
	Opened   bool
	Duration time.Duration
}

// Suggestions are shown when nothing is found.
var Suggestions = []string{
	"Check the spelling",
	"Try a more specific query",
	"Make sure the item exists on your system",
	"Try naming a partition (e.g. 'open games on D: drive')",
}

// Message renders the outcome for the user.
func (o Outcome) Message(query string) string {
	var b strings.Builder
	switch o.Kind {
	case KindWebSearch:
		fmt.Fprintf(&b, "Web search for: %q", o.Query)
	case KindPartition:
		fmt.Fprintf(&b, "Partition: %s", o.Target)
	case KindPath:
		fmt.Fprintf(&b, "Found: %s", o.Target)
	default:
		fmt.Fprintf(&b, "Could not find: %q\nSuggestions:", query)
		for _, s := range Suggestions {
			b.WriteString("\n  - " + s)
		}
		return b.String()
	}
	if !o.Opened {
		b.WriteString(" (not opened)")
	}
	return b.String()
}

// ═══════════════════════════════════════════════════════════════════════════════
// EVENTS
// ═══════════════════════════════════════════════════════════════════════════════

// StepCallback is called as a request moves through the pipeline.
type StepCallback func(event *StepEvent)

// StepEvent represents progress on a request.
type StepEvent struct {
	Type    StepEventType `json:"type"`
	Message string        `json:"message"`
}

// StepEventType identifies the type of step event.
type StepEventType string

const (
	EventSearching StepEventType = "searching" // Navigation started
	EventComplete  StepEventType = "complete"  // Request answered
)

// ═══════════════════════════════════════════════════════════════════════════════
// AGENT
// ═══════════════════════════════════════════════════════════════════════════════

// historyTimeout bounds a history write after the request itself is done.
const historyTimeout = 5 * time.Second

// Agent answers requests.
type Agent struct {
	partitions *intent.PartitionRequestDetector
	searches   *intent.SearchDetector
	resolver   Resolver
	opener     Opener
	history    Recorder
	dryRun     bool
	onStep     StepCallback
}

// Option configures an Agent.
type Option func(*Agent)

// WithHistory records every outcome in r.
func WithHistory(r Recorder) Option {
	return func(a *Agent) { a.history = r }
}

// WithDryRun resolves without opening anything.
func WithDryRun(dry bool) Option {
	return func(a *Agent) { a.dryRun = dry }
}

// WithStepCallback reports pipeline progress to cb.
func WithStepCallback(cb StepCallback) Option {
	return func(a *Agent) { a.onStep = cb }
}

// New creates an agent.
func New(parts *intent.PartitionRequestDetector, searches *intent.SearchDetector, resolver Resolver, opener Opener, opts ...Option) *Agent {
	a := &Agent{
		partitions: parts,
		searches:   searches,
		resolver:   resolver,
		opener:     opener,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Agent) emit(t StepEventType, msg string) {
	if a.onStep != nil {
		a.onStep(&StepEvent{Type: t, Message: msg})
	}
}

// Handle answers query. Partition requests are checked first so that
// "open d" never costs an oracle round trip.
func (a *Agent) Handle(ctx context.Context, query string) Outcome {
	start := time.Now()
	query = strings.TrimSpace(query)
	log.Info().Str("query", query).Msg("processing request")

	out := a.handle(ctx, query)
	out.Duration = time.Since(start)

	log.Info().
		Str("kind", string(out.Kind)).
		Str("target", out.Target).
		Bool("opened", out.Opened).
		Dur("duration", out.Duration).
		Msg("request done")
	a.emit(EventComplete, out.Message(query))
	a.record(ctx, query, out)
	return out
}

func (a *Agent) handle(ctx context.Context, query string) Outcome {
	if a.partitions != nil {
		if p := a.partitions.Classify(query); p != nil {
			return Outcome{Kind: KindPartition, Target: p.Root, Opened: a.open(ctx, p.Root)}
		}
	}

	if a.searches != nil {
		if ok, terms := a.searches.Classify(ctx, query); ok {
			url := intent.SearchURL(terms)
			out := Outcome{Kind: KindWebSearch, Target: url, Query: terms}
			if !a.dryRun {
				out.Opened = a.opener.OpenURL(ctx, url)
			}
			return out
		}
	}

	a.emit(EventSearching, fmt.Sprintf("Searching for: %q", query))
	path, ok := a.resolver.Resolve(ctx, query)
	if !ok {
		return Outcome{Kind: KindNotFound}
	}
	return Outcome{Kind: KindPath, Target: path, Opened: a.open(ctx, path)}
}

func (a *Agent) open(ctx context.Context, path string) bool {
	if a.dryRun {
		return false
	}
	return a.opener.Open(ctx, path)
}

// record stores out; failures never affect the answer.
func (a *Agent) record(ctx context.Context, query string, out Outcome) {
	if a.history == nil {
		return
	}
	hctx, cancel := logging.DetachContextWithTimeout(ctx, historyTimeout)
	defer cancel()

	_, err := a.history.Record(hctx, history.Entry{
		Query:    query,
		Kind:     string(out.Kind),
		Target:   out.Target,
		Duration: out.Duration,
	})
	if err != nil {
		log.Warn().Err(err).Msg("failed to record history")
	}
}

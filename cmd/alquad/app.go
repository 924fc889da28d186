package main

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"

	"github.com/normanking/alquad/internal/agent"
	"github.com/normanking/alquad/internal/config"
	"github.com/normanking/alquad/internal/history"
	"github.com/normanking/alquad/internal/intent"
	"github.com/normanking/alquad/internal/launcher"
	"github.com/normanking/alquad/internal/llm"
	"github.com/normanking/alquad/internal/match"
	"github.com/normanking/alquad/internal/navigator"
	"github.com/normanking/alquad/internal/platform"
	"github.com/normanking/alquad/internal/scanner"
)

// availabilityTimeout bounds the startup reachability check.
const availabilityTimeout = 3 * time.Second

// app holds the wired components of one session.
type app struct {
	oracle  *llm.RetryingOracle
	metrics *llm.Metrics
	engine  *navigator.Engine
	scanner *scanner.Scanner
	history *history.Store
	agent   *agent.Agent
}

// newApp validates cfg and wires the session components.
func newApp(ctx context.Context, cfg *config.Config, dryRun bool) (*app, error) {
	if err := cfg.Validate(); err != nil {
		if isConfigError(err) {
			log.Error().Err(err).Msg("invalid configuration")
		}
		return nil, err
	}

	fsys := afero.NewOsFs()

	var cache *scanner.ListingCache
	if cfg.Agent.UseCache {
		c, err := scanner.NewListingCache(cfg.Cache.MaxEntries, cfg.Cache.TTL)
		if err != nil {
			return nil, err
		}
		cache = c
	}
	sc := scanner.New(fsys, cfg.FileSystem.Rules(cfg.Agent.MaxItemsPerFolder), cache)

	parts := platform.NewDetector(fsys).Detect(cfg.Agent.Partitions)
	if len(parts) == 0 {
		return nil, fmt.Errorf("no partitions found")
	}

	metrics := llm.NewMetrics()
	oracle, err := llm.NewOracle(ctx, cfg, metrics)
	if err != nil {
		return nil, fmt.Errorf("create oracle: %w", err)
	}

	checkCtx, cancel := context.WithTimeout(ctx, availabilityTimeout)
	if !oracle.Backend().Available(checkCtx) {
		log.Warn().Str("provider", oracle.Name()).Msg("oracle backend not reachable; navigation falls back to local heuristics when calls fail")
	}
	cancel()

	engine := navigator.New(sc, match.NewScorer(cfg.Scoring.Weights()), oracle, parts, navigator.OptionsFromConfig(cfg.Agent))

	a := &app{
		oracle:  oracle,
		metrics: metrics,
		engine:  engine,
		scanner: sc,
	}

	opts := []agent.Option{
		agent.WithDryRun(dryRun),
		agent.WithStepCallback(func(ev *agent.StepEvent) {
			if ev.Type == agent.EventSearching {
				fmt.Println(dimStyle.Render(ev.Message))
			}
		}),
	}
	if cfg.History.Enabled {
		store, err := history.Open(cfg.History.DBPath)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.History.DBPath).Msg("history disabled")
		} else {
			a.history = store
			opts = append(opts, agent.WithHistory(store))
		}
	}

	a.agent = agent.New(
		intent.NewPartitionRequestDetector(parts),
		intent.NewSearchDetector(oracle),
		engine,
		launcher.New(),
		opts...,
	)

	log.Debug().Int("partitions", len(parts)).Str("provider", oracle.Name()).Msg("session ready")
	return a, nil
}

// Close releases the history database.
func (a *app) Close() {
	if a.history != nil {
		if err := a.history.Close(); err != nil {
			log.Warn().Err(err).Msg("close history")
		}
	}
}

// printStats reports oracle usage for the session.
func (a *app) printStats() {
	snap := a.metrics.Snapshot()
	if snap.Calls == 0 {
		return
	}
	line := fmt.Sprintf("oracle: %d calls, %d errors, mean %s", snap.Calls, snap.Errors, snap.MeanLatency.Round(time.Millisecond))
	if snap.Quota > 0 || a.engine.QuotaExceeded() {
		line += ", quota exhausted"
	}
	if cache := a.scanner.Cache(); cache != nil {
		line += fmt.Sprintf(", %d cached listings", cache.Len())
	}
	fmt.Println(dimStyle.Render(line))
}

// orderedPartitions lists partitions in search order without building a session.
func orderedPartitions(cfg *config.Config) []platform.Partition {
	parts := platform.NewDetector(afero.NewOsFs()).Detect(cfg.Agent.Partitions)
	if !cfg.Agent.DeferPartition {
		return parts
	}
	return platform.Order(parts, cfg.Agent.DeferredPartition)
}

// recentHistory reads the latest entries from the history database.
func recentHistory(ctx context.Context, cfg *config.Config, limit int) ([]history.Entry, error) {
	if !cfg.History.Enabled {
		return nil, fmt.Errorf("history is disabled in configuration")
	}
	store, err := history.Open(cfg.History.DBPath)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	return store.Recent(ctx, limit)
}

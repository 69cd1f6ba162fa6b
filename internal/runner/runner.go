// Package runner fans a harvest out across the enabled sources, one
// orchestrator per source running in parallel.
package runner

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/openlistings/fsbo-harvester/internal/orchestrator"
	"github.com/openlistings/fsbo-harvester/internal/policy/ratelimit"
	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

// Deps are the collaborators shared by every per-source orchestrator. One
// throttler serves all sources so the per-domain budget holds across them.
type Deps struct {
	Registry  *scrape.Registry
	Fetcher   scrape.Fetcher
	Headless  scrape.Fetcher
	Listings  scrape.ListingStore
	Sessions  scrape.SessionStore
	Throttler *ratelimit.Throttler
	Archive   scrape.BlobStore
	Publisher scrape.Publisher
	Topic     string
	Clock     scrape.Clock
	IDs       scrape.IDGenerator
}

// Result is the outcome of one source's run.
type Result struct {
	Source  string
	Session scrape.Session
	Err     error
}

// Runner owns the fan-out across enabled sources.
type Runner struct {
	sources map[string]scrape.SourceConfig
	deps    Deps
}

// New creates a Runner over the configured sources.
func New(sources map[string]scrape.SourceConfig, deps Deps) *Runner {
	return &Runner{sources: sources, deps: deps}
}

// Run executes every enabled source concurrently and blocks until all have
// finished. One source failing never stops the others; each failure is
// reported in its Result. Results come back sorted by source name.
func (r *Runner) Run(ctx context.Context) []Result {
	names := r.enabledSources()
	if len(names) == 0 {
		zap.L().Warn("no sources enabled, nothing to run")
		return nil
	}

	results := make([]Result, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			results[i] = r.runSource(ctx, name)
		}(i, name)
	}
	wg.Wait()
	return results
}

func (r *Runner) runSource(ctx context.Context, name string) Result {
	extractor, err := r.deps.Registry.Lookup(name)
	if err != nil {
		zap.L().Error("source not registered", zap.String("source", name), zap.Error(err))
		return Result{Source: name, Err: err}
	}

	orch := orchestrator.New(r.sources[name], orchestrator.Deps{
		Extractor: extractor,
		Fetcher:   r.deps.Fetcher,
		Headless:  r.deps.Headless,
		Listings:  r.deps.Listings,
		Sessions:  r.deps.Sessions,
		Throttler: r.deps.Throttler,
		Archive:   r.deps.Archive,
		Publisher: r.deps.Publisher,
		Topic:     r.deps.Topic,
		Clock:     r.deps.Clock,
		IDs:       r.deps.IDs,
	})
	session, err := orch.Run(ctx)
	return Result{Source: name, Session: session, Err: err}
}

func (r *Runner) enabledSources() []string {
	var names []string
	for name, cfg := range r.sources {
		if cfg.Enabled {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Package orchestrator drives the per-source scrape pipeline:
// discover → fetch → extract → normalize → dedupe → persist, with exactly
// one session record written per run.
package orchestrator

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/openlistings/fsbo-harvester/internal/normalize"
	"github.com/openlistings/fsbo-harvester/internal/policy/ratelimit"
	"github.com/openlistings/fsbo-harvester/internal/policy/retry"
	"github.com/openlistings/fsbo-harvester/internal/scrape"
	"github.com/openlistings/fsbo-harvester/internal/telemetry"
)

// Deps are the collaborators one orchestrator composes. Archive, Publisher
// and Headless are optional; everything else is required.
type Deps struct {
	Extractor scrape.Extractor
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

// Orchestrator runs the pipeline for one source. Targets are processed
// sequentially; the per-source limiter guarantees no concurrent requests
// against one origin.
type Orchestrator struct {
	deps    Deps
	cfg     scrape.SourceConfig
	source  string
	limiter *ratelimit.Limiter
	retrier *retry.Policy

	sleep func(ctx context.Context, d time.Duration) error
}

// New builds an Orchestrator for the extractor in deps, paced by the
// source's configured delays.
func New(cfg scrape.SourceConfig, deps Deps) *Orchestrator {
	source := deps.Extractor.Source()
	return &Orchestrator{
		deps:    deps,
		cfg:     cfg,
		source:  source,
		limiter: ratelimit.NewLimiter(source, cfg.MinDelay, cfg.MaxDelay, cfg.Jitter),
		retrier: retry.New(retry.DefaultMaxRetries, retry.DefaultBackoffFactor, nil),
		sleep:   sleepCtx,
	}
}

// Run executes one full pipeline pass and always records exactly one
// session, failed or completed, before returning.
func (o *Orchestrator) Run(ctx context.Context) (scrape.Session, error) {
	defer telemetry.RunStarted()()

	start := o.deps.Clock.Now()
	runID, err := o.deps.IDs.NewID()
	if err != nil {
		return scrape.Session{}, fmt.Errorf("generate run id: %w", err)
	}
	logger := zap.L().With(zap.String("source", o.source), zap.String("run_id", runID))
	logger.Info("starting scrape run")

	targets, err := o.deps.Extractor.Discover(ctx, o.cfg)
	if err != nil {
		logger.Error("discovery failed", zap.Error(err))
		session := o.record(ctx, runID, start, scrape.RunCounters{},
			scrape.SessionFailed, fmt.Sprintf("discovery: %v", err))
		return session, fmt.Errorf("discover %s: %w", o.source, err)
	}
	logger.Info("discovery finished", zap.Int("targets", len(targets)))

	var counters scrape.RunCounters
	var candidates []scrape.RawCandidate
	for _, target := range targets {
		if ctx.Err() != nil {
			logger.Warn("run interrupted", zap.Error(ctx.Err()))
			break
		}
		cands, err := o.processTarget(ctx, target)
		if err != nil {
			counters.Errors++
			logger.Warn("target failed, continuing",
				zap.String("url", target.URL),
				zap.Error(err),
			)
			continue
		}
		counters.Found += len(cands)
		candidates = append(candidates, cands...)
	}

	listings := o.normalizeCandidates(candidates)

	newCount, dupCount, err := o.deps.Listings.BulkInsert(ctx, listings)
	if err != nil {
		logger.Error("persistence failed", zap.Error(err))
		session := o.record(ctx, runID, start, counters,
			scrape.SessionFailed, fmt.Sprintf("persist: %v", err))
		return session, fmt.Errorf("persist %s: %w", o.source, err)
	}
	counters.New = newCount
	counters.Duplicates = dupCount
	telemetry.RecordListings(o.source, newCount, dupCount)

	session := o.record(ctx, runID, start, counters, scrape.SessionCompleted, "")
	logger.Info("scrape run finished",
		zap.Int("found", counters.Found),
		zap.Int("new", newCount),
		zap.Int("duplicates", dupCount),
		zap.Int("errors", counters.Errors),
	)
	return session, nil
}

// processTarget fetches one target through the throttle, limiter and retry
// layers, then extracts its candidates.
func (o *Orchestrator) processTarget(ctx context.Context, target scrape.Target) ([]scrape.RawCandidate, error) {
	domain := ratelimit.Domain(target.URL)
	if o.deps.Throttler != nil && o.deps.Throttler.ShouldThrottle(domain) {
		wait := o.deps.Throttler.WaitTime(domain)
		zap.L().Info("domain throttled",
			zap.String("domain", domain),
			zap.Duration("wait", wait),
		)
		telemetry.ObserveRateLimitDelay(domain, wait)
		if err := o.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("throttle wait: %w", err)
		}
	}
	if err := o.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	fetcher := o.deps.Fetcher
	if target.UseHeadless && o.deps.Headless != nil {
		fetcher = o.deps.Headless
	}

	var resp scrape.FetchResponse
	err := o.retrier.Do(ctx, o.source, func(ctx context.Context) error {
		if o.deps.Throttler != nil {
			o.deps.Throttler.RecordRequest(domain)
		}
		r, fetchErr := fetcher.Fetch(ctx, scrape.FetchRequest{
			URL:         target.URL,
			UseHeadless: target.UseHeadless,
		})
		// Re-arm the pacing clock after every attempt so the next delay is
		// measured from the end of this request, not from before it started.
		o.limiter.RecordRequest()
		if fetchErr != nil {
			return fetchErr
		}
		resp = r
		return nil
	})
	if err != nil {
		return nil, err
	}
	telemetry.RecordPageFetch(o.source, resp.StatusCode, resp.Duration)
	o.archivePage(ctx, resp)

	candidates, err := o.deps.Extractor.Extract(resp.Body, target)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", target.URL, err)
	}
	return candidates, nil
}

// normalizeCandidates applies normalization, the validity filter and the
// allowed-states filter, capped by MaxListings. Invalid candidates are
// dropped silently; they are not errors.
func (o *Orchestrator) normalizeCandidates(candidates []scrape.RawCandidate) []scrape.Listing {
	maxListings := o.cfg.MaxListings
	listings := make([]scrape.Listing, 0, len(candidates))
	for _, c := range candidates {
		if maxListings > 0 && len(listings) >= maxListings {
			break
		}
		street, city, state, zip := normalize.Address(c.Street, c.City, c.State, c.Zip)
		if !normalize.IsValidAddress(street, city, state, zip) {
			continue
		}
		if !o.cfg.StateAllowed(state) {
			continue
		}
		now := o.deps.Clock.Now()
		listings = append(listings, scrape.Listing{
			Street:        street,
			City:          city,
			State:         state,
			Zip:           zip,
			ListingURL:    c.ListingURL,
			SourceWebsite: o.source,
			ScrapedAt:     now,
			LastUpdated:   now,
			Fingerprint:   scrape.Fingerprint(street, city, state, zip),
		})
	}
	return listings
}

// record writes the run's single session row and emits the run event. A
// session-store failure cannot fail the run at this point; it is logged and
// the in-memory session is still returned for the caller's benefit.
func (o *Orchestrator) record(
	ctx context.Context,
	runID string,
	start time.Time,
	counters scrape.RunCounters,
	status scrape.SessionStatus,
	message string,
) scrape.Session {
	end := o.deps.Clock.Now()
	session := scrape.Session{
		SourceWebsite:      o.source,
		ScrapeStart:        start,
		ScrapeEnd:          end,
		ListingsFound:      counters.Found,
		ListingsNew:        counters.New,
		ListingsDuplicates: counters.Duplicates,
		Errors:             counters.Errors,
		Status:             status,
		ErrorMessage:       message,
	}
	id, err := o.deps.Sessions.Record(ctx, session)
	if err != nil {
		zap.L().Error("session record failed",
			zap.String("source", o.source),
			zap.Error(err),
		)
	} else {
		session.ID = id
	}
	telemetry.RecordSession(o.source, string(status))
	o.publishEvent(ctx, runID, session)
	return session
}

func (o *Orchestrator) publishEvent(ctx context.Context, runID string, session scrape.Session) {
	if o.deps.Publisher == nil {
		return
	}
	event := scrape.RunEvent{
		RunID:      runID,
		Source:     session.SourceWebsite,
		Status:     session.Status,
		Found:      session.ListingsFound,
		New:        session.ListingsNew,
		Duplicates: session.ListingsDuplicates,
		Errors:     session.Errors,
		FinishedAt: session.ScrapeEnd,
	}
	if _, err := o.deps.Publisher.Publish(ctx, o.deps.Topic, event); err != nil {
		zap.L().Warn("run event publish failed",
			zap.String("source", session.SourceWebsite),
			zap.Error(err),
		)
	}
}

// archivePage best-effort stores the raw page for later reprocessing. An
// archive failure never fails the target.
func (o *Orchestrator) archivePage(ctx context.Context, resp scrape.FetchResponse) {
	if o.deps.Archive == nil || len(resp.Body) == 0 {
		return
	}
	sum := sha256.Sum256(resp.Body)
	path := fmt.Sprintf("archive/%s/%s.html", o.source, hex.EncodeToString(sum[:8]))
	if _, err := o.deps.Archive.PutObject(ctx, path, "text/html", resp.Body); err != nil {
		zap.L().Warn("page archive failed",
			zap.String("url", resp.URL),
			zap.Error(err),
		)
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

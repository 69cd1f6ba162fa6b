package cmd

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"
	gcstorage "cloud.google.com/go/storage"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openlistings/fsbo-harvester/internal/clock/system"
	collyfetcher "github.com/openlistings/fsbo-harvester/internal/fetcher/colly"
	"github.com/openlistings/fsbo-harvester/internal/fetcher/headless"
	"github.com/openlistings/fsbo-harvester/internal/id/uuid"
	"github.com/openlistings/fsbo-harvester/internal/policy/ratelimit"
	pubsubpub "github.com/openlistings/fsbo-harvester/internal/publisher/pubsub"
	"github.com/openlistings/fsbo-harvester/internal/runner"
	"github.com/openlistings/fsbo-harvester/internal/scrape"
	"github.com/openlistings/fsbo-harvester/internal/sources/craigslist"
	"github.com/openlistings/fsbo-harvester/internal/sources/fsbocom"
	"github.com/openlistings/fsbo-harvester/internal/storage/gcs"
	"github.com/openlistings/fsbo-harvester/internal/storage/local"
)

// Requests per domain inside any sliding 60s window, across all sources.
const domainRequestBudget = 20

// newHarvestCmd creates the 'harvest' subcommand.
func newHarvestCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "harvest",
		Short: "Runs a scrape across all enabled sources",
		Long: `Discovers, fetches and extracts listing addresses from every
enabled source concurrently, persisting new listings and one audit
session per source. When export.path is configured the surviving
listings are written out afterwards.`,
		RunE: runHarvestCommand,
	}
}

func runHarvestCommand(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	st, err := buildStores(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	deps, cleanup, err := buildRunnerDeps(ctx, st)
	if err != nil {
		return err
	}
	defer cleanup()

	results := runner.New(cfg.Sources, deps).Run(ctx)

	failed := 0
	for _, res := range results {
		if res.Err != nil {
			failed++
			zap.L().Error("source run failed",
				zap.String("source", res.Source),
				zap.Error(res.Err),
			)
			continue
		}
		zap.L().Info("source run finished",
			zap.String("source", res.Source),
			zap.Int("found", res.Session.ListingsFound),
			zap.Int("new", res.Session.ListingsNew),
			zap.Int("duplicates", res.Session.ListingsDuplicates),
			zap.Int("errors", res.Session.Errors),
		)
	}
	if len(results) > 0 && failed == len(results) {
		return fmt.Errorf("all %d sources failed", failed)
	}

	if cfg.Export.Path != "" {
		if err := exportListings(ctx, st.listings, cfg.Export.Path, cfg.Export.Format, "", nil); err != nil {
			return fmt.Errorf("export after harvest: %w", err)
		}
	}
	return nil
}

// buildRunnerDeps assembles the fetchers, archive, publisher and registry
// shared by every per-source orchestrator.
func buildRunnerDeps(ctx context.Context, st *stores) (runner.Deps, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	fetcher := collyfetcher.New(collyfetcher.Config{
		UserAgent: cfg.Fetch.UserAgent,
		Timeout:   cfg.FetchTimeout(),
	})

	var headlessFetcher scrape.Fetcher
	if cfg.Headless.Enabled {
		hf, err := headless.New(headless.Config{
			MaxParallel:       cfg.Headless.MaxParallel,
			UserAgent:         cfg.Headless.UserAgent,
			NavigationTimeout: cfg.HeadlessNavTimeout(),
		})
		if err != nil {
			cleanup()
			return runner.Deps{}, nil, fmt.Errorf("init headless fetcher: %w", err)
		}
		closers = append(closers, hf.Close)
		headlessFetcher = hf
	}

	archive, archiveClose, err := buildArchive(ctx)
	if err != nil {
		cleanup()
		return runner.Deps{}, nil, err
	}
	if archiveClose != nil {
		closers = append(closers, archiveClose)
	}

	publisher, publisherClose, err := buildPublisher(ctx)
	if err != nil {
		cleanup()
		return runner.Deps{}, nil, err
	}
	if publisherClose != nil {
		closers = append(closers, publisherClose)
	}

	registry := scrape.NewRegistry()
	if err := registry.Register(fsbocom.SourceID, fsbocom.New(fetcher, headlessFetcher)); err != nil {
		cleanup()
		return runner.Deps{}, nil, err
	}
	if err := registry.Register(craigslist.SourceID, craigslist.New()); err != nil {
		cleanup()
		return runner.Deps{}, nil, err
	}

	deps := runner.Deps{
		Registry:  registry,
		Fetcher:   fetcher,
		Headless:  headlessFetcher,
		Listings:  st.listings,
		Sessions:  st.sessions,
		Throttler: ratelimit.NewThrottler(domainRequestBudget),
		Archive:   archive,
		Publisher: publisher,
		Topic:     cfg.PubSub.TopicName,
		Clock:     system.New(),
		IDs:       uuid.New(),
	}
	return deps, cleanup, nil
}

func buildArchive(ctx context.Context) (scrape.BlobStore, func(), error) {
	switch cfg.Archive.Backend {
	case "":
		return nil, nil, nil
	case "local":
		store, err := local.New(local.Config{BaseDir: cfg.Archive.LocalDir})
		if err != nil {
			return nil, nil, fmt.Errorf("init local archive: %w", err)
		}
		return store, nil, nil
	case "gcs":
		client, err := gcstorage.NewClient(ctx)
		if err != nil {
			return nil, nil, fmt.Errorf("init gcs client: %w", err)
		}
		store, err := gcs.New(client, gcs.Config{Bucket: cfg.Archive.GCSBucket})
		if err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("init gcs archive: %w", err)
		}
		return store, func() { _ = client.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unknown archive backend %q", cfg.Archive.Backend)
	}
}

func buildPublisher(ctx context.Context) (scrape.Publisher, func(), error) {
	if cfg.PubSub.ProjectID == "" {
		return nil, nil, nil
	}
	client, err := pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
	if err != nil {
		return nil, nil, fmt.Errorf("init pubsub client: %w", err)
	}
	publisher, err := pubsubpub.New(client)
	if err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("init publisher: %w", err)
	}
	return publisher, func() { _ = client.Close() }, nil
}

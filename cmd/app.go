package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
	memstore "github.com/openlistings/fsbo-harvester/internal/storage/memory"
	"github.com/openlistings/fsbo-harvester/internal/storage/postgres"
)

// stores bundles the persistence collaborators a command needs, regardless
// of whether they are Postgres or in-memory.
type stores struct {
	listings scrape.ListingStore
	sessions scrape.SessionStore
	closers  []func()
}

// buildStores connects Postgres when a DSN is configured and falls back to
// the in-memory stores otherwise. The fallback keeps local and one-off runs
// dependency-free; nothing survives the process.
func buildStores(ctx context.Context) (*stores, error) {
	if cfg.Database.DSN == "" {
		zap.L().Warn("no database configured, using in-memory stores")
		return &stores{
			listings: memstore.NewListingStore(),
			sessions: memstore.NewSessionStore(),
		}, nil
	}

	listings, sessions, closePool, err := postgres.NewStores(ctx, postgres.Config{
		DSN:      cfg.Database.DSN,
		MaxConns: int32(cfg.Database.MaxConns),
		MinConns: int32(cfg.Database.MinConns),
	})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return &stores{
		listings: listings,
		sessions: sessions,
		closers:  []func(){closePool},
	}, nil
}

// Close releases held resources in reverse acquisition order.
func (s *stores) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

package postgres

import (
	"context"
	"fmt"
)

// schemaDDL is applied idempotently at store construction. The fingerprint
// unique constraint is the dedup invariant; everything else is convenience
// indexing for the query paths.
const schemaDDL = `
CREATE TABLE IF NOT EXISTS listings (
	id BIGSERIAL PRIMARY KEY,
	street TEXT NOT NULL,
	city TEXT NOT NULL,
	state TEXT NOT NULL,
	zip_code TEXT NOT NULL,
	listing_url TEXT NOT NULL DEFAULT '',
	source_website TEXT NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL,
	last_updated TIMESTAMPTZ NOT NULL,
	fingerprint TEXT NOT NULL UNIQUE,
	is_exported BOOLEAN NOT NULL DEFAULT FALSE,
	notes TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_listings_source ON listings (source_website);
CREATE INDEX IF NOT EXISTS idx_listings_exported ON listings (is_exported);
CREATE INDEX IF NOT EXISTS idx_listings_scraped_at ON listings (scraped_at DESC);

CREATE TABLE IF NOT EXISTS scrape_sessions (
	id BIGSERIAL PRIMARY KEY,
	source_website TEXT NOT NULL,
	scrape_start TIMESTAMPTZ NOT NULL,
	scrape_end TIMESTAMPTZ NOT NULL,
	listings_found INT NOT NULL DEFAULT 0,
	listings_new INT NOT NULL DEFAULT 0,
	listings_duplicates INT NOT NULL DEFAULT 0,
	errors INT NOT NULL DEFAULT 0,
	status TEXT NOT NULL,
	error_message TEXT NOT NULL DEFAULT ''
);
CREATE INDEX IF NOT EXISTS idx_sessions_start ON scrape_sessions (scrape_start DESC);
`

// EnsureSchema creates the tables and indexes if they do not exist.
func EnsureSchema(ctx context.Context, pool dbPool) error {
	if _, err := pool.Exec(ctx, schemaDDL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

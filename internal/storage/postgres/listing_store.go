package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

const listingColumns = `id, street, city, state, zip_code, listing_url, source_website,
	scraped_at, last_updated, fingerprint, is_exported, notes`

// ListingStore implements scrape.ListingStore on Postgres. Deduplication
// rides on the fingerprint unique constraint: a conflicting insert is a
// no-op, not an error.
type ListingStore struct {
	pool dbPool
}

// NewListingStore connects a pool and applies the schema.
func NewListingStore(ctx context.Context, cfg Config) (*ListingStore, error) {
	pool, err := newPool(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if err := EnsureSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &ListingStore{pool: pool}, nil
}

// NewListingStoreWithPool constructs a store from an existing pool
// (primarily for testing).
func NewListingStoreWithPool(pool dbPool) (*ListingStore, error) {
	if pool == nil {
		return nil, fmt.Errorf("pool is required")
	}
	return &ListingStore{pool: pool}, nil
}

// Close releases the underlying pool resources.
func (s *ListingStore) Close() {
	if s == nil || s.pool == nil {
		return
	}
	s.pool.Close()
}

// Insert writes one listing. inserted is false when the fingerprint already
// exists.
func (s *ListingStore) Insert(ctx context.Context, listing scrape.Listing) (bool, error) {
	tag, err := s.pool.Exec(ctx, `
INSERT INTO listings (
	street, city, state, zip_code, listing_url, source_website,
	scraped_at, last_updated, fingerprint, is_exported, notes
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
ON CONFLICT (fingerprint) DO NOTHING`,
		listing.Street,
		listing.City,
		listing.State,
		listing.Zip,
		listing.ListingURL,
		listing.SourceWebsite,
		listing.ScrapedAt,
		listing.LastUpdated,
		listing.Fingerprint,
		listing.IsExported,
		listing.Notes,
	)
	if err != nil {
		return false, fmt.Errorf("insert listing: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// BulkInsert inserts a batch one row at a time and tallies (new, duplicates).
// The first storage error aborts the batch.
func (s *ListingStore) BulkInsert(ctx context.Context, listings []scrape.Listing) (int, int, error) {
	var newCount, dupCount int
	for _, listing := range listings {
		inserted, err := s.Insert(ctx, listing)
		if err != nil {
			return newCount, dupCount, err
		}
		if inserted {
			newCount++
		} else {
			dupCount++
		}
	}
	return newCount, dupCount, nil
}

// List returns listings matching the filter, most recently scraped first.
func (s *ListingStore) List(ctx context.Context, filter scrape.ListingFilter) ([]scrape.Listing, error) {
	var (
		conditions []string
		args       []any
	)
	if filter.Source != "" {
		args = append(args, filter.Source)
		conditions = append(conditions, fmt.Sprintf("source_website = $%d", len(args)))
	}
	if filter.Exported != nil {
		args = append(args, *filter.Exported)
		conditions = append(conditions, fmt.Sprintf("is_exported = $%d", len(args)))
	}

	query := "SELECT " + listingColumns + " FROM listings"
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY scraped_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	defer rows.Close()

	var listings []scrape.Listing
	for rows.Next() {
		var l scrape.Listing
		if err := rows.Scan(
			&l.ID, &l.Street, &l.City, &l.State, &l.Zip, &l.ListingURL,
			&l.SourceWebsite, &l.ScrapedAt, &l.LastUpdated, &l.Fingerprint,
			&l.IsExported, &l.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan listing: %w", err)
		}
		listings = append(listings, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate listings: %w", err)
	}
	return listings, nil
}

// Count returns the number of listings, optionally restricted to one source.
func (s *ListingStore) Count(ctx context.Context, source string) (int, error) {
	query := "SELECT COUNT(*) FROM listings"
	var args []any
	if source != "" {
		query += " WHERE source_website = $1"
		args = append(args, source)
	}
	var count int
	if err := s.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count listings: %w", err)
	}
	return count, nil
}

// MarkExported flags the given listings and refreshes last_updated.
func (s *ListingStore) MarkExported(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	if _, err := s.pool.Exec(ctx, `
UPDATE listings SET is_exported = TRUE, last_updated = NOW() WHERE id = ANY($1)`, ids); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	return nil
}

// ClearAll deletes every listing. Explicit bulk clear is the only deletion
// path.
func (s *ListingStore) ClearAll(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM listings"); err != nil {
		return fmt.Errorf("clear listings: %w", err)
	}
	return nil
}

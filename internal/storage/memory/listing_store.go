// Package memory provides in-memory store implementations for tests and
// local development runs without Postgres.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

// ListingStore is a thread-safe in-memory scrape.ListingStore keyed by
// fingerprint.
type ListingStore struct {
	mu       sync.RWMutex
	nextID   int64
	byFP     map[string]int64
	listings map[int64]scrape.Listing
}

// NewListingStore creates an empty ListingStore.
func NewListingStore() *ListingStore {
	return &ListingStore{
		nextID:   1,
		byFP:     make(map[string]int64),
		listings: make(map[int64]scrape.Listing),
	}
}

// Insert writes one listing; a fingerprint collision returns inserted=false.
func (s *ListingStore) Insert(_ context.Context, listing scrape.Listing) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(listing), nil
}

// BulkInsert inserts a batch and reports (new, duplicates).
func (s *ListingStore) BulkInsert(_ context.Context, listings []scrape.Listing) (int, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var newCount, dupCount int
	for _, listing := range listings {
		if s.insertLocked(listing) {
			newCount++
		} else {
			dupCount++
		}
	}
	return newCount, dupCount, nil
}

func (s *ListingStore) insertLocked(listing scrape.Listing) bool {
	if _, exists := s.byFP[listing.Fingerprint]; exists {
		return false
	}
	listing.ID = s.nextID
	s.nextID++
	s.byFP[listing.Fingerprint] = listing.ID
	s.listings[listing.ID] = listing
	return true
}

// List returns listings matching the filter, most recently scraped first.
func (s *ListingStore) List(_ context.Context, filter scrape.ListingFilter) ([]scrape.Listing, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matched := make([]scrape.Listing, 0, len(s.listings))
	for _, l := range s.listings {
		if filter.Source != "" && l.SourceWebsite != filter.Source {
			continue
		}
		if filter.Exported != nil && l.IsExported != *filter.Exported {
			continue
		}
		matched = append(matched, l)
	}
	sort.Slice(matched, func(i, j int) bool {
		if matched[i].ScrapedAt.Equal(matched[j].ScrapedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].ScrapedAt.After(matched[j].ScrapedAt)
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(matched) {
			return nil, nil
		}
		matched = matched[filter.Offset:]
	}
	if filter.Limit > 0 && len(matched) > filter.Limit {
		matched = matched[:filter.Limit]
	}
	return matched, nil
}

// Count returns the number of listings, optionally restricted to one source.
func (s *ListingStore) Count(_ context.Context, source string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if source == "" {
		return len(s.listings), nil
	}
	count := 0
	for _, l := range s.listings {
		if l.SourceWebsite == source {
			count++
		}
	}
	return count, nil
}

// MarkExported flags the given listings and refreshes their last-updated
// timestamp, mirroring the Postgres store. Unknown IDs are ignored.
func (s *ListingStore) MarkExported(_ context.Context, ids []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	for _, id := range ids {
		l, ok := s.listings[id]
		if !ok {
			continue
		}
		l.IsExported = true
		l.LastUpdated = now
		s.listings[id] = l
	}
	return nil
}

// ClearAll deletes every listing.
func (s *ListingStore) ClearAll(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byFP = make(map[string]int64)
	s.listings = make(map[int64]scrape.Listing)
	return nil
}

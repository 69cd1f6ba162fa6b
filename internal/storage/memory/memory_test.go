package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

func listing(fp, source string, scrapedAt time.Time) scrape.Listing {
	return scrape.Listing{
		Street:        "123 Main St",
		City:          "Springfield",
		State:         "IL",
		Zip:           "62701",
		SourceWebsite: source,
		ScrapedAt:     scrapedAt,
		Fingerprint:   fp,
	}
}

func TestListingInsertAndDuplicate(t *testing.T) {
	t.Parallel()

	store := NewListingStore()
	ctx := context.Background()
	now := time.Now()

	inserted, err := store.Insert(ctx, listing("fp-a", "fsbocom", now))
	require.NoError(t, err)
	require.True(t, inserted)

	inserted, err = store.Insert(ctx, listing("fp-a", "fsbocom", now))
	require.NoError(t, err)
	require.False(t, inserted)

	count, err := store.Count(ctx, "")
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestBulkInsertAAB(t *testing.T) {
	t.Parallel()

	store := NewListingStore()
	now := time.Now()
	batch := []scrape.Listing{
		listing("fp-a", "fsbocom", now),
		listing("fp-a", "fsbocom", now),
		listing("fp-b", "fsbocom", now),
	}

	newCount, dupCount, err := store.BulkInsert(context.Background(), batch)
	require.NoError(t, err)
	require.Equal(t, 2, newCount)
	require.Equal(t, 1, dupCount)
}

func TestListFiltersAndOrder(t *testing.T) {
	t.Parallel()

	store := NewListingStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	_, err := store.Insert(ctx, listing("fp-1", "fsbocom", base))
	require.NoError(t, err)
	_, err = store.Insert(ctx, listing("fp-2", "craigslist", base.Add(time.Hour)))
	require.NoError(t, err)
	_, err = store.Insert(ctx, listing("fp-3", "fsbocom", base.Add(2*time.Hour)))
	require.NoError(t, err)

	all, err := store.List(ctx, scrape.ListingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	// Most recently scraped first.
	require.Equal(t, "fp-3", all[0].Fingerprint)
	require.Equal(t, "fp-1", all[2].Fingerprint)

	fsbo, err := store.List(ctx, scrape.ListingFilter{Source: "fsbocom"})
	require.NoError(t, err)
	require.Len(t, fsbo, 2)

	paged, err := store.List(ctx, scrape.ListingFilter{Limit: 1, Offset: 1})
	require.NoError(t, err)
	require.Len(t, paged, 1)
	require.Equal(t, "fp-2", paged[0].Fingerprint)
}

func TestMarkExportedAndFilter(t *testing.T) {
	t.Parallel()

	store := NewListingStore()
	ctx := context.Background()
	now := time.Now()
	stale := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

	first := listing("fp-1", "fsbocom", now)
	first.LastUpdated = stale
	_, err := store.Insert(ctx, first)
	require.NoError(t, err)
	_, err = store.Insert(ctx, listing("fp-2", "fsbocom", now))
	require.NoError(t, err)

	all, err := store.List(ctx, scrape.ListingFilter{})
	require.NoError(t, err)
	require.NoError(t, store.MarkExported(ctx, []int64{all[0].ID}))

	exported := true
	got, err := store.List(ctx, scrape.ListingFilter{Exported: &exported})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, all[0].ID, got[0].ID)
	// Marking also refreshes last_updated, like the Postgres store.
	require.True(t, got[0].LastUpdated.After(stale))

	notExported := false
	got, err = store.List(ctx, scrape.ListingFilter{Exported: &notExported})
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestClearAll(t *testing.T) {
	t.Parallel()

	store := NewListingStore()
	ctx := context.Background()

	_, err := store.Insert(ctx, listing("fp-1", "fsbocom", time.Now()))
	require.NoError(t, err)
	require.NoError(t, store.ClearAll(ctx))

	count, err := store.Count(ctx, "")
	require.NoError(t, err)
	require.Zero(t, count)

	// Fingerprints are forgotten too; reinsert succeeds.
	inserted, err := store.Insert(ctx, listing("fp-1", "fsbocom", time.Now()))
	require.NoError(t, err)
	require.True(t, inserted)
}

func TestSessionHistoryNewestFirst(t *testing.T) {
	t.Parallel()

	store := NewSessionStore()
	ctx := context.Background()
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		_, err := store.Record(ctx, scrape.Session{
			SourceWebsite: "fsbocom",
			ScrapeStart:   base.Add(time.Duration(i) * time.Hour),
			Status:        scrape.SessionCompleted,
		})
		require.NoError(t, err)
	}

	history, err := store.History(ctx, "fsbocom", 2)
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.True(t, history[0].ScrapeStart.After(history[1].ScrapeStart))

	other, err := store.History(ctx, "craigslist", 10)
	require.NoError(t, err)
	require.Empty(t, other)
}

func TestBlobStorePut(t *testing.T) {
	t.Parallel()

	store := NewBlobStore()
	uri, err := store.PutObject(context.Background(), "archive/fsbocom/abc.html", "text/html", []byte("<html/>"))
	require.NoError(t, err)
	require.Equal(t, "mem://archive/fsbocom/abc.html", uri)

	data, ok := store.Get("archive/fsbocom/abc.html")
	require.True(t, ok)
	require.Equal(t, []byte("<html/>"), data)
	require.Equal(t, 1, store.Len())
}

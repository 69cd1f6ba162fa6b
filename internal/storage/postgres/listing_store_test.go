package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

func testListing(fingerprint string) scrape.Listing {
	now := time.Unix(1700000000, 0).UTC()
	return scrape.Listing{
		Street:        "123 Main St",
		City:          "Springfield",
		State:         "IL",
		Zip:           "62701",
		ListingURL:    "https://fsbo.com/1",
		SourceWebsite: "fsbocom",
		ScrapedAt:     now,
		LastUpdated:   now,
		Fingerprint:   fingerprint,
	}
}

func expectInsert(mock pgxmock.PgxPoolIface, l scrape.Listing, rowsAffected int64) {
	mock.ExpectExec("INSERT INTO listings").
		WithArgs(
			l.Street, l.City, l.State, l.Zip, l.ListingURL, l.SourceWebsite,
			l.ScrapedAt, l.LastUpdated, l.Fingerprint, l.IsExported, l.Notes,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", rowsAffected))
}

func TestInsertNewListing(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewListingStoreWithPool(mock)
	require.NoError(t, err)

	l := testListing("fp-1")
	expectInsert(mock, l, 1)

	inserted, err := store.Insert(context.Background(), l)
	require.NoError(t, err)
	require.True(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDuplicateIsNotAnError(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewListingStoreWithPool(mock)
	require.NoError(t, err)

	l := testListing("fp-1")
	// ON CONFLICT DO NOTHING affects zero rows for a duplicate.
	expectInsert(mock, l, 0)

	inserted, err := store.Insert(context.Background(), l)
	require.NoError(t, err)
	require.False(t, inserted)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertCountsNewAndDuplicates(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewListingStoreWithPool(mock)
	require.NoError(t, err)

	a1 := testListing("fp-a")
	a2 := testListing("fp-a")
	b := testListing("fp-b")

	expectInsert(mock, a1, 1)
	expectInsert(mock, a2, 0)
	expectInsert(mock, b, 1)

	newCount, dupCount, err := store.BulkInsert(context.Background(), []scrape.Listing{a1, a2, b})
	require.NoError(t, err)
	require.Equal(t, 2, newCount)
	require.Equal(t, 1, dupCount)
	require.NoError(t, mock.ExpectationsWereMet())
}

func listingRows(listings ...scrape.Listing) *pgxmock.Rows {
	rows := pgxmock.NewRows([]string{
		"id", "street", "city", "state", "zip_code", "listing_url",
		"source_website", "scraped_at", "last_updated", "fingerprint",
		"is_exported", "notes",
	})
	for i, l := range listings {
		rows.AddRow(
			int64(i+1), l.Street, l.City, l.State, l.Zip, l.ListingURL,
			l.SourceWebsite, l.ScrapedAt, l.LastUpdated, l.Fingerprint,
			l.IsExported, l.Notes,
		)
	}
	return rows
}

func TestListWithFilters(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewListingStoreWithPool(mock)
	require.NoError(t, err)

	exported := false
	mock.ExpectQuery("SELECT (.+) FROM listings WHERE source_website = \\$1 AND is_exported = \\$2 ORDER BY scraped_at DESC LIMIT \\$3").
		WithArgs("fsbocom", false, 10).
		WillReturnRows(listingRows(testListing("fp-1")))

	got, err := store.List(context.Background(), scrape.ListingFilter{
		Source:   "fsbocom",
		Exported: &exported,
		Limit:    10,
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "123 Main St", got[0].Street)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCount(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewListingStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM listings WHERE source_website = \\$1").
		WithArgs("craigslist").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(42))

	count, err := store.Count(context.Background(), "craigslist")
	require.NoError(t, err)
	require.Equal(t, 42, count)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkExported(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewListingStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectExec("UPDATE listings SET is_exported = TRUE").
		WithArgs([]int64{1, 2, 3}).
		WillReturnResult(pgxmock.NewResult("UPDATE", 3))

	require.NoError(t, store.MarkExported(context.Background(), []int64{1, 2, 3}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkExportedEmptyIsNoop(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewListingStoreWithPool(mock)
	require.NoError(t, err)

	require.NoError(t, store.MarkExported(context.Background(), nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClearAll(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewListingStoreWithPool(mock)
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM listings").
		WillReturnResult(pgxmock.NewResult("DELETE", 10))

	require.NoError(t, store.ClearAll(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}

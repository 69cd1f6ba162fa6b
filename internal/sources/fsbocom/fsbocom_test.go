package fsbocom

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

// fakeFetcher serves canned bodies keyed by URL.
type fakeFetcher struct {
	pages map[string]string
	calls []string
}

func (f *fakeFetcher) Fetch(_ context.Context, req scrape.FetchRequest) (scrape.FetchResponse, error) {
	f.calls = append(f.calls, req.URL)
	body, ok := f.pages[req.URL]
	if !ok {
		return scrape.FetchResponse{}, &scrape.StatusError{Code: 404, URL: req.URL}
	}
	return scrape.FetchResponse{URL: req.URL, StatusCode: 200, Body: []byte(body)}, nil
}

func searchPage(ids ...string) string {
	page := "<html><body>"
	for _, id := range ids {
		page += fmt.Sprintf(`<a href="/listings/listings/show/id/%s/">listing</a>`, id)
	}
	return page + "</body></html>"
}

func TestDiscoverCollectsUniqueIDs(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://fsbo.com": searchPage("546971", "546964", "546971"),
	}}
	e := New(f, nil)

	targets, err := e.Discover(context.Background(), scrape.SourceConfig{MaxListings: 10})
	require.NoError(t, err)
	require.Len(t, targets, 2)
	require.Equal(t, "https://fsbo.com/listings/listings/show/id/546971/", targets[0].URL)
	require.Equal(t, "https://fsbo.com/listings/listings/show/id/546964/", targets[1].URL)
}

func TestDiscoverHonorsMaxListings(t *testing.T) {
	t.Parallel()

	f := &fakeFetcher{pages: map[string]string{
		"https://fsbo.com": searchPage("1", "2", "3", "4", "5"),
	}}
	e := New(f, nil)

	targets, err := e.Discover(context.Background(), scrape.SourceConfig{MaxListings: 3})
	require.NoError(t, err)
	require.Len(t, targets, 3)
}

func TestDiscoverPaginatesSearchResults(t *testing.T) {
	t.Parallel()

	base := "https://fsbo.com/search/results?region=fl"
	f := &fakeFetcher{pages: map[string]string{
		base:           searchPage("101", "102"),
		base + "&p=2": searchPage("103"),
		base + "&p=3": searchPage(), // no new ids ends pagination
	}}
	e := New(f, nil)

	targets, err := e.Discover(context.Background(), scrape.SourceConfig{
		MaxListings: 50,
		StartURLs:   []string{base},
	})
	require.NoError(t, err)
	require.Len(t, targets, 3)
	require.Equal(t, []string{base, base + "&p=2", base + "&p=3"}, f.calls)
}

func TestDiscoverUsesHeadlessFetcherWhenConfigured(t *testing.T) {
	t.Parallel()

	plain := &fakeFetcher{pages: map[string]string{}}
	headless := &fakeFetcher{pages: map[string]string{
		"https://fsbo.com": searchPage("546971"),
	}}
	e := New(plain, headless)

	targets, err := e.Discover(context.Background(), scrape.SourceConfig{UseHeadless: true})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, []string{"https://fsbo.com"}, headless.calls)
	require.Empty(t, plain.calls)
}

func TestDiscoverIgnoresNilHeadlessFetcher(t *testing.T) {
	t.Parallel()

	plain := &fakeFetcher{pages: map[string]string{
		"https://fsbo.com": searchPage("546971"),
	}}
	e := New(plain, nil)

	targets, err := e.Discover(context.Background(), scrape.SourceConfig{UseHeadless: true})
	require.NoError(t, err)
	require.Len(t, targets, 1)
	require.Equal(t, []string{"https://fsbo.com"}, plain.calls)
}

func TestDiscoverFirstPageFailureIsFatal(t *testing.T) {
	t.Parallel()

	e := New(&fakeFetcher{pages: map[string]string{}}, nil)
	_, err := e.Discover(context.Background(), scrape.SourceConfig{})
	require.Error(t, err)
}

const detailPage = `<html><body>
<div class="summary">3 bd | 2 ba | 1,800 sqft</div>
<span class="address">700 NE 26th Terr #804Miami, FL 33137</span>
</body></html>`

func TestExtractAddressSpan(t *testing.T) {
	t.Parallel()

	e := New(&fakeFetcher{}, nil)
	target := scrape.Target{URL: "https://fsbo.com/listings/listings/show/id/546971/"}

	got, err := e.Extract([]byte(detailPage), target)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "700 NE 26th Terr #804", got[0].Street)
	require.Equal(t, "Miami", got[0].City)
	require.Equal(t, "FL", got[0].State)
	require.Equal(t, "33137", got[0].Zip)
	require.Equal(t, target.URL, got[0].ListingURL)
}

func TestExtractSkipsPagesWithoutBedBath(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<span class="address">700 NE 26th Terr #804Miami, FL 33137</span>
<p>5 acre vacant lot</p>
</body></html>`

	e := New(&fakeFetcher{}, nil)
	got, err := e.Extract([]byte(page), scrape.Target{URL: "https://fsbo.com/x"})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestExtractBreadcrumbFallback(t *testing.T) {
	t.Parallel()

	page := `<html><body>
<p>2 bed 1 bath bungalow near 33137</p>
<div class="row breadcrumbs">Home &gt; FL &gt; Miami &gt; 700 NE 26th Terr #804</div>
</body></html>`

	e := New(&fakeFetcher{}, nil)
	got, err := e.Extract([]byte(page), scrape.Target{URL: "https://fsbo.com/x"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "700 NE 26th Terr #804", got[0].Street)
	require.Equal(t, "Miami", got[0].City)
	require.Equal(t, "FL", got[0].State)
	require.Equal(t, "33137", got[0].Zip)
}

func TestExtractNoAddressYieldsNothing(t *testing.T) {
	t.Parallel()

	page := `<html><body><p>3 bed 2 bath home, call for details</p></body></html>`
	e := New(&fakeFetcher{}, nil)
	got, err := e.Extract([]byte(page), scrape.Target{URL: "https://fsbo.com/x"})
	require.NoError(t, err)
	require.Empty(t, got)
}

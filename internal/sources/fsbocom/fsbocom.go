// Package fsbocom scrapes FSBO.com listing detail pages.
package fsbocom

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/openlistings/fsbo-harvester/internal/normalize"
	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

// SourceID identifies this source in the registry, config and database.
const SourceID = "fsbocom"

const baseURL = "https://fsbo.com"

// hardPageCeiling bounds search-result pagination regardless of config.
const hardPageCeiling = 20

var (
	listingIDRe = regexp.MustCompile(`/listings/listings/show/id/(\d+)/`)
	// Detail pages render the address as one run-together span:
	// "700 NE 26th Terr #804Miami, FL 33137".
	addressSpanRe = regexp.MustCompile(`(.*?)\s*([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*),\s*([A-Z]{2})\s*(\d{5})`)
	bedRe         = regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(bd|bed|beds)\b`)
	bathRe        = regexp.MustCompile(`\b\d+(?:\.\d+)?\s*(ba|bath|baths)\b`)
)

// Extractor implements scrape.Extractor for FSBO.com. Discovery walks the
// paginated search results collecting listing IDs; extraction parses one
// detail page per target.
type Extractor struct {
	fetcher  scrape.Fetcher
	headless scrape.Fetcher
}

// New creates the FSBO.com extractor. Discovery fetches through fetcher by
// default and through headless when the source config says so; headless may
// be nil.
func New(fetcher, headless scrape.Fetcher) *Extractor {
	return &Extractor{fetcher: fetcher, headless: headless}
}

// Source returns the registry identifier.
func (e *Extractor) Source() string { return SourceID }

// Discover walks each configured start URL's pagination and returns one
// target per unique listing ID, capped by MaxListings and the page ceiling.
func (e *Extractor) Discover(ctx context.Context, cfg scrape.SourceConfig) ([]scrape.Target, error) {
	maxListings := cfg.MaxListings
	if maxListings <= 0 {
		maxListings = 50
	}
	maxPages := cfg.MaxPages
	if maxPages <= 0 || maxPages > hardPageCeiling {
		maxPages = hardPageCeiling
	}
	startURLs := cfg.StartURLs
	if len(startURLs) == 0 {
		startURLs = []string{baseURL}
	}

	seen := make(map[string]struct{})
	var ids []string
	for _, startURL := range startURLs {
		if len(ids) >= maxListings {
			break
		}
		found, err := e.collectIDs(ctx, startURL, cfg, maxListings-len(ids), maxPages, seen)
		if err != nil {
			return nil, fmt.Errorf("discover %s: %w", startURL, err)
		}
		ids = append(ids, found...)
	}

	targets := make([]scrape.Target, 0, len(ids))
	for _, id := range ids {
		targets = append(targets, scrape.Target{
			URL:         fmt.Sprintf("%s/listings/listings/show/id/%s/", baseURL, id),
			UseHeadless: false,
		})
	}
	zap.L().Info("discovered fsbo.com listings",
		zap.Int("targets", len(targets)),
		zap.Int("start_urls", len(startURLs)),
	)
	return targets, nil
}

// collectIDs pages through one search URL until no new IDs appear, the cap
// is hit, or the page ceiling stops it.
func (e *Extractor) collectIDs(
	ctx context.Context,
	startURL string,
	cfg scrape.SourceConfig,
	remaining, maxPages int,
	seen map[string]struct{},
) ([]string, error) {
	var ids []string
	paginated := strings.Contains(startURL, "search/results")
	fetcher := e.fetcher
	if cfg.UseHeadless && e.headless != nil {
		fetcher = e.headless
	}
	for page := 1; page <= maxPages && len(ids) < remaining; page++ {
		resp, err := fetcher.Fetch(ctx, scrape.FetchRequest{
			URL:         pageURL(startURL, page),
			UseHeadless: cfg.UseHeadless,
		})
		if err != nil {
			if page == 1 {
				return nil, err
			}
			zap.L().Warn("pagination fetch failed, stopping",
				zap.String("url", startURL),
				zap.Int("page", page),
				zap.Error(err),
			)
			break
		}

		found := 0
		for _, m := range listingIDRe.FindAllStringSubmatch(string(resp.Body), -1) {
			id := m[1]
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			ids = append(ids, id)
			found++
			if len(ids) >= remaining {
				break
			}
		}
		if found == 0 || !paginated {
			break
		}
	}
	return ids, nil
}

// pageURL appends the page number to paginated search URLs; page 1 and
// non-search pages keep the original URL.
func pageURL(startURL string, page int) string {
	if page == 1 || !strings.Contains(startURL, "search/results") {
		return startURL
	}
	sep := "?"
	if strings.Contains(startURL, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sp=%d", startURL, sep, page)
}

// Extract parses a single listing detail page. Pages without bed and bath
// indicators are skipped: they are land or commercial lots, not homes.
func (e *Extractor) Extract(content []byte, target scrape.Target) ([]scrape.RawCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse listing page: %w", err)
	}

	pageText := strings.ToLower(strings.Join(strings.Fields(doc.Text()), " "))
	if !bedRe.MatchString(pageText) || !bathRe.MatchString(pageText) {
		return nil, nil
	}

	if c, ok := fromAddressSpan(doc); ok {
		c.ListingURL = target.URL
		return []scrape.RawCandidate{c}, nil
	}
	if c, ok := fromBreadcrumb(doc); ok {
		c.ListingURL = target.URL
		return []scrape.RawCandidate{c}, nil
	}
	zap.L().Debug("no address found on listing page", zap.String("url", target.URL))
	return nil, nil
}

func fromAddressSpan(doc *goquery.Document) (scrape.RawCandidate, bool) {
	span := doc.Find("span.address").First()
	if span.Length() == 0 {
		return scrape.RawCandidate{}, false
	}
	m := addressSpanRe.FindStringSubmatch(strings.TrimSpace(span.Text()))
	if m == nil {
		return scrape.RawCandidate{}, false
	}
	return scrape.RawCandidate{
		Street: strings.TrimSpace(m[1]),
		City:   strings.TrimSpace(m[2]),
		State:  m[3],
		Zip:    m[4],
	}, true
}

// fromBreadcrumb falls back to the "Home>FL>Miami>700 NE 26th Terr" trail,
// pulling the ZIP from anywhere in the page text.
func fromBreadcrumb(doc *goquery.Document) (scrape.RawCandidate, bool) {
	var c scrape.RawCandidate
	var found bool
	doc.Find("div[class*=row]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		text := strings.TrimSpace(sel.Text())
		if !strings.Contains(text, ">") {
			return true
		}
		parts := strings.Split(text, ">")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		if len(parts) < 4 {
			return true
		}
		c = scrape.RawCandidate{
			Street: parts[len(parts)-1],
			City:   parts[len(parts)-2],
			State:  parts[len(parts)-3],
			Zip:    normalize.ExtractZip(doc.Text()),
		}
		found = true
		return false
	})
	return c, found
}

// Package craigslist scrapes by-owner housing results from Craigslist metro
// search pages. Craigslist renders results client-side, so targets are
// fetched headless.
package craigslist

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

// SourceID identifies this source in the registry, config and database.
const SourceID = "craigslist"

// defaultMetros are the major-market subdomains searched when the config
// does not name its own start URLs.
var defaultMetros = []string{
	"newyork", "losangeles", "chicago", "dallas", "houston",
	"sfbay", "seattle", "boston", "miami", "phoenix",
}

// resultSelectors are tried in order; Craigslist has shipped several result
// markups and older metros still serve the legacy one.
var resultSelectors = []string{
	"li.result-row",
	"[data-pid]",
	"article",
	`div[role="article"]`,
	".cl-search-result",
}

var (
	zip5Re       = regexp.MustCompile(`\b(\d{5})\b`)
	stateTokenRe = regexp.MustCompile(`\b([A-Z]{2})\b`)
)

// Extractor implements scrape.Extractor for Craigslist housing searches.
type Extractor struct{}

// New creates the Craigslist extractor. Discovery is purely computed from
// config, so no fetcher is needed here.
func New() *Extractor {
	return &Extractor{}
}

// Source returns the registry identifier.
func (e *Extractor) Source() string { return SourceID }

// Discover returns one headless search target per metro. MaxPages caps the
// metro count since each metro is one search page.
func (e *Extractor) Discover(_ context.Context, cfg scrape.SourceConfig) ([]scrape.Target, error) {
	urls := cfg.StartURLs
	if len(urls) == 0 {
		urls = make([]string, 0, len(defaultMetros))
		for _, metro := range defaultMetros {
			urls = append(urls, fmt.Sprintf("https://%s.craigslist.org/search/sss?query=house", metro))
		}
	}
	if cfg.MaxPages > 0 && len(urls) > cfg.MaxPages {
		urls = urls[:cfg.MaxPages]
	}

	targets := make([]scrape.Target, 0, len(urls))
	for _, u := range urls {
		targets = append(targets, scrape.Target{URL: u, UseHeadless: true})
	}
	zap.L().Info("discovered craigslist searches", zap.Int("targets", len(targets)))
	return targets, nil
}

// Extract walks a search-result page and parses each result title as an
// address. Titles without a street part produce no candidate.
func (e *Extractor) Extract(content []byte, target scrape.Target) ([]scrape.RawCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var results *goquery.Selection
	for _, selector := range resultSelectors {
		results = doc.Find(selector)
		if results.Length() > 0 {
			break
		}
	}
	if results == nil || results.Length() == 0 {
		return nil, nil
	}

	var candidates []scrape.RawCandidate
	results.Each(func(_ int, result *goquery.Selection) {
		title := findTitle(result)
		if title == "" {
			return
		}
		c := parseTitleAddress(title)
		if c.Street == "" {
			return
		}
		c.ListingURL = listingURL(result)
		candidates = append(candidates, c)
	})
	return candidates, nil
}

// findTitle tries the known title elements in order of specificity.
func findTitle(result *goquery.Selection) string {
	for _, selector := range []string{"span.result-title", "a.result-title", "h2", "h3", "a"} {
		if sel := result.Find(selector).First(); sel.Length() > 0 {
			if text := strings.TrimSpace(sel.Text()); text != "" {
				return text
			}
		}
	}
	return ""
}

func listingURL(result *goquery.Selection) string {
	href, ok := result.Find("a[href]").First().Attr("href")
	if !ok || href == "" {
		return ""
	}
	if !strings.HasPrefix(href, "http") {
		return "https://craigslist.org" + href
	}
	return href
}

// parseTitleAddress pulls best-effort address parts out of a listing title,
// usually "Street, City" plus an optional state token and ZIP anywhere.
func parseTitleAddress(title string) scrape.RawCandidate {
	var c scrape.RawCandidate

	if m := zip5Re.FindStringSubmatch(title); m != nil {
		c.Zip = m[1]
	}
	if m := stateTokenRe.FindStringSubmatch(title); m != nil {
		c.State = m[1]
	}

	parts := strings.Split(title, ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	c.Street = parts[0]
	if len(parts) >= 2 {
		c.City = parts[1]
	}
	return c
}

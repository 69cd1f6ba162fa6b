package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"go.uber.org/zap"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

// Strategy extracts zero or more raw candidates from a parsed page. Site
// fragility lives here: each strategy is a self-contained guess about where
// a page keeps its addresses.
type Strategy interface {
	Name() string
	Apply(doc *goquery.Document) []scrape.RawCandidate
}

// Cascade runs strategies in priority order and returns the first non-empty
// result. Pages matching no strategy yield an empty slice, not an error.
func Cascade(content []byte, strategies ...Strategy) ([]scrape.RawCandidate, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	for _, s := range strategies {
		if candidates := s.Apply(doc); len(candidates) > 0 {
			zap.L().Debug("extraction strategy matched",
				zap.String("strategy", s.Name()),
				zap.Int("candidates", len(candidates)),
			)
			return candidates, nil
		}
	}
	return nil, nil
}

// JSONLD pulls schema.org PostalAddress blocks out of ld+json scripts. It is
// the highest-priority strategy because structured data is the least fragile.
type JSONLD struct{}

func (JSONLD) Name() string { return "json-ld" }

func (JSONLD) Apply(doc *goquery.Document) []scrape.RawCandidate {
	var candidates []scrape.RawCandidate
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var payload any
		if err := json.Unmarshal([]byte(sel.Text()), &payload); err != nil {
			return
		}
		candidates = append(candidates, addressesFromJSON(payload)...)
	})
	return candidates
}

// addressesFromJSON walks arbitrarily nested JSON-LD looking for objects with
// a streetAddress field.
func addressesFromJSON(node any) []scrape.RawCandidate {
	var out []scrape.RawCandidate
	switch v := node.(type) {
	case map[string]any:
		if street, ok := v["streetAddress"].(string); ok && street != "" {
			out = append(out, scrape.RawCandidate{
				Street: street,
				City:   jsonString(v, "addressLocality"),
				State:  jsonString(v, "addressRegion"),
				Zip:    jsonString(v, "postalCode"),
			})
			return out
		}
		for _, child := range v {
			out = append(out, addressesFromJSON(child)...)
		}
	case []any:
		for _, child := range v {
			out = append(out, addressesFromJSON(child)...)
		}
	}
	return out
}

func jsonString(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

// CSSRegions tries a list of selectors known to hold address text on a given
// site and parses each match as an address line.
type CSSRegions struct {
	Selectors []string
}

func (CSSRegions) Name() string { return "css-regions" }

func (s CSSRegions) Apply(doc *goquery.Document) []scrape.RawCandidate {
	var candidates []scrape.RawCandidate
	for _, selector := range s.Selectors {
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			text := strings.TrimSpace(sel.Text())
			if text == "" || !IsLikelyAddress(text) {
				return
			}
			if c := ParseAddressLine(text); c.Street != "" {
				candidates = append(candidates, c)
			}
		})
		if len(candidates) > 0 {
			return candidates
		}
	}
	return candidates
}

// ZipScan is the last resort: walk short text blocks anywhere on the page and
// keep the ones anchored by a ZIP code.
type ZipScan struct{}

func (ZipScan) Name() string { return "zip-scan" }

// maxScanBlock filters out prose; address lines are short.
const maxScanBlock = 120

func (ZipScan) Apply(doc *goquery.Document) []scrape.RawCandidate {
	var candidates []scrape.RawCandidate
	seen := make(map[string]struct{})
	doc.Find("p, li, td, span, div, h1, h2, h3, h4, a").Each(func(_ int, sel *goquery.Selection) {
		if sel.Children().Length() > 0 {
			return
		}
		text := strings.Join(strings.Fields(sel.Text()), " ")
		if text == "" || len(text) > maxScanBlock || !IsLikelyAddress(text) {
			return
		}
		if _, dup := seen[text]; dup {
			return
		}
		seen[text] = struct{}{}
		if c := ParseAddressLine(text); c.Street != "" && c.Zip != "" {
			candidates = append(candidates, c)
		}
	})
	return candidates
}

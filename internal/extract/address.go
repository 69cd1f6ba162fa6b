// Package extract holds the source-agnostic HTML and free-text parsing
// helpers that concrete source extractors compose: address-line parsing and
// an ordered cascade of markup extraction strategies.
package extract

import (
	"regexp"
	"strings"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

var (
	zip5Re         = regexp.MustCompile(`\b(\d{5})(?:-\d{4})?\b`)
	stateTokenRe   = regexp.MustCompile(`\b([A-Z]{2})\b`)
	streetNumberRe = regexp.MustCompile(`\b\d{1,5}\b`)
	partSplitRe    = regexp.MustCompile(`[,/\n]`)
)

// ParseAddressLine splits a single address line into best-effort components.
// Handled shapes:
//
//	123 Main St, Springfield, IL 62701
//	123 Main St\nSpringfield, IL 62701
//	123 Main St / Springfield / IL / 62701
//	123 Main St, Springfield IL 62701
//
// Any component may come back empty; validation happens downstream.
func ParseAddressLine(line string) scrape.RawCandidate {
	var c scrape.RawCandidate

	if m := zip5Re.FindStringSubmatch(line); m != nil {
		c.Zip = m[1]
	}

	parts := splitParts(line)
	if len(parts) == 0 {
		return c
	}
	c.Street = parts[0]
	if len(parts) < 2 {
		return c
	}

	for i, part := range parts[1:] {
		m := stateTokenRe.FindStringSubmatch(part)
		if m == nil {
			continue
		}
		c.State = m[1]
		if i > 0 {
			c.City = parts[1]
		} else {
			// "Springfield IL 62701" keeps city and state in one part.
			c.City = cityBefore(part, m[1])
		}
		return c
	}
	c.City = parts[1]
	return c
}

// IsLikelyAddress reports whether free text plausibly contains a street
// address: it needs both a street number and a 5-digit ZIP.
func IsLikelyAddress(text string) bool {
	return streetNumberRe.MatchString(text) && zip5Re.MatchString(text)
}

func splitParts(line string) []string {
	raw := partSplitRe.Split(line, -1)
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// cityBefore returns the text preceding the state token, trimmed; empty when
// the part starts with the state.
func cityBefore(part, state string) string {
	idx := strings.Index(part, state)
	if idx <= 0 {
		return ""
	}
	return strings.TrimSpace(part[:idx])
}

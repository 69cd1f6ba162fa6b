// Package normalize standardizes scraped US address components so that
// variants of the same address (case, whitespace, spelled-out street types)
// collapse to a single canonical form before fingerprinting.
package normalize

import (
	"regexp"
	"strings"
	"unicode"
)

// stateAbbrev maps lowercased full state names (plus DC) to USPS codes.
var stateAbbrev = map[string]string{
	"alabama": "AL", "alaska": "AK", "arizona": "AZ", "arkansas": "AR",
	"california": "CA", "colorado": "CO", "connecticut": "CT", "delaware": "DE",
	"florida": "FL", "georgia": "GA", "hawaii": "HI", "idaho": "ID",
	"illinois": "IL", "indiana": "IN", "iowa": "IA", "kansas": "KS",
	"kentucky": "KY", "louisiana": "LA", "maine": "ME", "maryland": "MD",
	"massachusetts": "MA", "michigan": "MI", "minnesota": "MN", "mississippi": "MS",
	"missouri": "MO", "montana": "MT", "nebraska": "NE", "nevada": "NV",
	"new hampshire": "NH", "new jersey": "NJ", "new mexico": "NM", "new york": "NY",
	"north carolina": "NC", "north dakota": "ND", "ohio": "OH", "oklahoma": "OK",
	"oregon": "OR", "pennsylvania": "PA", "rhode island": "RI", "south carolina": "SC",
	"south dakota": "SD", "tennessee": "TN", "texas": "TX", "utah": "UT",
	"vermont": "VT", "virginia": "VA", "washington": "WA", "west virginia": "WV",
	"wisconsin": "WI", "wyoming": "WY", "district of columbia": "DC",
}

// streetTypes maps lowercased street-type words (full and already-abbreviated
// forms) to their USPS abbreviation.
var streetTypes = map[string]string{
	"street": "St", "st": "St", "avenue": "Ave", "ave": "Ave",
	"road": "Rd", "rd": "Rd", "drive": "Dr", "dr": "Dr",
	"boulevard": "Blvd", "blvd": "Blvd", "court": "Ct", "ct": "Ct",
	"lane": "Ln", "ln": "Ln", "way": "Way",
	"circle": "Cir", "cir": "Cir", "trail": "Trl", "trl": "Trl",
	"parkway": "Pkwy", "pkwy": "Pkwy", "plaza": "Plz", "plz": "Plz",
	"terrace": "Ter", "ter": "Ter", "highway": "Hwy", "hwy": "Hwy",
}

// directions maps compass-direction words (already title-cased by the street
// pass) to their single or double letter form.
var directions = map[string]string{
	"North": "N", "South": "S", "East": "E", "West": "W",
	"Northeast": "NE", "Northwest": "NW", "Southeast": "SE", "Southwest": "SW",
}

var (
	nonDigitRe = regexp.MustCompile(`\D`)
	zipRe      = regexp.MustCompile(`\b\d{5}(?:-\d{4})?\b`)
)

// Street canonicalizes a street line: collapses whitespace, title-cases each
// word, shortens compass directions to letters, and abbreviates street types
// (case-insensitively, on word boundaries).
func Street(street string) string {
	if street == "" {
		return ""
	}
	words := strings.Fields(street)
	for i, word := range words {
		word = titleWord(word)
		if dir, ok := directions[word]; ok {
			words[i] = dir
			continue
		}
		if abbrev, ok := streetTypes[strings.ToLower(word)]; ok {
			words[i] = abbrev
			continue
		}
		words[i] = word
	}
	return strings.Join(words, " ")
}

// City collapses whitespace and title-cases the city name.
func City(city string) string {
	if city == "" {
		return ""
	}
	words := strings.Fields(city)
	for i, word := range words {
		words[i] = titleWord(word)
	}
	return strings.Join(words, " ")
}

// State converts a state name or abbreviation to its USPS two-letter code.
// Unrecognized inputs are uppercased rather than rejected; scraped state
// fields are messy and a lenient pass keeps the listing rather than losing it.
func State(state string) string {
	state = strings.TrimSpace(state)
	if state == "" {
		return ""
	}
	if code, ok := stateAbbrev[strings.ToLower(state)]; ok {
		return code
	}
	return strings.ToUpper(state)
}

// Zip reduces a ZIP to its digits and formats ZIP+4 as "12345-6789".
// Anything with fewer than five digits is unusable and comes back empty.
func Zip(zip string) string {
	if zip == "" {
		return ""
	}
	digits := nonDigitRe.ReplaceAllString(zip, "")
	switch {
	case len(digits) >= 9:
		return digits[:5] + "-" + digits[5:9]
	case len(digits) == 5:
		return digits
	default:
		return ""
	}
}

// Address runs all four component normalizers.
func Address(street, city, state, zip string) (string, string, string, string) {
	return Street(street), City(city), State(state), Zip(zip)
}

// IsValidAddress reports whether every component survived normalization.
func IsValidAddress(street, city, state, zip string) bool {
	return street != "" && city != "" && state != "" && zip != ""
}

// FormatMailingLabel renders a two-line mailing label:
//
//	123 Main St
//	Springfield, IL 62701
func FormatMailingLabel(street, city, state, zip string) string {
	return street + "\n" + city + ", " + state + " " + zip
}

// ExtractZip finds the first 5-digit or ZIP+4 code in free text. It returns
// "" when no ZIP is present.
func ExtractZip(text string) string {
	return zipRe.FindString(text)
}

// titleWord uppercases the first rune of a word and lowercases the rest.
// Ordinals like "26th" keep their lowercase suffix.
func titleWord(word string) string {
	runes := []rune(strings.ToLower(word))
	if len(runes) > 0 {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}

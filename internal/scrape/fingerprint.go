package scrape

import (
	"crypto/md5" //nolint:gosec // dedup key, not a security boundary
	"encoding/hex"
	"strings"
)

// Fingerprint returns the stable dedup key for an address: the 128-bit MD5
// digest of lowercased street, city and state concatenated with the zip
// (zip is not case-folded; it is digits and an optional hyphen).
// Callers are expected to pass already-normalized components so that case
// and whitespace variants of the same address collapse to one key.
func Fingerprint(street, city, state, zip string) string {
	var b strings.Builder
	b.WriteString(strings.ToLower(street))
	b.WriteString(strings.ToLower(city))
	b.WriteString(strings.ToLower(state))
	b.WriteString(zip)
	sum := md5.Sum([]byte(b.String())) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

package extract

import (
	"testing"

	"github.com/stretchr/testify/require"
)

const jsonLDPage = `<html><head>
<script type="application/ld+json">
{
  "@type": "SingleFamilyResidence",
  "address": {
    "@type": "PostalAddress",
    "streetAddress": "123 Main St",
    "addressLocality": "Springfield",
    "addressRegion": "IL",
    "postalCode": "62701"
  }
}
</script>
</head><body><p>irrelevant</p></body></html>`

const cssPage = `<html><body>
<div class="listing-address">456 Oak Ave, Portland, OR 97201</div>
<div class="listing-address">not an address</div>
</body></html>`

const zipScanPage = `<html><body>
<p>Gorgeous three bedroom home in a quiet neighborhood with lots of light
and a big backyard, recently renovated kitchen.</p>
<li>789 Pine Rd, Austin, TX 78701</li>
<li>789 Pine Rd, Austin, TX 78701</li>
</body></html>`

func TestCascadeJSONLDWins(t *testing.T) {
	t.Parallel()

	got, err := Cascade([]byte(jsonLDPage), JSONLD{}, ZipScan{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "123 Main St", got[0].Street)
	require.Equal(t, "Springfield", got[0].City)
	require.Equal(t, "IL", got[0].State)
	require.Equal(t, "62701", got[0].Zip)
}

func TestCascadeFallsThroughToCSS(t *testing.T) {
	t.Parallel()

	got, err := Cascade([]byte(cssPage),
		JSONLD{},
		CSSRegions{Selectors: []string{".listing-address"}},
	)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "456 Oak Ave", got[0].Street)
	require.Equal(t, "Portland", got[0].City)
	require.Equal(t, "OR", got[0].State)
}

func TestCascadeZipScanLastResort(t *testing.T) {
	t.Parallel()

	got, err := Cascade([]byte(zipScanPage),
		JSONLD{},
		CSSRegions{Selectors: []string{".listing-address"}},
		ZipScan{},
	)
	require.NoError(t, err)
	// Identical blocks are deduplicated during the scan.
	require.Len(t, got, 1)
	require.Equal(t, "789 Pine Rd", got[0].Street)
	require.Equal(t, "78701", got[0].Zip)
}

func TestCascadeNoMatchIsNotAnError(t *testing.T) {
	t.Parallel()

	got, err := Cascade([]byte("<html><body><p>nothing here</p></body></html>"),
		JSONLD{}, ZipScan{})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestJSONLDIgnoresMalformedScript(t *testing.T) {
	t.Parallel()

	page := `<html><head><script type="application/ld+json">{not json</script></head></html>`
	got, err := Cascade([]byte(page), JSONLD{})
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestJSONLDHandlesArrays(t *testing.T) {
	t.Parallel()

	page := `<html><head><script type="application/ld+json">
[
  {"address": {"streetAddress": "1 First St", "addressLocality": "Boise", "addressRegion": "ID", "postalCode": "83702"}},
  {"address": {"streetAddress": "2 Second St", "addressLocality": "Boise", "addressRegion": "ID", "postalCode": "83702"}}
]
</script></head></html>`
	got, err := Cascade([]byte(page), JSONLD{})
	require.NoError(t, err)
	require.Len(t, got, 2)
}

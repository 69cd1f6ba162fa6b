package extract

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

func TestParseAddressLine(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		in   string
		want scrape.RawCandidate
	}{
		{
			name: "comma separated",
			in:   "123 Main St, Springfield, IL 62701",
			want: scrape.RawCandidate{Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		},
		{
			name: "newline separated",
			in:   "123 Main St\nSpringfield, IL 62701",
			want: scrape.RawCandidate{Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		},
		{
			name: "slash separated",
			in:   "123 Main St / Springfield / IL / 62701",
			want: scrape.RawCandidate{Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		},
		{
			name: "city and state in one part",
			in:   "123 Main St, Springfield IL 62701",
			want: scrape.RawCandidate{Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		},
		{
			name: "zip plus four keeps five",
			in:   "123 Main St, Springfield, IL 62701-1234",
			want: scrape.RawCandidate{Street: "123 Main St", City: "Springfield", State: "IL", Zip: "62701"},
		},
		{
			name: "no state",
			in:   "123 Main St, Springfield",
			want: scrape.RawCandidate{Street: "123 Main St", City: "Springfield"},
		},
		{
			name: "street only",
			in:   "123 Main St",
			want: scrape.RawCandidate{Street: "123 Main St"},
		},
		{
			name: "empty",
			in:   "",
			want: scrape.RawCandidate{},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tc.want, ParseAddressLine(tc.in))
		})
	}
}

func TestIsLikelyAddress(t *testing.T) {
	t.Parallel()

	require.True(t, IsLikelyAddress("123 Main St, Springfield, IL 62701"))
	require.False(t, IsLikelyAddress("Beautiful home with mountain views"))
	require.False(t, IsLikelyAddress("call 555-0100 today"))
}

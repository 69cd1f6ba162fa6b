// Package export writes listing snapshots to mailing-list files. Export is
// read-only with respect to the listing store: callers decide separately
// whether to mark rows as exported.
package export

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

var columns = []string{
	"id",
	"street",
	"city",
	"state",
	"zip_code",
	"listing_url",
	"source_website",
	"scraped_at",
}

func row(l scrape.Listing) []string {
	return []string{
		strconv.FormatInt(l.ID, 10),
		l.Street,
		l.City,
		l.State,
		l.Zip,
		l.ListingURL,
		l.SourceWebsite,
		l.ScrapedAt.Format(time.RFC3339),
	}
}

// WriteCSV writes the listings to path with a header row. An empty listing
// set produces no file.
func WriteCSV(path string, listings []scrape.Listing) error {
	if len(listings) == 0 {
		zap.L().Warn("no listings to export, skipping file", zap.String("path", path))
		return nil
	}

	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, listing := range listings {
		if err := writer.Write(row(listing)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}

	zap.L().Info("exported listings",
		zap.String("path", path),
		zap.Int("count", len(listings)),
	)
	return nil
}

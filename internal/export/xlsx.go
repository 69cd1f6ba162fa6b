package export

import (
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

const sheetName = "Listings"

// WriteXLSX writes the listings to an Excel workbook with a header row. An
// empty listing set produces no file.
func WriteXLSX(path string, listings []scrape.Listing) error {
	if len(listings) == 0 {
		zap.L().Warn("no listings to export, skipping file", zap.String("path", path))
		return nil
	}

	book := excelize.NewFile()
	defer book.Close()

	index, err := book.NewSheet(sheetName)
	if err != nil {
		return fmt.Errorf("create sheet: %w", err)
	}
	book.SetActiveSheet(index)
	if err := book.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("delete default sheet: %w", err)
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := book.SetSheetRow(sheetName, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, listing := range listings {
		cells := row(listing)
		values := make([]any, len(cells))
		for j, cell := range cells {
			values[j] = cell
		}
		axis := fmt.Sprintf("A%d", i+2)
		if err := book.SetSheetRow(sheetName, axis, &values); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := book.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}

	zap.L().Info("exported listings",
		zap.String("path", path),
		zap.Int("count", len(listings)),
	)
	return nil
}

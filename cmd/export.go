package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openlistings/fsbo-harvester/internal/export"
	"github.com/openlistings/fsbo-harvester/internal/scrape"
)

// newExportCmd creates the 'export' subcommand.
func newExportCmd() *cobra.Command {
	var (
		out          string
		format       string
		source       string
		pendingOnly  bool
		markExported bool
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Writes stored listings to a mailing-list file",
		Long: `Exports persisted listings to CSV or XLSX. Export itself never
changes store state; pass --mark-exported to flag the exported rows
afterwards.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			st, err := buildStores(ctx)
			if err != nil {
				return err
			}
			defer st.Close()

			if out == "" {
				out = cfg.Export.Path
			}
			if out == "" {
				return fmt.Errorf("no output path; set --out or export.path")
			}
			if format == "" {
				format = cfg.Export.Format
			}

			var exported *bool
			if pendingOnly {
				notYet := false
				exported = &notYet
			}

			if err := exportListings(ctx, st.listings, out, format, source, exported); err != nil {
				return err
			}
			if markExported {
				return markListingsExported(ctx, st.listings, source, exported)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "", "output file path (defaults to export.path)")
	cmd.Flags().StringVar(&format, "format", "", "csv or xlsx (defaults to export.format)")
	cmd.Flags().StringVar(&source, "source", "", "restrict to one source website")
	cmd.Flags().BoolVar(&pendingOnly, "pending-only", false, "export only listings not yet marked exported")
	cmd.Flags().BoolVar(&markExported, "mark-exported", false, "mark the exported listings after writing the file")

	return cmd
}

// exportListings fetches the matching listings and writes them in the
// requested format.
func exportListings(
	ctx context.Context,
	store scrape.ListingStore,
	path, format, source string,
	exported *bool,
) error {
	listings, err := store.List(ctx, scrape.ListingFilter{Source: source, Exported: exported})
	if err != nil {
		return fmt.Errorf("list listings: %w", err)
	}

	switch format {
	case "xlsx":
		return export.WriteXLSX(path, listings)
	case "csv", "":
		return export.WriteCSV(path, listings)
	default:
		return fmt.Errorf("unknown export format %q", format)
	}
}

func markListingsExported(
	ctx context.Context,
	store scrape.ListingStore,
	source string,
	exported *bool,
) error {
	listings, err := store.List(ctx, scrape.ListingFilter{Source: source, Exported: exported})
	if err != nil {
		return fmt.Errorf("list listings: %w", err)
	}
	ids := make([]int64, 0, len(listings))
	for _, l := range listings {
		ids = append(ids, l.ID)
	}
	if err := store.MarkExported(ctx, ids); err != nil {
		return fmt.Errorf("mark exported: %w", err)
	}
	zap.L().Info("marked listings exported", zap.Int("count", len(ids)))
	return nil
}

package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/scrape"
)

func newScrapeCmd(deps Deps) *cobra.Command {
	var req scrape.Request
	cmd := &cobra.Command{
		Use:   "scrape <id|info|price> (--all | --store tesco,iceland) [--live] [--exclusive keys | --exclude keys]",
		Short: "Scrape store websites and reconcile the results into the catalog.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req.Mode = args[0]
			// Reject bad input before any database is opened.
			if _, err := scrape.NewOptions(req); err != nil {
				return err
			}

			ctx := cmd.Context()
			a, err := deps.Open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			req.Available = a.Catalog.EnabledStores()
			opts, err := scrape.NewOptions(req)
			if err != nil {
				return err
			}
			orch, err := a.Orchestrator()
			if err != nil {
				return err
			}
			report, err := orch.Run(ctx, opts)
			printReport(cmd.OutOrStdout(), opts.Stores, report)
			return err
		},
	}
	f := cmd.Flags()
	f.BoolVar(&req.All, "all", false, "scrape every enabled store")
	f.StringSliceVar(&req.Stores, "store", nil, "stores to scrape, comma separated")
	f.BoolVar(&req.Live, "live", false, "run an info or price scrape against the live catalog")
	f.StringSliceVar(&req.Exclusive, "exclusive", nil, "info keys to scrape exclusively (description,brand,qty,nutrition,price,img)")
	f.StringSliceVar(&req.Exclude, "exclude", nil, "info keys to skip")
	cmd.MarkFlagsMutuallyExclusive("all", "store")
	cmd.MarkFlagsMutuallyExclusive("exclusive", "exclude")
	return cmd
}

// printReport writes one line per store in the order the stores ran. Stores
// a failed run never reached are left out.
func printReport(w io.Writer, stores []types.Store, report scrape.Report) {
	for _, store := range stores {
		if stats, ok := report.Stores[store]; ok {
			fmt.Fprintf(w, "%s: %+v\n", store, *stats)
		}
	}
}

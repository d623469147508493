package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Republish high-protein products from the primary catalog to the live one.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := deps.Open(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			syncer, err := a.Syncer()
			if err != nil {
				return err
			}
			report, err := syncer.Sync(ctx)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "live catalog: %d brands, %d products (%s)\n", report.Brands, report.Products, report.Took)
			return nil
		},
	}
}

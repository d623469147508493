package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

func newServeCmd(deps Deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog API and /metrics.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := deps.Open(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			srv := a.Server()
			g, ctx := errgroup.WithContext(cmd.Context())
			g.Go(func() error {
				a.Log.Info("HTTP server listening", "addr", a.Cfg.HTTPAddr, "catalog", a.Cfg.APICatalog)
				return srv.Run(ctx)
			})
			g.Go(func() error {
				<-ctx.Done()
				a.Log.Info("Shutting down HTTP server", "cause", context.Cause(ctx))
				return nil
			})
			return g.Wait()
		},
	}
}

// Package cli holds the frugal command tree.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/yungbote/frugalprotein-backend/internal/app"
)

// Deps lets tests replace process wiring.
type Deps struct {
	Open func(ctx context.Context) (*app.App, error)
}

func NewRootCmd(deps Deps) *cobra.Command {
	if deps.Open == nil {
		deps.Open = app.New
	}
	root := &cobra.Command{
		Use:           "frugal",
		Short:         "Grocery price comparison backend: scrape, reconcile, publish, serve.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newScrapeCmd(deps), newSyncCmd(deps), newServeCmd(deps))
	return root
}

package cli

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/yungbote/frugalprotein-backend/internal/app"
	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/scrape"
)

var errOpened = errors.New("app opened")

func run(t *testing.T, args ...string) error {
	t.Helper()
	root := NewRootCmd(Deps{Open: func(context.Context) (*app.App, error) { return nil, errOpened }})
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return root.ExecuteContext(context.Background())
}

func TestScrapeRejectsBadRequestsBeforeOpening(t *testing.T) {
	cases := [][]string{
		{"scrape", "full"},
		{"scrape", "id", "--store", "aldi"},
		{"scrape", "id", "--live"},
		{"scrape", "price", "--exclude", "img"},
		{"scrape", "info", "--exclusive", "colour"},
	}
	for _, args := range cases {
		err := run(t, args...)
		var ce *scrape.ConfigError
		require.ErrorAs(t, err, &ce, "args %v", args)
	}
}

func TestScrapeFlagExclusivity(t *testing.T) {
	err := run(t, "scrape", "id", "--all", "--store", "tesco")
	require.Error(t, err)
	require.NotErrorIs(t, err, errOpened)

	err = run(t, "scrape", "info", "--exclusive", "img", "--exclude", "brand")
	require.Error(t, err)
	require.NotErrorIs(t, err, errOpened)
}

func TestScrapeValidRequestOpensApp(t *testing.T) {
	require.ErrorIs(t, run(t, "scrape", "info", "--store", "tesco,iceland", "--exclude", "img,price"), errOpened)
	require.ErrorIs(t, run(t, "scrape", "price", "--all", "--live"), errOpened)
}

func TestScrapeRequiresMode(t *testing.T) {
	require.Error(t, run(t, "scrape"))
}

func TestSyncAndServeOpenApp(t *testing.T) {
	require.ErrorIs(t, run(t, "sync"), errOpened)
	require.ErrorIs(t, run(t, "serve"), errOpened)
}

func TestPrintReportFollowsStoreOrder(t *testing.T) {
	report := scrape.Report{Stores: map[types.Store]*scrape.StoreStats{
		types.StoreIceland: {Candidates: 2},
		types.StoreTesco:   {Candidates: 1},
	}}
	for range 5 {
		var out bytes.Buffer
		printReport(&out, []types.Store{types.StoreTesco, types.StoreIceland}, report)
		require.Equal(t, "tesco: {Pairs:0 Invalid:0 Created:0 Updated:0 Unchanged:0 Conflicts:0 Candidates:1 Merged:0 Skipped:0 Failed:0}\n"+
			"iceland: {Pairs:0 Invalid:0 Created:0 Updated:0 Unchanged:0 Conflicts:0 Candidates:2 Merged:0 Skipped:0 Failed:0}\n", out.String())
	}

	var partial bytes.Buffer
	delete(report.Stores, types.StoreIceland)
	printReport(&partial, []types.Store{types.StoreTesco, types.StoreIceland}, report)
	require.NotContains(t, partial.String(), "iceland")
}

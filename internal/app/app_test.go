package app

import (
	"context"
	"iter"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/frugalprotein-backend/internal/data/repos/testutil"
	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/scrape"
)

type stubScraper struct{}

func (stubScraper) ScrapeIdentifiers(ctx context.Context, store types.Store) iter.Seq2[[]types.IdentityPair, error] {
	return func(yield func([]types.IdentityPair, error) bool) {
		if store != types.StoreTesco {
			return
		}
		yield([]types.IdentityPair{
			{Barcode: testutil.Str("5000111"), StorePID: "100"},
			{Barcode: testutil.Str("5000222"), StorePID: "200"},
		}, nil)
	}
}

func (stubScraper) ScrapeProductInfo(ctx context.Context, pid string, store types.Store, opts scrape.InfoOptions) (types.InfoBundle, error) {
	protein := "25"
	if pid == "200" {
		protein = "2"
	}
	return types.InfoBundle{
		Description: testutil.Str("Product " + pid),
		Brand:       testutil.Str("Own Brand"),
		Qty: &types.QuantityGroup{
			Qty: decimal.NewFromInt(1), NumOfUnits: decimal.NewFromInt(1),
			TotalQty: decimal.NewFromInt(1), UnitOfMeasurement: "kg",
		},
		Nutrition: &types.NutritionGroup{Header: "per 100g", Protein: decimal.RequireFromString(protein)},
		Price:     &types.PriceGroup{BasePrice: testutil.Dec("3.00")},
	}, nil
}

func newTestApp(t *testing.T) *App {
	t.Helper()
	t.Setenv("LOG_MODE", "test")
	t.Setenv("PRIMARY_DATABASE_DSN", ":memory:")
	t.Setenv("LIVE_DATABASE_DSN", ":memory:")
	t.Setenv("MEDIA_ROOT", t.TempDir())
	t.Setenv("OBJECT_STORAGE_MODE", "disabled")
	t.Setenv("REDIS_ADDR", "")
	t.Setenv("OTEL_ENABLED", "")
	t.Setenv("FRUGAL_CONFIG_YAML", "")

	a, err := New(context.Background())
	require.NoError(t, err)
	t.Cleanup(a.Close)
	return a
}

func TestPipelineScrapeThenSync(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()
	orch := a.orchestrator(stubScraper{})

	for _, mode := range []string{"id", "info"} {
		opts, err := scrape.NewOptions(scrape.Request{Mode: mode, Stores: []string{"tesco"}})
		require.NoError(t, err)
		_, err = orch.Run(ctx, opts)
		require.NoError(t, err)
	}
	require.EqualValues(t, 2, testutil.CountProducts(t, a.Primary.DB()))

	syncer, err := a.Syncer()
	require.NoError(t, err)
	report, err := syncer.Sync(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, report.Products)
	require.Equal(t, 1, report.Brands)
	require.EqualValues(t, 1, testutil.CountProducts(t, a.Live.DB()))
}

func TestLivePriceScrapeTargetsLiveDatabase(t *testing.T) {
	a := newTestApp(t)
	ctx := context.Background()

	live := testutil.CompleteProduct("Live only", "30")
	live.TescoID = testutil.Str("100")
	testutil.SeedProduct(t, a.Live.DB(), live)

	opts, err := scrape.NewOptions(scrape.Request{Mode: "price", Stores: []string{"tesco"}, Live: true})
	require.NoError(t, err)
	report, err := a.orchestrator(stubScraper{}).Run(ctx, opts)
	require.NoError(t, err)
	require.Equal(t, scrape.TargetLive, report.Target)
	require.Equal(t, 1, report.Stores[types.StoreTesco].Merged)

	got := testutil.ReloadProduct(t, a.Live.DB(), live)
	require.True(t, got.TescoBasePrice.Equal(decimal.RequireFromString("3")))
	require.Zero(t, testutil.CountProducts(t, a.Primary.DB()))
}

func TestImageURL(t *testing.T) {
	a := &App{Cfg: Config{MediaURL: "/media"}}
	require.Equal(t, "/media/product_images/default.png", a.imageURL(types.PlaceholderImage))
	require.Equal(t, "", a.imageURL(""))
}

package livesync

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	catalogrepo "github.com/yungbote/frugalprotein-backend/internal/data/repos/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/data/repos/testutil"
	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/platform/dbctx"
)

func newSyncer(t *testing.T, maxRows int) (*Syncer, *gorm.DB, *gorm.DB) {
	t.Helper()
	log := testutil.Logger(t)
	primary, live := testutil.DB(t), testutil.LiveDB(t)
	s := NewSyncer(log, NewCatalog(primary, log), NewCatalog(live, log), Policy{
		MaxRows:          maxRows,
		ProteinThreshold: decimal.NewFromInt(10),
		ConfirmAttempts:  3,
		ConfirmInterval:  time.Millisecond,
	}, nil)
	return s, primary, live
}

func seedCandidate(t *testing.T, db *gorm.DB, desc, protein string, brand *types.Brand) *types.Product {
	t.Helper()
	p := testutil.CompleteProduct(desc, protein)
	if brand != nil {
		p.BrandID = &brand.ID
	}
	return testutil.SeedProduct(t, db, p)
}

func TestSyncCopiesHighProteinProducts(t *testing.T) {
	s, primary, live := newSyncer(t, 100)
	arla := testutil.SeedBrand(t, primary, "Arla")
	testutil.SeedBrand(t, primary, "Unused")

	skyr := seedCandidate(t, primary, "Skyr", "11.0", arla)
	seedCandidate(t, primary, "Protein yoghurt", "10.0", arla)
	seedCandidate(t, primary, "Chicken breast", "23.0", nil)
	seedCandidate(t, primary, "Apple juice", "0.1", nil)
	testutil.SeedProduct(t, primary, &types.Product{Protein: testutil.Dec("30"), Description: testutil.Str("No quantity")})

	stale := testutil.SeedBrand(t, live, "Stale")
	seedCandidate(t, live, "Old product", "50", stale)

	report, err := s.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, report.Brands)
	require.Equal(t, 3, report.Products)

	require.EqualValues(t, 3, testutil.CountProducts(t, live))
	require.EqualValues(t, 1, testutil.CountBrands(t, live))

	got := testutil.ReloadProduct(t, live, skyr)
	require.Equal(t, "Skyr", *got.Description)
	require.Equal(t, arla.ID, *got.BrandID)
}

func TestSyncCapacityExceededLeavesLiveEmpty(t *testing.T) {
	s, primary, live := newSyncer(t, 3)
	brand := testutil.SeedBrand(t, primary, "Arla")
	for _, name := range []string{"a", "b", "c"} {
		seedCandidate(t, primary, name, "20", brand)
	}
	testutil.SeedProduct(t, live, testutil.CompleteProduct("previous", "20"))

	_, err := s.Sync(context.Background())
	var capErr *CapacityExceededError
	require.ErrorAs(t, err, &capErr)
	require.Equal(t, 3, capErr.Products)
	require.Equal(t, 1, capErr.Brands)

	require.Zero(t, testutil.CountProducts(t, live))
	require.Zero(t, testutil.CountBrands(t, live))
}

func TestSyncAtExactCapacity(t *testing.T) {
	s, primary, live := newSyncer(t, 3)
	brand := testutil.SeedBrand(t, primary, "Arla")
	seedCandidate(t, primary, "a", "20", brand)
	seedCandidate(t, primary, "b", "20", brand)

	report, err := s.Sync(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2, report.Products)
	require.EqualValues(t, 2, testutil.CountProducts(t, live))
}

type stuckProducts struct {
	catalogrepo.ProductRepo
}

func (stuckProducts) Count(dbctx.Context) (int64, error) { return 1, nil }

func TestSyncFailsWhenTruncateUnconfirmed(t *testing.T) {
	s, _, _ := newSyncer(t, 10)
	s.live.Products = stuckProducts{s.live.Products}
	var sleeps int
	s.sleep = func(context.Context, time.Duration) error {
		sleeps++
		return nil
	}

	_, err := s.Sync(context.Background())
	require.True(t, errors.Is(err, ErrTruncateUnconfirmed))
	require.Equal(t, 2, sleeps)
}

type heldLocker struct {
	keys []string
}

func (l *heldLocker) TryAcquire(_ context.Context, key string, _ time.Duration) (func(context.Context) error, bool, error) {
	l.keys = append(l.keys, key)
	return nil, false, nil
}

func (l *heldLocker) Close() error { return nil }

func TestSyncRefusesWhileLiveScrapeRuns(t *testing.T) {
	s, primary, live := newSyncer(t, 10)
	seedCandidate(t, primary, "Skyr", "11.0", nil)
	kept := testutil.SeedProduct(t, live, testutil.CompleteProduct("previous", "20"))
	locker := &heldLocker{}
	s.WithLocker(locker, time.Minute)

	_, err := s.Sync(context.Background())
	require.ErrorIs(t, err, ErrLiveBusy)
	require.Equal(t, []string{"scrape:live"}, locker.keys)

	require.EqualValues(t, 1, testutil.CountProducts(t, live))
	require.Equal(t, "previous", *testutil.ReloadProduct(t, live, kept).Description)
}

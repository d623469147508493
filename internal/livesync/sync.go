// Package livesync republishes the high-protein subset of the primary
// catalog into the size-capped live database.
package livesync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	redislock "github.com/yungbote/frugalprotein-backend/internal/clients/redis"
	catalogrepo "github.com/yungbote/frugalprotein-backend/internal/data/repos/catalog"
	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/observability"
	"github.com/yungbote/frugalprotein-backend/internal/platform/dbctx"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

var (
	ErrTruncateUnconfirmed = errors.New("live catalog still has rows after truncate")
	ErrLiveBusy            = errors.New("a live scrape or sync is already running")
)

const liveTarget = "live"

// CapacityExceededError means the candidate set does not fit the live
// database. Nothing was inserted.
type CapacityExceededError struct {
	Products int
	Brands   int
	MaxRows  int
}

func (e *CapacityExceededError) Error() string {
	return fmt.Sprintf("live sync needs %d rows (%d products, %d brands), limit is %d",
		e.Products+e.Brands, e.Products, e.Brands, e.MaxRows)
}

// Catalog is one database with the repos over it.
type Catalog struct {
	DB       *gorm.DB
	Products catalogrepo.ProductRepo
	Brands   catalogrepo.BrandRepo
}

func NewCatalog(db *gorm.DB, log *logger.Logger) Catalog {
	return Catalog{
		DB:       db,
		Products: catalogrepo.NewProductRepo(db, log),
		Brands:   catalogrepo.NewBrandRepo(db, log),
	}
}

type Policy struct {
	MaxRows          int
	ProteinThreshold decimal.Decimal
	ConfirmAttempts  int
	ConfirmInterval  time.Duration
}

type Report struct {
	Brands   int           `json:"brands"`
	Products int           `json:"products"`
	Took     time.Duration `json:"took"`
}

type Syncer struct {
	log     *logger.Logger
	primary Catalog
	live    Catalog
	policy  Policy
	metrics *observability.Metrics
	locker  redislock.Locker
	lockTTL time.Duration
	sleep   func(context.Context, time.Duration) error
}

func NewSyncer(baseLog *logger.Logger, primary, live Catalog, policy Policy, metrics *observability.Metrics) *Syncer {
	if policy.ConfirmAttempts <= 0 {
		policy.ConfirmAttempts = 5
	}
	if policy.ConfirmInterval <= 0 {
		policy.ConfirmInterval = time.Second
	}
	return &Syncer{
		log:     baseLog.With("service", "LiveDatasetSync"),
		primary: primary,
		live:    live,
		policy:  policy,
		metrics: metrics,
		locker:  redislock.NopLocker{},
		lockTTL: time.Hour,
		sleep:   sleepCtx,
	}
}

// WithLocker shares the live catalog lock with `scrape --live`.
func (s *Syncer) WithLocker(locker redislock.Locker, ttl time.Duration) *Syncer {
	if locker != nil {
		s.locker = locker
	}
	if ttl > 0 {
		s.lockTTL = ttl
	}
	return s
}

// Sync truncates live, then copies qualifying primary products and their
// brands in one transaction. On CapacityExceededError live is left empty.
// It returns ErrLiveBusy while a live scrape holds the catalog lock.
func (s *Syncer) Sync(ctx context.Context) (Report, error) {
	release, ok, err := s.locker.TryAcquire(ctx, redislock.CatalogKey(liveTarget), s.lockTTL)
	if err != nil {
		return Report{}, fmt.Errorf("acquire live lock: %w", err)
	}
	if !ok {
		return Report{}, ErrLiveBusy
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			s.log.Warn("Failed to release live lock", "error", err)
		}
	}()

	ctx, span := observability.Tracer().Start(ctx, "livesync.sync")
	defer span.End()

	started := time.Now()
	report, err := s.sync(ctx)
	report.Took = time.Since(started)

	status := "succeeded"
	var capErr *CapacityExceededError
	switch {
	case errors.As(err, &capErr):
		status = "capacity_exceeded"
	case err != nil:
		status = "failed"
	}
	s.metrics.ObserveSync(status, report.Brands, report.Products)
	span.SetAttributes(
		attribute.String("livesync.status", status),
		attribute.Int("livesync.brands", report.Brands),
		attribute.Int("livesync.products", report.Products),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.log.Error("Live sync failed", "status", status, "error", err, "took", report.Took)
		return report, err
	}
	s.log.Info("Live sync finished", "brands", report.Brands, "products", report.Products, "took", report.Took)
	return report, nil
}

func (s *Syncer) sync(ctx context.Context) (Report, error) {
	if err := s.truncate(ctx); err != nil {
		return Report{}, err
	}
	if err := s.confirmEmpty(ctx); err != nil {
		return Report{}, err
	}

	dbc := dbctx.New(ctx)
	products, err := s.primary.Products.LiveCandidates(dbc, s.policy.ProteinThreshold)
	if err != nil {
		return Report{}, fmt.Errorf("select live candidates: %w", err)
	}
	brands, err := s.primary.Brands.GetByIDs(dbc, brandIDs(products))
	if err != nil {
		return Report{}, fmt.Errorf("load candidate brands: %w", err)
	}
	s.log.Info("Live candidates selected",
		"products", len(products),
		"brands", len(brands),
		"threshold", s.policy.ProteinThreshold.String(),
	)

	if len(products)+len(brands) > s.policy.MaxRows {
		return Report{}, &CapacityExceededError{Products: len(products), Brands: len(brands), MaxRows: s.policy.MaxRows}
	}

	for _, p := range products {
		p.Brand = nil
	}
	err = s.live.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbc.WithTx(tx)
		if err := s.live.Brands.CreateBatch(txc, brands, 500); err != nil {
			return fmt.Errorf("insert live brands: %w", err)
		}
		if err := s.live.Products.CreateBatch(txc, products, 500); err != nil {
			return fmt.Errorf("insert live products: %w", err)
		}
		return nil
	})
	if err != nil {
		return Report{}, err
	}
	return Report{Brands: len(brands), Products: len(products)}, nil
}

// truncate deletes products before brands because of the foreign key.
func (s *Syncer) truncate(ctx context.Context) error {
	return s.live.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		txc := dbctx.New(ctx).WithTx(tx)
		if err := s.live.Products.DeleteAll(txc); err != nil {
			return fmt.Errorf("truncate live products: %w", err)
		}
		if err := s.live.Brands.DeleteAll(txc); err != nil {
			return fmt.Errorf("truncate live brands: %w", err)
		}
		return nil
	})
}

func (s *Syncer) confirmEmpty(ctx context.Context) error {
	dbc := dbctx.New(ctx)
	for attempt := 1; ; attempt++ {
		products, err := s.live.Products.Count(dbc)
		if err != nil {
			return fmt.Errorf("count live products: %w", err)
		}
		brands, err := s.live.Brands.Count(dbc)
		if err != nil {
			return fmt.Errorf("count live brands: %w", err)
		}
		if products == 0 && brands == 0 {
			return nil
		}
		if attempt >= s.policy.ConfirmAttempts {
			return fmt.Errorf("%w: %d products, %d brands after %d checks", ErrTruncateUnconfirmed, products, brands, attempt)
		}
		s.log.Warn("Live catalog not empty yet", "attempt", attempt, "products", products, "brands", brands)
		if err := s.sleep(ctx, s.policy.ConfirmInterval); err != nil {
			return err
		}
	}
}

func brandIDs(products []*types.Product) []uuid.UUID {
	seen := map[uuid.UUID]bool{}
	var out []uuid.UUID
	for _, p := range products {
		if p.BrandID == nil || seen[*p.BrandID] {
			continue
		}
		seen[*p.BrandID] = true
		out = append(out, *p.BrandID)
	}
	return out
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

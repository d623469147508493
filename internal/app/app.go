package app

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/frugalprotein-backend/internal/barcode"
	redislock "github.com/yungbote/frugalprotein-backend/internal/clients/redis"
	"github.com/yungbote/frugalprotein-backend/internal/config"
	"github.com/yungbote/frugalprotein-backend/internal/data/db"
	catalogrepo "github.com/yungbote/frugalprotein-backend/internal/data/repos/catalog"
	httpserver "github.com/yungbote/frugalprotein-backend/internal/http"
	httpH "github.com/yungbote/frugalprotein-backend/internal/http/handlers"
	"github.com/yungbote/frugalprotein-backend/internal/livesync"
	"github.com/yungbote/frugalprotein-backend/internal/media"
	"github.com/yungbote/frugalprotein-backend/internal/observability"
	"github.com/yungbote/frugalprotein-backend/internal/platform/gcp"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
	"github.com/yungbote/frugalprotein-backend/internal/reconcile"
	"github.com/yungbote/frugalprotein-backend/internal/scrape"
	"github.com/yungbote/frugalprotein-backend/internal/scrape/remote"
)

const serviceName = "frugalprotein"

var ErrLiveNotConfigured = errors.New("LIVE_DATABASE_DSN is not set")

type App struct {
	Log     *logger.Logger
	Cfg     Config
	Catalog config.Config
	Metrics *observability.Metrics

	Primary *db.Service
	// Live is nil when LIVE_DATABASE_DSN is unset.
	Live *db.Service

	Bucket gcp.BucketService
	Locker redislock.Locker
	Images *media.ProductImageSink

	shutdownOtel func(context.Context) error
}

// New opens and migrates both databases and connects the optional
// backends. Close releases everything New acquired.
func New(ctx context.Context) (*App, error) {
	cfg := LoadConfig()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}
	a := &App{Log: log, Cfg: cfg, Metrics: observability.NewMetrics(), shutdownOtel: observability.NoopShutdown}

	if err := a.init(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context) error {
	log := a.Log
	a.shutdownOtel = observability.InitOTel(ctx, log, observability.OtelConfigFromEnv(serviceName, a.Cfg.Env))

	catalogCfg, err := config.Load(log)
	if err != nil {
		return fmt.Errorf("load catalog config: %w", err)
	}
	a.Catalog = catalogCfg

	if a.Primary, err = db.Open(log, CatalogPrimary, a.Cfg.PrimaryDSN); err != nil {
		return err
	}
	if err := db.MigratePrimary(a.Primary.DB()); err != nil {
		return fmt.Errorf("primary automigrate: %w", err)
	}
	if a.Cfg.LiveDSN != "" {
		if a.Live, err = db.Open(log, CatalogLive, a.Cfg.LiveDSN); err != nil {
			return err
		}
		if err := db.MigrateCatalog(a.Live.DB()); err != nil {
			return fmt.Errorf("live automigrate: %w", err)
		}
	} else {
		log.Warn("LIVE_DATABASE_DSN not set; live sync and --live scrapes are unavailable")
	}

	if a.Bucket, err = resolveBucketService(ctx, log); err != nil {
		return err
	}
	a.Images = media.NewProductImageSink(log, a.Cfg.MediaRoot, a.Bucket)

	if a.Locker, err = redislock.NewLockerFromEnv(log); err != nil {
		return fmt.Errorf("init scrape lock: %w", err)
	}
	return nil
}

// Orchestrator wires the remote scraper to the primary target and, when
// configured, the live one.
func (a *App) Orchestrator() (*scrape.Orchestrator, error) {
	client, err := remote.New(a.Log, remote.ConfigFromEnv())
	if err != nil {
		return nil, err
	}
	return a.orchestrator(client), nil
}

func (a *App) orchestrator(s scrape.Scraper) *scrape.Orchestrator {
	targets := []scrape.Target{a.target(scrape.TargetPrimary, a.Primary.DB())}
	if a.Live != nil {
		targets = append(targets, a.target(scrape.TargetLive, a.Live.DB()))
	}
	runs := catalogrepo.NewScrapeRunRepo(a.Primary.DB(), a.Log)
	orch := scrape.NewOrchestrator(a.Log, s, runs, a.Locker, a.Metrics, targets...)
	return orch.WithLockTTL(a.Catalog.Scrape.LockTTL)
}

// target builds the repos over one database. Conflicts are always logged to
// primary because live has no conflict table.
func (a *App) target(name string, handle *gorm.DB) scrape.Target {
	products := catalogrepo.NewProductRepo(handle, a.Log)
	brands := catalogrepo.NewBrandRepo(handle, a.Log)
	conflicts := catalogrepo.NewConflictRepo(a.Primary.DB(), a.Log)
	return scrape.Target{
		Name:     name,
		Products: products,
		Resolver: reconcile.NewIdentityResolver(handle, a.Log, products, conflicts),
		Merger:   reconcile.NewInfoMerger(handle, a.Log, products, brands, a.Images),
	}
}

func (a *App) Syncer() (*livesync.Syncer, error) {
	if a.Live == nil {
		return nil, ErrLiveNotConfigured
	}
	policy := livesync.Policy{
		MaxRows:          a.Catalog.LiveSync.MaxRows,
		ProteinThreshold: a.Catalog.LiveSync.ProteinThreshold,
		ConfirmAttempts:  a.Catalog.LiveSync.TruncateConfirmAttempts,
		ConfirmInterval:  a.Catalog.LiveSync.TruncateConfirmInterval,
	}
	return livesync.NewSyncer(
		a.Log,
		livesync.NewCatalog(a.Primary.DB(), a.Log),
		livesync.NewCatalog(a.Live.DB(), a.Log),
		policy,
		a.Metrics,
	).WithLocker(a.Locker, a.Catalog.Scrape.LockTTL), nil
}

func (a *App) Server() *httpserver.Server {
	handle := a.Primary.DB()
	if a.Cfg.APICatalog == CatalogLive && a.Live != nil {
		handle = a.Live.DB()
	}
	products := catalogrepo.NewProductRepo(handle, a.Log)
	return httpserver.NewServer(a.Cfg.HTTPAddr, httpserver.RouterConfig{
		Log:               a.Log,
		Metrics:           a.Metrics,
		ServiceName:       serviceName,
		HealthHandler:     httpH.NewHealthHandler(handle),
		ProductHandler:    httpH.NewProductHandler(a.Log, products, barcode.NewZXingDecoder(), a.Catalog.EnabledStores(), a.imageURL),
		CalculatorHandler: httpH.NewCalculatorHandler(),
	})
}

func (a *App) imageURL(path string) string {
	if path == "" {
		return ""
	}
	if a.Bucket != nil {
		return a.Bucket.PublicURL(path)
	}
	return a.Cfg.MediaURL + "/" + path
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.Locker != nil {
		if err := a.Locker.Close(); err != nil {
			a.Log.Warn("Failed to close scrape lock", "error", err)
		}
	}
	if a.Bucket != nil {
		if err := a.Bucket.Close(); err != nil {
			a.Log.Warn("Failed to close object storage", "error", err)
		}
	}
	for _, svc := range []*db.Service{a.Live, a.Primary} {
		if svc == nil {
			continue
		}
		if err := svc.Close(); err != nil {
			a.Log.Warn("Failed to close database", "role", svc.Role(), "error", err)
		}
	}
	if a.shutdownOtel != nil {
		_ = a.shutdownOtel(context.Background())
	}
	a.Log.Sync()
}

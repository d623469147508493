package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/datatypes"

	redislock "github.com/yungbote/frugalprotein-backend/internal/clients/redis"
	catalogrepo "github.com/yungbote/frugalprotein-backend/internal/data/repos/catalog"
	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/observability"
	"github.com/yungbote/frugalprotein-backend/internal/platform/dbctx"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
	"github.com/yungbote/frugalprotein-backend/internal/reconcile"
)

var ErrScrapeInProgress = errors.New("another scrape is already running against this target")

// Target is one catalog database the orchestrator can write through.
type Target struct {
	Name     string
	Products catalogrepo.ProductRepo
	Resolver *reconcile.IdentityResolver
	Merger   *reconcile.InfoMerger
}

type StoreStats struct {
	Pairs     int `json:"pairs,omitempty"`
	Invalid   int `json:"invalid,omitempty"`
	Created   int `json:"created,omitempty"`
	Updated   int `json:"updated,omitempty"`
	Unchanged int `json:"unchanged,omitempty"`
	Conflicts int `json:"conflicts,omitempty"`

	Candidates int `json:"candidates,omitempty"`
	Merged     int `json:"merged,omitempty"`
	Skipped    int `json:"skipped,omitempty"`
	Failed     int `json:"failed,omitempty"`
}

type Report struct {
	RunID  uuid.UUID                   `json:"run_id"`
	Mode   Mode                        `json:"mode"`
	Target string                      `json:"target"`
	Stores map[types.Store]*StoreStats `json:"stores"`
	Took   time.Duration               `json:"took"`
}

type Orchestrator struct {
	log     *logger.Logger
	scraper Scraper
	targets map[string]Target
	runs    catalogrepo.ScrapeRunRepo
	locker  redislock.Locker
	metrics *observability.Metrics
	lockTTL time.Duration
}

// NewOrchestrator wires a scraper to one or more targets. runs, locker and
// metrics may be nil.
func NewOrchestrator(
	baseLog *logger.Logger,
	scraper Scraper,
	runs catalogrepo.ScrapeRunRepo,
	locker redislock.Locker,
	metrics *observability.Metrics,
	targets ...Target,
) *Orchestrator {
	if locker == nil {
		locker = redislock.NopLocker{}
	}
	byName := make(map[string]Target, len(targets))
	for _, t := range targets {
		byName[t.Name] = t
	}
	return &Orchestrator{
		log:     baseLog.With("service", "ScrapeOrchestrator"),
		scraper: scraper,
		targets: byName,
		runs:    runs,
		locker:  locker,
		metrics: metrics,
		lockTTL: 6 * time.Hour,
	}
}

// WithLockTTL bounds how long a crashed run can hold the target lock.
func (o *Orchestrator) WithLockTTL(ttl time.Duration) *Orchestrator {
	if ttl > 0 {
		o.lockTTL = ttl
	}
	return o
}

// Run executes one scrape. Per-record failures, from the scraper or from the
// write, are logged and counted. Candidate selection errors and cancellation
// end the run with an error.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (Report, error) {
	target, ok := o.targets[opts.Target()]
	if !ok {
		return Report{}, &ConfigError{Field: "live", Msg: fmt.Sprintf("%s database is not configured", opts.Target())}
	}

	release, ok, err := o.locker.TryAcquire(ctx, redislock.CatalogKey(target.Name), o.lockTTL)
	if err != nil {
		return Report{}, fmt.Errorf("acquire scrape lock: %w", err)
	}
	if !ok {
		return Report{}, ErrScrapeInProgress
	}
	defer func() {
		if err := release(context.Background()); err != nil {
			o.log.Warn("Failed to release scrape lock", "target", target.Name, "error", err)
		}
	}()

	ctx, span := observability.Tracer().Start(ctx, "scrape.run")
	defer span.End()
	span.SetAttributes(attribute.String("scrape.mode", string(opts.Mode)), attribute.String("scrape.target", target.Name))

	started := time.Now()
	report := Report{Mode: opts.Mode, Target: target.Name, Stores: map[types.Store]*StoreStats{}}
	report.RunID = o.startRun(ctx, opts, target.Name, started)

	log := o.log.With("mode", opts.Mode, "target", target.Name, "run_id", report.RunID)
	log.Info("Scrape started", "stores", opts.Stores)

	var runErr error
	for _, store := range opts.Stores {
		if runErr = ctx.Err(); runErr != nil {
			break
		}
		stats := &StoreStats{}
		report.Stores[store] = stats
		if runErr = o.runStore(ctx, log, target, store, opts, stats); runErr != nil {
			break
		}
		log.Info("Store pass finished", "store", store, "stats", stats)
	}

	report.Took = time.Since(started)
	status := types.ScrapeRunSucceeded
	if runErr != nil {
		status = types.ScrapeRunFailed
		span.RecordError(runErr)
		span.SetStatus(codes.Error, runErr.Error())
		log.Error("Scrape failed", "error", runErr, "took", report.Took)
	} else {
		log.Info("Scrape finished", "took", report.Took)
	}
	o.finishRun(report, status, runErr)
	o.metrics.ObserveScrapeRun(string(opts.Mode), status, report.Took)
	return report, runErr
}

func (o *Orchestrator) runStore(ctx context.Context, log *logger.Logger, target Target, store types.Store, opts Options, stats *StoreStats) error {
	ctx, span := observability.Tracer().Start(ctx, "scrape.store")
	defer span.End()
	span.SetAttributes(attribute.String("scrape.store", string(store)))

	switch opts.Mode {
	case ModeID:
		return o.runIDs(ctx, log, target, store, stats)
	case ModeInfo:
		return o.runMerges(ctx, log, target, store, opts.Mode, opts.Info, reconcile.FillOnly, stats)
	case ModePrice:
		return o.runMerges(ctx, log, target, store, opts.Mode, PriceOnly, reconcile.Overwrite, stats)
	default:
		return &ConfigError{Field: "mode", Msg: fmt.Sprintf("unsupported mode %q", opts.Mode)}
	}
}

func (o *Orchestrator) runIDs(ctx context.Context, log *logger.Logger, target Target, store types.Store, stats *StoreStats) error {
	for batch, err := range o.scraper.ScrapeIdentifiers(ctx, store) {
		if err != nil {
			// The sequence cannot be resumed; what was resolved so far stays.
			stats.Failed++
			log.Warn("Identifier scrape failed", "store", store, "error", err)
			return ctx.Err()
		}
		for _, pair := range batch {
			if err := ctx.Err(); err != nil {
				return err
			}
			stats.Pairs++
			res, err := target.Resolver.Resolve(ctx, pair, store)
			switch {
			case errors.Is(err, reconcile.ErrInvalidIdentityPair):
				stats.Invalid++
			case reconcile.IsIdentityConflict(err):
				stats.Conflicts++
			case err != nil:
				if ctx.Err() != nil {
					return ctx.Err()
				}
				stats.Failed++
				log.Warn("Identity resolve failed", "store", store, "pid", pair.StorePID, "error", err)
				continue
			default:
				switch res.Outcome {
				case reconcile.OutcomeCreated:
					stats.Created++
				case reconcile.OutcomeUpdated:
					stats.Updated++
				default:
					stats.Unchanged++
				}
			}
			o.metrics.ObserveIdentity(string(store), string(res.Outcome))
		}
	}
	return nil
}

func (o *Orchestrator) runMerges(
	ctx context.Context,
	log *logger.Logger,
	target Target,
	store types.Store,
	mode Mode,
	info InfoOptions,
	strategy reconcile.Strategy,
	stats *StoreStats,
) error {
	dbc := dbctx.New(ctx)
	var ids []uuid.UUID
	var err error
	if mode == ModePrice {
		ids, err = target.Products.PriceCandidateIDs(dbc, store)
	} else {
		ids, err = target.Products.InfoCandidateIDs(dbc, store)
	}
	if err != nil {
		return fmt.Errorf("select %s candidates for %s: %w", mode, store, err)
	}
	stats.Candidates = len(ids)
	log.Info("Candidates selected", "store", store, "count", len(ids))

	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return err
		}
		rec, err := target.Products.GetByID(dbc, id)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			stats.Failed++
			o.metrics.ObserveCandidate(string(mode), string(store), "failed")
			log.Warn("Product load failed", "store", store, "product_id", id, "error", err)
			continue
		}
		if rec == nil || rec.StoreID(store) == nil {
			stats.Skipped++
			continue
		}

		pid := *rec.StoreID(store)
		bundle, err := o.scraper.ScrapeProductInfo(ctx, pid, store, info)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			stats.Failed++
			o.metrics.ObserveCandidate(string(mode), string(store), "failed")
			log.Warn("Product scrape failed", "store", store, "pid", pid, "error", err)
			continue
		}
		bundle = info.Filter(bundle)

		res, err := target.Merger.Merge(ctx, bundle, rec, store, strategy)
		if errors.Is(err, reconcile.ErrProductNotFound) {
			stats.Skipped++
			continue
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			stats.Failed++
			o.metrics.ObserveCandidate(string(mode), string(store), "failed")
			log.Warn("Product merge failed", "store", store, "pid", pid, "error", err)
			continue
		}
		result := "unchanged"
		if res.Changed() {
			stats.Merged++
			result = "merged"
		} else {
			stats.Skipped++
		}
		o.metrics.ObserveCandidate(string(mode), string(store), result)
	}
	return nil
}

func (o *Orchestrator) startRun(ctx context.Context, opts Options, target string, started time.Time) uuid.UUID {
	if o.runs == nil {
		return uuid.Nil
	}
	stores, _ := json.Marshal(opts.Stores)
	row := &types.ScrapeRun{
		Mode:      string(opts.Mode),
		Target:    target,
		Stores:    datatypes.JSON(stores),
		Status:    types.ScrapeRunRunning,
		StartedAt: started,
	}
	if err := o.runs.Create(dbctx.New(ctx), row); err != nil {
		o.log.Warn("Failed to record scrape run", "error", err)
		return uuid.Nil
	}
	return row.ID
}

func (o *Orchestrator) finishRun(report Report, status string, runErr error) {
	if o.runs == nil || report.RunID == uuid.Nil {
		return
	}
	stats, _ := json.Marshal(report.Stores)
	updates := map[string]interface{}{
		"status":      status,
		"stats":       datatypes.JSON(stats),
		"finished_at": time.Now(),
	}
	if runErr != nil {
		updates["error"] = runErr.Error()
	}
	// The run's own context may already be cancelled.
	if err := o.runs.UpdateFields(dbctx.New(context.Background()), report.RunID, updates); err != nil {
		o.log.Warn("Failed to finish scrape run", "run_id", report.RunID, "error", err)
	}
}

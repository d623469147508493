package reconcile

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	catalogrepo "github.com/yungbote/frugalprotein-backend/internal/data/repos/catalog"
	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/platform/dbctx"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

type Outcome string

const (
	OutcomeInvalid   Outcome = "invalid"
	OutcomeCreated   Outcome = "created"
	OutcomeUpdated   Outcome = "updated"
	OutcomeUnchanged Outcome = "unchanged"
	OutcomeConflict  Outcome = "conflict"
)

type ResolveResult struct {
	Outcome   Outcome
	ProductID uuid.UUID
}

// IdentityResolver attaches (barcode, store pid) pairs to products.
type IdentityResolver struct {
	db        *gorm.DB
	log       *logger.Logger
	products  catalogrepo.ProductRepo
	conflicts catalogrepo.ConflictRepo
}

// NewIdentityResolver writes products through db. conflicts may point at a
// different database; it is only written after the product transaction ends.
func NewIdentityResolver(db *gorm.DB, baseLog *logger.Logger, products catalogrepo.ProductRepo, conflicts catalogrepo.ConflictRepo) *IdentityResolver {
	return &IdentityResolver{
		db:        db,
		log:       baseLog.With("service", "IdentityResolver"),
		products:  products,
		conflicts: conflicts,
	}
}

// Resolve finds the product that pair identifies at store and fills in
// whichever key it is missing, or creates the product when none matches.
// Invalid pairs return ErrInvalidIdentityPair without touching storage.
// Conflicts are logged, recorded, and returned as *IdentityConflictError.
func (r *IdentityResolver) Resolve(ctx context.Context, pair types.IdentityPair, store types.Store) (ResolveResult, error) {
	if !IsValidIdentityPair(pair) {
		return ResolveResult{Outcome: OutcomeInvalid}, ErrInvalidIdentityPair
	}
	if !store.Valid() {
		return ResolveResult{}, fmt.Errorf("unknown store %q", store)
	}
	pair = NormalizePair(pair)

	var res ResolveResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		res, err = r.resolveTx(dbctx.New(ctx).WithTx(tx), pair, store)
		return err
	})

	var conflict *IdentityConflictError
	if errors.As(err, &conflict) {
		r.report(ctx, conflict)
		return ResolveResult{Outcome: OutcomeConflict}, conflict
	}
	if err != nil {
		return ResolveResult{}, fmt.Errorf("resolve %s pid=%s: %w", store, pair.StorePID, err)
	}
	return res, nil
}

func (r *IdentityResolver) resolveTx(dbc dbctx.Context, pair types.IdentityPair, store types.Store) (ResolveResult, error) {
	matches, err := r.products.FindByIdentity(dbc, store, pair.Barcode, pair.StorePID)
	if err != nil {
		return ResolveResult{}, err
	}

	switch len(matches) {
	case 0:
		row := &types.Product{Barcode: pair.Barcode}
		row.SetStoreID(store, pair.StorePID)
		if err := r.products.Create(dbc, row); err != nil {
			return ResolveResult{}, r.writeError(err, pair, store, nil)
		}
		return ResolveResult{Outcome: OutcomeCreated, ProductID: row.ID}, nil
	case 1:
	default:
		return ResolveResult{}, &IdentityConflictError{
			Store:      store,
			Pair:       pair,
			Reason:     types.ConflictMultipleMatches,
			MatchedIDs: productIDs(matches),
		}
	}

	match := matches[0]
	updates := map[string]interface{}{}

	if current := match.StoreID(store); current == nil {
		updates[store.IDColumn()] = pair.StorePID
	} else if *current != pair.StorePID {
		return ResolveResult{}, mismatch(pair, store, match)
	}
	if pair.Barcode != nil {
		if match.Barcode == nil || *match.Barcode == "" {
			updates["barcode"] = *pair.Barcode
		} else if *match.Barcode != *pair.Barcode {
			return ResolveResult{}, mismatch(pair, store, match)
		}
	}

	if len(updates) == 0 {
		return ResolveResult{Outcome: OutcomeUnchanged, ProductID: match.ID}, nil
	}
	if err := r.products.UpdateFields(dbc, match.ID, updates); err != nil {
		return ResolveResult{}, r.writeError(err, pair, store, []uuid.UUID{match.ID})
	}
	return ResolveResult{Outcome: OutcomeUpdated, ProductID: match.ID}, nil
}

func (r *IdentityResolver) writeError(err error, pair types.IdentityPair, store types.Store, ids []uuid.UUID) error {
	if constraint, dup := catalogrepo.UniqueViolation(err); dup {
		return &IdentityConflictError{
			Store:      store,
			Pair:       pair,
			Reason:     types.ConflictUniqueViolation,
			MatchedIDs: ids,
			Constraint: constraint,
		}
	}
	return err
}

func (r *IdentityResolver) report(ctx context.Context, c *IdentityConflictError) {
	r.log.Warn("Identity conflict; write skipped",
		"store", c.Store,
		"pid", c.Pair.StorePID,
		"barcode", c.Pair.Barcode,
		"reason", c.Reason,
		"matched_ids", c.MatchedIDs,
		"constraint", c.Constraint,
	)
	if r.conflicts == nil {
		return
	}
	matched, _ := json.Marshal(c.MatchedIDs)
	row := &types.IdentityConflict{
		Store:      string(c.Store),
		Barcode:    c.Pair.Barcode,
		StorePID:   c.Pair.StorePID,
		Reason:     c.Reason,
		MatchedIDs: datatypes.JSON(matched),
		Detail:     c.Error(),
	}
	if err := r.conflicts.Create(dbctx.New(ctx), row); err != nil {
		r.log.Error("Failed to record identity conflict", "store", c.Store, "pid", c.Pair.StorePID, "error", err)
	}
}

func mismatch(pair types.IdentityPair, store types.Store, match *types.Product) error {
	return &IdentityConflictError{
		Store:      store,
		Pair:       pair,
		Reason:     types.ConflictKeyMismatch,
		MatchedIDs: []uuid.UUID{match.ID},
	}
}

func productIDs(rows []*types.Product) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(rows))
	for _, p := range rows {
		out = append(out, p.ID)
	}
	return out
}

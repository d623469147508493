package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	catalogrepo "github.com/yungbote/frugalprotein-backend/internal/data/repos/catalog"
	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/platform/dbctx"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

// Strategy selects how the price group is merged. Every other field is
// always fill-only.
type Strategy int

const (
	// FillOnly writes the price group only while <store>_base_price is empty.
	FillOnly Strategy = iota
	// Overwrite replaces the price group with the scraped one. Nil members
	// clear their column.
	Overwrite
)

func (s Strategy) String() string {
	switch s {
	case FillOnly:
		return "fill_only"
	case Overwrite:
		return "overwrite"
	default:
		return fmt.Sprintf("strategy(%d)", int(s))
	}
}

// ImageSink persists a product image and returns the path to store on the record.
type ImageSink interface {
	Save(ctx context.Context, productID uuid.UUID, data []byte) (string, error)
}

type MergeResult struct {
	ProductID uuid.UUID
	// Columns lists what was written, sorted. Empty means no write happened.
	Columns []string
}

func (r MergeResult) Changed() bool { return len(r.Columns) > 0 }

// InfoMerger folds scraped attribute bundles into existing products.
type InfoMerger struct {
	db       *gorm.DB
	log      *logger.Logger
	products catalogrepo.ProductRepo
	brands   catalogrepo.BrandRepo
	images   ImageSink
}

// NewInfoMerger builds a merger writing through db. images may be nil, in
// which case scraped images are ignored.
func NewInfoMerger(db *gorm.DB, baseLog *logger.Logger, products catalogrepo.ProductRepo, brands catalogrepo.BrandRepo, images ImageSink) *InfoMerger {
	return &InfoMerger{
		db:       db,
		log:      baseLog.With("service", "InfoMerger"),
		products: products,
		brands:   brands,
		images:   images,
	}
}

// Merge applies bundle to the product identified by record.ID. The record is
// re-read inside one transaction (row-locked on Postgres), every decision is
// made against that read, and all changes go out in a single update.
func (m *InfoMerger) Merge(ctx context.Context, bundle types.InfoBundle, record *types.Product, store types.Store, strategy Strategy) (MergeResult, error) {
	if record == nil || record.ID == uuid.Nil {
		return MergeResult{}, ErrProductNotFound
	}
	if !store.Valid() {
		return MergeResult{}, fmt.Errorf("unknown store %q", store)
	}
	res := MergeResult{ProductID: record.ID}
	if bundle.Empty() {
		return res, nil
	}

	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		dbc := dbctx.New(ctx).WithTx(tx)
		current, err := m.products.LockByID(dbc, record.ID)
		if err != nil {
			return err
		}
		if current == nil {
			return ErrProductNotFound
		}

		updates, err := m.plan(dbc, bundle, current, store, strategy)
		if err != nil {
			return err
		}
		if len(updates) == 0 {
			return nil
		}
		if err := m.products.UpdateFields(dbc, current.ID, updates); err != nil {
			return err
		}
		res.Columns = sortedKeys(updates)
		return nil
	})
	if err != nil {
		return MergeResult{ProductID: record.ID}, fmt.Errorf("merge %s product=%s: %w", store, record.ID, err)
	}
	if res.Changed() {
		m.log.Debug("Product merged", "product_id", record.ID, "store", store, "strategy", strategy, "columns", res.Columns)
	}
	return res, nil
}

// plan computes the column updates for one merge from a single read.
func (m *InfoMerger) plan(dbc dbctx.Context, bundle types.InfoBundle, current *types.Product, store types.Store, strategy Strategy) (map[string]interface{}, error) {
	updates := map[string]interface{}{}

	if bundle.Description != nil && !current.HasDescription() {
		if d := strings.TrimSpace(*bundle.Description); d != "" {
			updates["description"] = d
		}
	}

	if bundle.Brand != nil && current.BrandID == nil {
		brandID, err := ResolveBrand(dbc, m.brands, *bundle.Brand)
		if err != nil {
			return nil, fmt.Errorf("resolve brand: %w", err)
		}
		if brandID != nil {
			updates["brand_id"] = *brandID
		}
	}

	if bundle.Qty != nil && current.Qty == nil {
		for k, v := range bundle.Qty.Columns() {
			updates[k] = v
		}
	}

	if bundle.Nutrition != nil && current.Protein == nil {
		for k, v := range bundle.Nutrition.Columns() {
			updates[k] = v
		}
	}

	if bundle.Price != nil {
		existing := current.Price(store)
		switch strategy {
		case Overwrite:
			if !samePrice(existing, *bundle.Price) {
				addPrice(updates, *bundle.Price, store)
			}
		default:
			if existing.BasePrice == nil {
				addPrice(updates, *bundle.Price, store)
			}
		}
	}

	if len(bundle.Image) > 0 && !current.HasImage() && m.images != nil {
		path, err := m.images.Save(dbc.Ctx, current.ID, bundle.Image)
		if err != nil {
			// The image is retried on the next info pass; the text fields still land.
			m.log.Warn("Image save failed", "product_id", current.ID, "store", store, "error", err)
		} else if path != "" {
			updates["image"] = path
		}
	}

	return updates, nil
}

func addPrice(updates map[string]interface{}, g types.PriceGroup, store types.Store) {
	for k, v := range NamespaceKeys(g.Fields(), store) {
		updates[k] = columnValue(v)
	}
}

func samePrice(a, b types.PriceGroup) bool {
	return sameDecimal(a.BasePrice, b.BasePrice) &&
		sameDecimal(a.SalePrice, b.SalePrice) &&
		sameDecimal(a.OfferPrice, b.OfferPrice) &&
		sameString(a.OfferText, b.OfferText)
}

func sameDecimal(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a.Equal(*b)
}

func sameString(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func sortedKeys(m map[string]interface{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

package scrape

import (
	"context"
	"fmt"
	"iter"

	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
)

// InfoOptions narrows which attributes the scraper fetches. Exclusive wins
// over Exclude when both are set.
type InfoOptions struct {
	Exclusive []string
	Exclude   []string
}

// PriceOnly is used by the price pass.
var PriceOnly = InfoOptions{Exclusive: []string{types.InfoKeyPrice}}

// Wants reports whether key should be fetched under o.
func (o InfoOptions) Wants(key string) bool {
	if len(o.Exclusive) > 0 {
		return contains(o.Exclusive, key)
	}
	return !contains(o.Exclude, key)
}

// Filter drops the members of b that o does not want.
func (o InfoOptions) Filter(b types.InfoBundle) types.InfoBundle {
	if !o.Wants(types.InfoKeyDescription) {
		b.Description = nil
	}
	if !o.Wants(types.InfoKeyBrand) {
		b.Brand = nil
	}
	if !o.Wants(types.InfoKeyQty) {
		b.Qty = nil
	}
	if !o.Wants(types.InfoKeyNutrition) {
		b.Nutrition = nil
	}
	if !o.Wants(types.InfoKeyPrice) {
		b.Price = nil
	}
	if !o.Wants(types.InfoKeyImage) {
		b.Image = nil
	}
	return b
}

// Scraper is the boundary to whatever reads the store websites.
type Scraper interface {
	// ScrapeIdentifiers yields batches of identity pairs for store. The
	// sequence is single-use; a non-nil error ends it.
	ScrapeIdentifiers(ctx context.Context, store types.Store) iter.Seq2[[]types.IdentityPair, error]
	ScrapeProductInfo(ctx context.Context, storePID string, store types.Store, opts InfoOptions) (types.InfoBundle, error)
}

// ScrapeFailure is a single product or listing that could not be scraped.
// The orchestrator logs it and moves on.
type ScrapeFailure struct {
	Store types.Store
	PID   string
	Err   error
}

func (e *ScrapeFailure) Error() string {
	if e.PID == "" {
		return fmt.Sprintf("scrape %s identifiers: %v", e.Store, e.Err)
	}
	return fmt.Sprintf("scrape %s pid=%s: %v", e.Store, e.PID, e.Err)
}

func (e *ScrapeFailure) Unwrap() error { return e.Err }

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

package catalog

import "github.com/shopspring/decimal"

// Store-agnostic price keys. NamespaceKeys turns them into product columns.
const (
	PriceBase      = "base_price"
	PriceSale      = "sale_price"
	PriceOffer     = "offer_price"
	PriceOfferText = "offer_text"
)

type QuantityGroup struct {
	Qty               decimal.Decimal `json:"qty"`
	NumOfUnits        decimal.Decimal `json:"num_of_units"`
	TotalQty          decimal.Decimal `json:"total_qty"`
	UnitOfMeasurement string          `json:"unit_of_measurement"`
}

// Columns maps the group onto product columns.
func (q QuantityGroup) Columns() map[string]any {
	return map[string]any{
		"qty":                 q.Qty,
		"num_of_units":        q.NumOfUnits,
		"total_qty":           q.TotalQty,
		"unit_of_measurement": q.UnitOfMeasurement,
	}
}

type NutritionGroup struct {
	Header  string          `json:"header"`
	Kcal    decimal.Decimal `json:"kcal"`
	Fat     decimal.Decimal `json:"fat"`
	Carb    decimal.Decimal `json:"carb"`
	Protein decimal.Decimal `json:"protein"`
}

func (n NutritionGroup) Columns() map[string]any {
	return map[string]any{
		"header":  n.Header,
		"kcal":    n.Kcal,
		"fat":     n.Fat,
		"carb":    n.Carb,
		"protein": n.Protein,
	}
}

// PriceGroup is one store's prices. Nil members are stored as NULL.
type PriceGroup struct {
	BasePrice  *decimal.Decimal `json:"base_price"`
	SalePrice  *decimal.Decimal `json:"sale_price"`
	OfferPrice *decimal.Decimal `json:"offer_price"`
	OfferText  *string          `json:"offer_text"`
}

// Fields uses the store-agnostic key names.
func (g PriceGroup) Fields() map[string]any {
	return map[string]any{
		PriceBase:      g.BasePrice,
		PriceSale:      g.SalePrice,
		PriceOffer:     g.OfferPrice,
		PriceOfferText: g.OfferText,
	}
}

// Effective is the lowest of the base, sale and offer prices that are set.
func (g PriceGroup) Effective() *decimal.Decimal {
	var best *decimal.Decimal
	for _, p := range []*decimal.Decimal{g.BasePrice, g.SalePrice, g.OfferPrice} {
		if p == nil {
			continue
		}
		if best == nil || p.LessThan(*best) {
			v := *p
			best = &v
		}
	}
	return best
}

package catalog

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestStoreAccessorsRoundTrip(t *testing.T) {
	p := &Product{}
	if p.StoreID(StoreTesco) != nil {
		t.Fatalf("StoreID: want nil on empty product")
	}
	p.SetStoreID(StoreTesco, "11")
	if got := p.StoreID(StoreTesco); got == nil || *got != "11" || p.TescoID == nil {
		t.Fatalf("StoreID tesco: got=%v", got)
	}
	if p.StoreID(StoreIceland) != nil {
		t.Fatalf("StoreID iceland: want nil")
	}

	text := "2 for 3"
	p.SetPrice(StoreIceland, PriceGroup{BasePrice: dec("2.50"), OfferText: &text})
	if p.IcelandBasePrice == nil || !p.IcelandBasePrice.Equal(decimal.RequireFromString("2.5")) {
		t.Fatalf("SetPrice: iceland base not set")
	}
	if p.TescoBasePrice != nil {
		t.Fatalf("SetPrice: leaked into tesco columns")
	}
	if got := p.Price(StoreIceland); got.OfferText == nil || *got.OfferText != text {
		t.Fatalf("Price: got=%+v", got)
	}
}

func TestBlankStoreIDReadsAsUnset(t *testing.T) {
	blank := "  "
	p := &Product{IcelandID: &blank}
	if p.StoreID(StoreIceland) != nil {
		t.Fatalf("blank store id should read as nil")
	}
}

func TestParseStore(t *testing.T) {
	s, err := ParseStore(" Tesco ")
	if err != nil || s != StoreTesco {
		t.Fatalf("ParseStore: got=%q err=%v", s, err)
	}
	if _, err := ParseStore("randomstore"); err == nil {
		t.Fatalf("ParseStore: expected error for unknown store")
	}
	if StoreTesco.IDColumn() != "tesco_id" || StoreTesco.BasePriceColumn() != "tesco_base_price" {
		t.Fatalf("column names: %q %q", StoreTesco.IDColumn(), StoreTesco.BasePriceColumn())
	}
}

func TestHasImageTreatsPlaceholderAsEmpty(t *testing.T) {
	p := &Product{Image: PlaceholderImage}
	if p.HasImage() {
		t.Fatalf("placeholder should not count as an image")
	}
	p.Image = "product_images/abc.jpg"
	if !p.HasImage() {
		t.Fatalf("real image should count")
	}
	p.Image = "product_images/store_default.png"
	if !p.HasImage() {
		t.Fatalf("only the exact placeholder path is empty")
	}
}

func TestCanonicalBrandName(t *testing.T) {
	if got := CanonicalBrandName("  My Protein  Co "); got != "My Protein Co" {
		t.Fatalf("CanonicalBrandName: got=%q", got)
	}
	if got := CanonicalBrandName("Grenade\u00a0 Carb\tKilla"); got != "Grenade Carb Killa" {
		t.Fatalf("non-breaking space should collapse: got=%q", got)
	}
	if got := CanonicalBrandName("TESCO"); got != "TESCO" {
		t.Fatalf("case must be preserved: got=%q", got)
	}
}

func TestPriceGroupEffective(t *testing.T) {
	g := PriceGroup{BasePrice: dec("3.00"), SalePrice: dec("2.40"), OfferPrice: nil}
	if got := g.Effective(); got == nil || !got.Equal(decimal.RequireFromString("2.40")) {
		t.Fatalf("Effective: got=%v", got)
	}
	if (PriceGroup{}).Effective() != nil {
		t.Fatalf("Effective on empty group: want nil")
	}
}

func TestQuantityAndNutritionGroupsAreAtomic(t *testing.T) {
	p := &Product{}
	if p.Quantity() != nil || p.Nutrition() != nil {
		t.Fatalf("empty product should have no groups")
	}
	p.SetQuantity(QuantityGroup{Qty: decimal.NewFromInt(500), NumOfUnits: decimal.NewFromInt(1), TotalQty: decimal.RequireFromString("0.5"), UnitOfMeasurement: "kg"})
	if p.Qty == nil || p.NumOfUnits == nil || p.TotalQty == nil || p.UnitOfMeasurement == nil {
		t.Fatalf("SetQuantity left a field unset")
	}
	p.SetNutrition(NutritionGroup{Header: "per 100g", Protein: decimal.NewFromInt(25)})
	if p.Header == nil || p.Kcal == nil || p.Fat == nil || p.Carb == nil || p.Protein == nil {
		t.Fatalf("SetNutrition left a field unset")
	}
}

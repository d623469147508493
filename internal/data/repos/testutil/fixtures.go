package testutil

import (
	"testing"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
)

func Str(s string) *string { return &s }

func Dec(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func SeedBrand(tb testing.TB, db *gorm.DB, name string) *catalog.Brand {
	tb.Helper()
	b := &catalog.Brand{Name: name}
	if err := db.Create(b).Error; err != nil {
		tb.Fatalf("seed brand: %v", err)
	}
	return b
}

func SeedProduct(tb testing.TB, db *gorm.DB, p *catalog.Product) *catalog.Product {
	tb.Helper()
	if err := db.Create(p).Error; err != nil {
		tb.Fatalf("seed product: %v", err)
	}
	return p
}

// CompleteProduct has description, quantity and nutrition set, so it is a
// price-pass and live-sync candidate.
func CompleteProduct(description string, protein string) *catalog.Product {
	p := &catalog.Product{Description: Str(description)}
	p.SetQuantity(catalog.QuantityGroup{
		Qty:               decimal.NewFromInt(500),
		NumOfUnits:        decimal.NewFromInt(1),
		TotalQty:          decimal.RequireFromString("0.5"),
		UnitOfMeasurement: "kg",
	})
	p.SetNutrition(catalog.NutritionGroup{
		Header:  "per 100g",
		Kcal:    decimal.NewFromInt(120),
		Fat:     decimal.RequireFromString("2.5"),
		Carb:    decimal.RequireFromString("4.0"),
		Protein: decimal.RequireFromString(protein),
	})
	return p
}

func CountProducts(tb testing.TB, db *gorm.DB) int64 {
	tb.Helper()
	var n int64
	if err := db.Model(&catalog.Product{}).Count(&n).Error; err != nil {
		tb.Fatalf("count products: %v", err)
	}
	return n
}

func CountBrands(tb testing.TB, db *gorm.DB) int64 {
	tb.Helper()
	var n int64
	if err := db.Model(&catalog.Brand{}).Count(&n).Error; err != nil {
		tb.Fatalf("count brands: %v", err)
	}
	return n
}

func ReloadProduct(tb testing.TB, db *gorm.DB, p *catalog.Product) *catalog.Product {
	tb.Helper()
	var out catalog.Product
	if err := db.First(&out, "id = ?", p.ID).Error; err != nil {
		tb.Fatalf("reload product: %v", err)
	}
	return &out
}

// Package pricecalc normalises prices to a standard unit (kg, litre or single
// item) and to the cost of 10g of protein.
package pricecalc

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

type Unit string

const (
	Gram       Unit = "g"
	Kilogram   Unit = "kg"
	Millilitre Unit = "ml"
	Litre      Unit = "l"
	Single     Unit = "sngl"
)

var (
	ErrUnknownUnit      = errors.New("unknown unit of measurement")
	ErrNonPositive      = errors.New("value must be greater than zero")
	ErrIncompatibleUnit = errors.New("single-item units cannot be mixed with weight or volume")
)

var (
	thousand = decimal.NewFromInt(1000)
	ten      = decimal.NewFromInt(10)
)

func ParseUnit(raw string) (Unit, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "g", "gram", "grams":
		return Gram, nil
	case "kg", "kilogram", "kilograms":
		return Kilogram, nil
	case "ml", "millilitre", "milliliter":
		return Millilitre, nil
	case "l", "lt", "ltr", "litre", "liter":
		return Litre, nil
	case "sngl", "unit", "each", "ea":
		return Single, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUnit, raw)
	}
}

func (u Unit) IsSingle() bool { return u == Single }

// Standardize converts g to kg and ml to l. Other units pass through.
func Standardize(v decimal.Decimal, u Unit) (decimal.Decimal, Unit) {
	switch u {
	case Gram:
		return v.Div(thousand), Kilogram
	case Millilitre:
		return v.Div(thousand), Litre
	default:
		return v, u
	}
}

// StdUnitMultiplier is the factor that scales qty of unit u up to one
// standard unit, e.g. 100g -> 10.
func StdUnitMultiplier(qty decimal.Decimal, u Unit) (decimal.Decimal, error) {
	std, _ := Standardize(qty, u)
	if !std.IsPositive() {
		return decimal.Zero, ErrNonPositive
	}
	return decimal.NewFromInt(1).Div(std), nil
}

// PricePerQty is price per standard unit. totalQty must already be in
// standard units. Nil when price is unknown or totalQty is not positive.
func PricePerQty(price *decimal.Decimal, totalQty decimal.Decimal) *decimal.Decimal {
	if price == nil || !totalQty.IsPositive() {
		return nil
	}
	out := price.Div(totalQty)
	return &out
}

// PricePerProtein is the cost of 10g of protein given the price per standard
// unit and protein grams per 100g/ml. Single-item products have no per-weight
// protein figure, so the result is nil for them.
func PricePerProtein(pricePerQty *decimal.Decimal, proteinPer100 *decimal.Decimal, uom string) *decimal.Decimal {
	if pricePerQty == nil || proteinPer100 == nil || !proteinPer100.IsPositive() {
		return nil
	}
	if u, err := ParseUnit(uom); err == nil && u.IsSingle() {
		return nil
	}
	// protein per kg = per100 * 10; cost of 10g = ppq * 10 / that.
	out := pricePerQty.Mul(ten).Div(proteinPer100.Mul(ten))
	return &out
}

// Input mirrors the calculator form: a price for a quantity, and a protein
// amount stated against some reference quantity.
type Input struct {
	Price          decimal.Decimal `json:"price_value"`
	Qty            decimal.Decimal `json:"qty_value"`
	QtyUnit        string          `json:"qty_unit"`
	Protein        decimal.Decimal `json:"protein_value"`
	ProteinPer     decimal.Decimal `json:"protein_per_value"`
	ProteinPerUnit string          `json:"protein_per_unit"`
}

type Result struct {
	Unit         Unit            `json:"unit"`
	Qty          decimal.Decimal `json:"qty"`
	UnitPrice    decimal.Decimal `json:"unit_price"`
	ProteinPer   decimal.Decimal `json:"protein_per"`
	ProteinPrice decimal.Decimal `json:"protein_price"`
}

// Calculate returns the price per standard unit and the price per 10g protein.
func Calculate(in Input) (Result, error) {
	qtyUnit, err := ParseUnit(in.QtyUnit)
	if err != nil {
		return Result{}, fmt.Errorf("qty_unit: %w", err)
	}
	perUnit, err := ParseUnit(in.ProteinPerUnit)
	if err != nil {
		return Result{}, fmt.Errorf("protein_per_unit: %w", err)
	}
	if qtyUnit.IsSingle() != perUnit.IsSingle() {
		return Result{}, ErrIncompatibleUnit
	}
	if in.Price.IsNegative() {
		return Result{}, fmt.Errorf("price_value: %w", ErrNonPositive)
	}
	if !in.Qty.IsPositive() {
		return Result{}, fmt.Errorf("qty_value: %w", ErrNonPositive)
	}
	if !in.Protein.IsPositive() {
		return Result{}, fmt.Errorf("protein_value: %w", ErrNonPositive)
	}
	if !in.ProteinPer.IsPositive() {
		return Result{}, fmt.Errorf("protein_per_value: %w", ErrNonPositive)
	}

	qty, unit := Standardize(in.Qty, qtyUnit)
	per, _ := Standardize(in.ProteinPer, perUnit)

	unitPrice := in.Price.Div(qty)
	proteinPerStd := in.Protein.Div(per)
	return Result{
		Unit:         unit,
		Qty:          qty,
		UnitPrice:    unitPrice,
		ProteinPer:   per,
		ProteinPrice: unitPrice.Mul(ten).Div(proteinPerStd),
	}, nil
}

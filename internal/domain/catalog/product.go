package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/frugalprotein-backend/internal/pkg/pointers"
)

// PlaceholderImage is stored on every product until a real image is scraped.
const PlaceholderImage = "product_images/default.png"

type Product struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`

	Description *string    `gorm:"column:description;size:255" json:"description,omitempty"`
	BrandID     *uuid.UUID `gorm:"type:uuid;column:brand_id;index" json:"brand_id,omitempty"`
	Brand       *Brand     `gorm:"foreignKey:BrandID;references:ID;constraint:OnDelete:RESTRICT" json:"brand,omitempty"`

	// Quantity group, written together.
	Qty               *decimal.Decimal `gorm:"column:qty;type:decimal(8,5)" json:"qty,omitempty"`
	NumOfUnits        *decimal.Decimal `gorm:"column:num_of_units;type:decimal(4,1)" json:"num_of_units,omitempty"`
	TotalQty          *decimal.Decimal `gorm:"column:total_qty;type:decimal(8,5)" json:"total_qty,omitempty"`
	UnitOfMeasurement *string          `gorm:"column:unit_of_measurement;size:4" json:"unit_of_measurement,omitempty"`

	// Nutrition group (per 100g/ml), written together.
	Header  *string          `gorm:"column:header;size:255" json:"header,omitempty"`
	Kcal    *decimal.Decimal `gorm:"column:kcal;type:decimal(5,1)" json:"kcal,omitempty"`
	Fat     *decimal.Decimal `gorm:"column:fat;type:decimal(5,1)" json:"fat,omitempty"`
	Carb    *decimal.Decimal `gorm:"column:carb;type:decimal(5,1)" json:"carb,omitempty"`
	Protein *decimal.Decimal `gorm:"column:protein;type:decimal(5,1);index" json:"protein,omitempty"`

	Barcode   *string `gorm:"column:barcode;size:20;uniqueIndex:uq_product_barcode" json:"barcode,omitempty"`
	TescoID   *string `gorm:"column:tesco_id;size:32;uniqueIndex:uq_product_tesco_id" json:"tesco_id,omitempty"`
	IcelandID *string `gorm:"column:iceland_id;size:32;uniqueIndex:uq_product_iceland_id" json:"iceland_id,omitempty"`

	TescoBasePrice  *decimal.Decimal `gorm:"column:tesco_base_price;type:decimal(6,2)" json:"tesco_base_price,omitempty"`
	TescoSalePrice  *decimal.Decimal `gorm:"column:tesco_sale_price;type:decimal(6,2)" json:"tesco_sale_price,omitempty"`
	TescoOfferPrice *decimal.Decimal `gorm:"column:tesco_offer_price;type:decimal(6,2)" json:"tesco_offer_price,omitempty"`
	TescoOfferText  *string          `gorm:"column:tesco_offer_text;size:255" json:"tesco_offer_text,omitempty"`

	IcelandBasePrice  *decimal.Decimal `gorm:"column:iceland_base_price;type:decimal(6,2)" json:"iceland_base_price,omitempty"`
	IcelandSalePrice  *decimal.Decimal `gorm:"column:iceland_sale_price;type:decimal(6,2)" json:"iceland_sale_price,omitempty"`
	IcelandOfferPrice *decimal.Decimal `gorm:"column:iceland_offer_price;type:decimal(6,2)" json:"iceland_offer_price,omitempty"`
	IcelandOfferText  *string          `gorm:"column:iceland_offer_text;size:255" json:"iceland_offer_text,omitempty"`

	Image string `gorm:"column:image;size:255;not null" json:"image"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Product) TableName() string { return "product" }

func (p *Product) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	if strings.TrimSpace(p.Image) == "" {
		p.Image = PlaceholderImage
	}
	return nil
}

// StoreID returns the product's id at store, nil when unknown or blank.
func (p *Product) StoreID(s Store) *string {
	acc, ok := storeFields[s]
	if !ok {
		return nil
	}
	return nonBlank(*acc.id(p))
}

func (p *Product) SetStoreID(s Store, pid string) {
	if acc, ok := storeFields[s]; ok {
		*acc.id(p) = pointers.Ptr(pid)
	}
}

// Price returns the store's price group as currently held on the record.
func (p *Product) Price(s Store) PriceGroup {
	acc, ok := storeFields[s]
	if !ok {
		return PriceGroup{}
	}
	refs := acc.price(p)
	return PriceGroup{BasePrice: *refs.base, SalePrice: *refs.sale, OfferPrice: *refs.offer, OfferText: *refs.text}
}

func (p *Product) SetPrice(s Store, g PriceGroup) {
	acc, ok := storeFields[s]
	if !ok {
		return
	}
	refs := acc.price(p)
	*refs.base, *refs.sale, *refs.offer, *refs.text = g.BasePrice, g.SalePrice, g.OfferPrice, g.OfferText
}

func (p *Product) HasDescription() bool { return nonBlank(p.Description) != nil }
func (p *Product) HasQuantity() bool    { return p.Qty != nil }
func (p *Product) HasNutrition() bool   { return p.Protein != nil }

// HasImage is false for the placeholder.
func (p *Product) HasImage() bool {
	img := strings.TrimSpace(p.Image)
	return img != "" && img != PlaceholderImage
}

// Quantity returns the quantity group, nil when unset.
func (p *Product) Quantity() *QuantityGroup {
	if p.Qty == nil || p.NumOfUnits == nil || p.TotalQty == nil || p.UnitOfMeasurement == nil {
		return nil
	}
	return &QuantityGroup{Qty: *p.Qty, NumOfUnits: *p.NumOfUnits, TotalQty: *p.TotalQty, UnitOfMeasurement: *p.UnitOfMeasurement}
}

func (p *Product) SetQuantity(q QuantityGroup) {
	p.Qty, p.NumOfUnits = pointers.Ptr(q.Qty), pointers.Ptr(q.NumOfUnits)
	p.TotalQty, p.UnitOfMeasurement = pointers.Ptr(q.TotalQty), pointers.Ptr(q.UnitOfMeasurement)
}

// Nutrition returns the nutrition group, nil when unset.
func (p *Product) Nutrition() *NutritionGroup {
	if p.Protein == nil {
		return nil
	}
	n := NutritionGroup{Protein: *p.Protein}
	if p.Header != nil {
		n.Header = *p.Header
	}
	if p.Kcal != nil {
		n.Kcal = *p.Kcal
	}
	if p.Fat != nil {
		n.Fat = *p.Fat
	}
	if p.Carb != nil {
		n.Carb = *p.Carb
	}
	return &n
}

func (p *Product) SetNutrition(n NutritionGroup) {
	p.Header = pointers.Ptr(n.Header)
	p.Kcal, p.Fat, p.Carb, p.Protein = pointers.Ptr(n.Kcal), pointers.Ptr(n.Fat), pointers.Ptr(n.Carb), pointers.Ptr(n.Protein)
}

func nonBlank(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}

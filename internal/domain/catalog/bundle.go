package catalog

// IdentityPair is one (barcode, store product id) observation from an id scrape.
type IdentityPair struct {
	Barcode  *string `json:"barcode"`
	StorePID string  `json:"store_pid"`
}

// InfoBundle is a sparse set of scraped attributes. Nil members were not scraped.
type InfoBundle struct {
	Description *string         `json:"description,omitempty"`
	Brand       *string         `json:"brand,omitempty"`
	Qty         *QuantityGroup  `json:"qty,omitempty"`
	Nutrition   *NutritionGroup `json:"nutrition,omitempty"`
	Price       *PriceGroup     `json:"price,omitempty"`
	Image       []byte          `json:"-"`
}

// Info keys accepted by the scraper's exclusive/exclude filters.
const (
	InfoKeyDescription = "description"
	InfoKeyBrand       = "brand"
	InfoKeyQty         = "qty"
	InfoKeyNutrition   = "nutrition"
	InfoKeyPrice       = "price"
	InfoKeyImage       = "img"
)

var InfoKeys = []string{InfoKeyDescription, InfoKeyBrand, InfoKeyQty, InfoKeyNutrition, InfoKeyPrice, InfoKeyImage}

func ValidInfoKey(k string) bool {
	for _, v := range InfoKeys {
		if v == k {
			return true
		}
	}
	return false
}

// Empty reports whether the bundle carries nothing to merge.
func (b InfoBundle) Empty() bool {
	return b.Description == nil && b.Brand == nil && b.Qty == nil && b.Nutrition == nil && b.Price == nil && len(b.Image) == 0
}

package catalog

import (
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Store names a retailer the scrapers know how to read. The name doubles as
// the column prefix for the store's id and price fields.
type Store string

const (
	StoreTesco   Store = "tesco"
	StoreIceland Store = "iceland"
)

// AllStores is every store with columns on the product table.
var AllStores = []Store{StoreIceland, StoreTesco}

func (s Store) String() string { return string(s) }

func (s Store) Valid() bool {
	_, ok := storeFields[s]
	return ok
}

// IDColumn is the product column holding this store's product id.
func (s Store) IDColumn() string { return string(s) + "_id" }

// BasePriceColumn gates fill-only price merges.
func (s Store) BasePriceColumn() string { return string(s) + "_" + PriceBase }

func ParseStore(raw string) (Store, error) {
	s := Store(strings.ToLower(strings.TrimSpace(raw)))
	if !s.Valid() {
		return "", fmt.Errorf("unknown store %q (supported: %s)", raw, strings.Join(StoreNames(), ", "))
	}
	return s, nil
}

func StoreNames() []string {
	out := make([]string, 0, len(storeFields))
	for s := range storeFields {
		out = append(out, string(s))
	}
	sort.Strings(out)
	return out
}

type storeAccessors struct {
	id    func(p *Product) **string
	price func(p *Product) priceRefs
}

type priceRefs struct {
	base, sale, offer **decimal.Decimal
	text              **string
}

var storeFields = map[Store]storeAccessors{
	StoreTesco: {
		id: func(p *Product) **string { return &p.TescoID },
		price: func(p *Product) priceRefs {
			return priceRefs{base: &p.TescoBasePrice, sale: &p.TescoSalePrice, offer: &p.TescoOfferPrice, text: &p.TescoOfferText}
		},
	},
	StoreIceland: {
		id: func(p *Product) **string { return &p.IcelandID },
		price: func(p *Product) priceRefs {
			return priceRefs{base: &p.IcelandBasePrice, sale: &p.IcelandSalePrice, offer: &p.IcelandOfferPrice, text: &p.IcelandOfferText}
		},
	},
}

package reconcile

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	catalogrepo "github.com/yungbote/frugalprotein-backend/internal/data/repos/catalog"
	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/platform/dbctx"
)

// IsValidIdentityPair reports whether pair carries a store product id.
func IsValidIdentityPair(pair types.IdentityPair) bool {
	return strings.TrimSpace(pair.StorePID) != ""
}

// NormalizePair trims both keys and turns a blank barcode into nil.
func NormalizePair(pair types.IdentityPair) types.IdentityPair {
	out := types.IdentityPair{StorePID: strings.TrimSpace(pair.StorePID)}
	if pair.Barcode != nil {
		if b := strings.TrimSpace(*pair.Barcode); b != "" {
			out.Barcode = &b
		}
	}
	return out
}

// NamespaceKeys returns a copy of fields with every key prefixed by "<store>_".
func NamespaceKeys(fields map[string]any, store types.Store) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[string(store)+"_"+k] = v
	}
	return out
}

// ResolveBrand returns the id of the brand named name, creating the brand on
// first encounter. A name that is blank once canonicalised yields nil.
func ResolveBrand(dbc dbctx.Context, brands catalogrepo.BrandRepo, name string) (*uuid.UUID, error) {
	if types.CanonicalBrandName(name) == "" {
		return nil, nil
	}
	b, err := brands.GetOrCreate(dbc, name)
	if err != nil || b == nil {
		return nil, err
	}
	id := b.ID
	return &id, nil
}

// columnValue unwraps typed nil pointers so they reach the driver as NULL.
func columnValue(v any) any {
	switch t := v.(type) {
	case *decimal.Decimal:
		if t == nil {
			return nil
		}
		return *t
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case *uuid.UUID:
		if t == nil {
			return nil
		}
		return *t
	default:
		return v
	}
}

package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/yungbote/frugalprotein-backend/internal/data/repos/testutil"
	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/platform/dbctx"
)

func TestProductRepoFindByIdentity(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.New(context.Background())
	repo := NewProductRepo(db, testutil.Logger(t))

	a := testutil.SeedProduct(t, db, &types.Product{Barcode: testutil.Str("5000"), TescoID: testutil.Str("11")})
	b := testutil.SeedProduct(t, db, &types.Product{IcelandID: testutil.Str("22")})
	testutil.SeedProduct(t, db, &types.Product{})

	got, err := repo.FindByIdentity(dbc, types.StoreTesco, testutil.Str("5000"), "99")
	if err != nil || len(got) != 1 || got[0].ID != a.ID {
		t.Fatalf("FindByIdentity barcode: got=%v err=%v", got, err)
	}
	got, err = repo.FindByIdentity(dbc, types.StoreIceland, nil, "22")
	if err != nil || len(got) != 1 || got[0].ID != b.ID {
		t.Fatalf("FindByIdentity store id: got=%v err=%v", got, err)
	}
	got, err = repo.FindByIdentity(dbc, types.StoreIceland, testutil.Str("5000"), "22")
	if err != nil || len(got) != 2 {
		t.Fatalf("FindByIdentity both: want=2 got=%d err=%v", len(got), err)
	}
	// A nil barcode must not match rows whose barcode is NULL.
	got, err = repo.FindByIdentity(dbc, types.StoreTesco, nil, "404")
	if err != nil || len(got) != 0 {
		t.Fatalf("FindByIdentity nil barcode: want=0 got=%d err=%v", len(got), err)
	}
	if _, err := repo.FindByIdentity(dbc, types.Store("aldi"), nil, "1"); err == nil {
		t.Fatalf("FindByIdentity unknown store: expected error")
	}
}

func TestProductRepoUniqueIndexes(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.New(context.Background())
	repo := NewProductRepo(db, testutil.Logger(t))

	testutil.SeedProduct(t, db, &types.Product{Barcode: testutil.Str("1"), TescoID: testutil.Str("11")})
	// NULL barcodes and store ids never collide.
	testutil.SeedProduct(t, db, &types.Product{})
	testutil.SeedProduct(t, db, &types.Product{})

	err := repo.Create(dbc, &types.Product{Barcode: testutil.Str("2"), TescoID: testutil.Str("11")})
	if _, dup := UniqueViolation(err); !dup {
		t.Fatalf("Create duplicate tesco id: want unique violation got=%v", err)
	}
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Fatalf("Create duplicate tesco id: want gorm.ErrDuplicatedKey got=%v", err)
	}
}

func TestProductRepoCandidates(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.New(context.Background())
	repo := NewProductRepo(db, testutil.Logger(t))

	bare := testutil.SeedProduct(t, db, &types.Product{TescoID: testutil.Str("1")})
	blank := testutil.SeedProduct(t, db, &types.Product{TescoID: testutil.Str("2"), Description: testutil.Str("  ")})
	complete := testutil.CompleteProduct("chicken breast", "24")
	complete.TescoID = testutil.Str("3")
	testutil.SeedProduct(t, db, complete)
	otherStore := testutil.SeedProduct(t, db, &types.Product{IcelandID: testutil.Str("4")})

	info, err := repo.InfoCandidateIDs(dbc, types.StoreTesco)
	if err != nil || len(info) != 2 || !containsID(info, bare.ID) || !containsID(info, blank.ID) {
		t.Fatalf("InfoCandidateIDs tesco: got=%v err=%v", info, err)
	}
	price, err := repo.PriceCandidateIDs(dbc, types.StoreTesco)
	if err != nil || len(price) != 1 || price[0] != complete.ID {
		t.Fatalf("PriceCandidateIDs tesco: got=%v err=%v", price, err)
	}
	info, err = repo.InfoCandidateIDs(dbc, types.StoreIceland)
	if err != nil || len(info) != 1 || info[0] != otherStore.ID {
		t.Fatalf("InfoCandidateIDs iceland: got=%v err=%v", info, err)
	}
}

func TestProductRepoLiveCandidates(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.New(context.Background())
	repo := NewProductRepo(db, testutil.Logger(t))

	testutil.SeedProduct(t, db, testutil.CompleteProduct("whey", "80"))
	testutil.SeedProduct(t, db, testutil.CompleteProduct("edge", "10"))
	testutil.SeedProduct(t, db, testutil.CompleteProduct("bread", "9.5"))
	testutil.SeedProduct(t, db, &types.Product{Protein: testutil.Dec("30")})

	got, err := repo.LiveCandidates(dbc, decimal.NewFromInt(10))
	if err != nil || len(got) != 2 {
		t.Fatalf("LiveCandidates: want=2 got=%d err=%v", len(got), err)
	}
}

func TestProductRepoSearchAndBrandChoices(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.New(context.Background())
	repo := NewProductRepo(db, testutil.Logger(t))

	tesco := testutil.SeedBrand(t, db, "Tesco")
	mp := testutil.SeedBrand(t, db, "MyProtein")
	other := testutil.SeedBrand(t, db, "Warburtons")

	testutil.SeedProduct(t, db, &types.Product{Description: testutil.Str("Tesco Chicken Breast"), BrandID: &tesco.ID})
	testutil.SeedProduct(t, db, &types.Product{Description: testutil.Str("Roast chicken slices"), BrandID: &mp.ID})
	testutil.SeedProduct(t, db, &types.Product{Description: testutil.Str("White bread"), BrandID: &other.ID})

	got, err := repo.Search(dbc, "CHICKEN", "", 10)
	if err != nil || len(got) != 2 {
		t.Fatalf("Search: want=2 got=%d err=%v", len(got), err)
	}
	if got[0].Brand == nil {
		t.Fatalf("Search: brand not preloaded")
	}
	got, err = repo.Search(dbc, "chicken", "MyProtein", 10)
	if err != nil || len(got) != 1 || *got[0].Description != "Roast chicken slices" {
		t.Fatalf("Search with brand: got=%v err=%v", got, err)
	}

	brands, err := repo.BrandChoices(dbc, "chicken")
	if err != nil || len(brands) != 2 {
		t.Fatalf("BrandChoices: want=2 got=%d err=%v", len(brands), err)
	}
	if brands[0].Name != "MyProtein" || brands[1].Name != "Tesco" {
		t.Fatalf("BrandChoices order: got=%s,%s", brands[0].Name, brands[1].Name)
	}
}

func TestProductRepoDeleteAll(t *testing.T) {
	db := testutil.DB(t)
	dbc := dbctx.New(context.Background())
	repo := NewProductRepo(db, testutil.Logger(t))

	testutil.SeedProduct(t, db, &types.Product{})
	testutil.SeedProduct(t, db, &types.Product{})
	if err := repo.DeleteAll(dbc); err != nil {
		t.Fatalf("DeleteAll: %v", err)
	}
	if n, err := repo.Count(dbc); err != nil || n != 0 {
		t.Fatalf("Count after DeleteAll: want=0 got=%d err=%v", n, err)
	}
}

func containsID(ids []uuid.UUID, id uuid.UUID) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

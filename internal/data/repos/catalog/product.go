package catalog

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	dbpkg "github.com/yungbote/frugalprotein-backend/internal/data/db"
	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/platform/dbctx"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

type ProductRepo interface {
	Create(dbc dbctx.Context, row *types.Product) error
	CreateBatch(dbc dbctx.Context, rows []*types.Product, batchSize int) error

	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error)
	// LockByID re-reads a product inside the caller's transaction. On Postgres
	// the row is locked until the transaction ends.
	LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error)
	GetByBarcode(dbc dbctx.Context, barcode string) (*types.Product, error)
	FindByIdentity(dbc dbctx.Context, store types.Store, barcode *string, storePID string) ([]*types.Product, error)

	InfoCandidateIDs(dbc dbctx.Context, store types.Store) ([]uuid.UUID, error)
	PriceCandidateIDs(dbc dbctx.Context, store types.Store) ([]uuid.UUID, error)
	LiveCandidates(dbc dbctx.Context, proteinThreshold decimal.Decimal) ([]*types.Product, error)

	Search(dbc dbctx.Context, query string, brand string, limit int) ([]*types.Product, error)
	BrandChoices(dbc dbctx.Context, query string) ([]*types.Brand, error)

	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
	DeleteAll(dbc dbctx.Context) error
	Count(dbc dbctx.Context) (int64, error)
}

type productRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewProductRepo(db *gorm.DB, baseLog *logger.Logger) ProductRepo {
	return &productRepo{db: db, log: baseLog.With("repo", "ProductRepo")}
}

const (
	descriptionMissing = "(product.description IS NULL OR TRIM(product.description) = '')"
	descriptionPresent = "(product.description IS NOT NULL AND TRIM(product.description) <> '')"
)

func (r *productRepo) Create(dbc dbctx.Context, row *types.Product) error {
	if row == nil {
		return nil
	}
	return dbc.Handle(r.db).Omit(clause.Associations).Create(row).Error
}

// CreateBatch inserts rows as-is, IDs and brand references included.
func (r *productRepo) CreateBatch(dbc dbctx.Context, rows []*types.Product, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return dbc.Handle(r.db).Omit(clause.Associations).CreateInBatches(rows, batchSize).Error
}

func (r *productRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.Product
	err := dbc.Handle(r.db).Preload("Brand").Where("id = ?", id).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *productRepo) LockByID(dbc dbctx.Context, id uuid.UUID) (*types.Product, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	q := dbc.Handle(r.db)
	if dbpkg.IsPostgres(q) {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row types.Product
	if err := q.Where("id = ?", id).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *productRepo) GetByBarcode(dbc dbctx.Context, barcode string) (*types.Product, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, nil
	}
	var row types.Product
	err := dbc.Handle(r.db).Preload("Brand").Where("barcode = ?", barcode).First(&row).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// FindByIdentity returns every product whose barcode equals barcode or whose
// store id equals storePID. A nil or blank barcode never matches.
func (r *productRepo) FindByIdentity(dbc dbctx.Context, store types.Store, barcode *string, storePID string) ([]*types.Product, error) {
	if !store.Valid() {
		return nil, fmt.Errorf("unknown store %q", store)
	}
	storePID = strings.TrimSpace(storePID)
	hasBarcode := barcode != nil && strings.TrimSpace(*barcode) != ""
	if storePID == "" && !hasBarcode {
		return []*types.Product{}, nil
	}

	q := dbc.Handle(r.db).Model(&types.Product{})
	switch {
	case hasBarcode && storePID != "":
		q = q.Where("(barcode = ? OR "+store.IDColumn()+" = ?)", strings.TrimSpace(*barcode), storePID)
	case hasBarcode:
		q = q.Where("barcode = ?", strings.TrimSpace(*barcode))
	default:
		q = q.Where(store.IDColumn()+" = ?", storePID)
	}

	var out []*types.Product
	if err := q.Order("created_at ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// InfoCandidateIDs lists products anchored to store that still lack a
// description, quantity or nutrition.
func (r *productRepo) InfoCandidateIDs(dbc dbctx.Context, store types.Store) ([]uuid.UUID, error) {
	if !store.Valid() {
		return nil, fmt.Errorf("unknown store %q", store)
	}
	var ids []uuid.UUID
	err := dbc.Handle(r.db).Model(&types.Product{}).
		Where(anchoredTo(store)).
		Where("(" + descriptionMissing + " OR product.qty IS NULL OR product.protein IS NULL)").
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

// PriceCandidateIDs lists products anchored to store with description,
// quantity and nutrition all known.
func (r *productRepo) PriceCandidateIDs(dbc dbctx.Context, store types.Store) ([]uuid.UUID, error) {
	if !store.Valid() {
		return nil, fmt.Errorf("unknown store %q", store)
	}
	var ids []uuid.UUID
	err := dbc.Handle(r.db).Model(&types.Product{}).
		Where(anchoredTo(store)).
		Where(descriptionPresent).
		Where("product.qty IS NOT NULL AND product.protein IS NOT NULL").
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}

func (r *productRepo) LiveCandidates(dbc dbctx.Context, proteinThreshold decimal.Decimal) ([]*types.Product, error) {
	var out []*types.Product
	err := dbc.Handle(r.db).
		Where("product.protein IS NOT NULL AND product.protein >= ?", proteinThreshold).
		Where("product.description IS NOT NULL AND product.qty IS NOT NULL").
		Order("created_at ASC").
		Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Search matches description case-insensitively. brand, when set, must equal
// the brand's canonical name.
func (r *productRepo) Search(dbc dbctx.Context, query string, brand string, limit int) ([]*types.Product, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	q := dbc.Handle(r.db).Preload("Brand").Model(&types.Product{})
	if pattern := likePattern(query); pattern != "" {
		q = q.Where("LOWER(product.description) LIKE ?", pattern)
	}
	if brand = types.CanonicalBrandName(brand); brand != "" {
		q = q.Joins("JOIN brand ON brand.id = product.brand_id").Where("brand.name = ?", brand)
	}
	var out []*types.Product
	if err := q.Order("product.description ASC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// BrandChoices lists the distinct brands of products whose description
// matches query, ordered by name.
func (r *productRepo) BrandChoices(dbc dbctx.Context, query string) ([]*types.Brand, error) {
	q := dbc.Handle(r.db).Model(&types.Brand{}).
		Distinct("brand.id", "brand.name", "brand.created_at").
		Joins("JOIN product ON product.brand_id = brand.id")
	if pattern := likePattern(query); pattern != "" {
		q = q.Where("LOWER(product.description) LIKE ?", pattern)
	}
	var out []*types.Brand
	if err := q.Order("brand.name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *productRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return dbc.Handle(r.db).Model(&types.Product{}).Where("id = ?", id).Updates(updates).Error
}

func (r *productRepo) DeleteAll(dbc dbctx.Context) error {
	return dbc.Handle(r.db).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&types.Product{}).Error
}

func (r *productRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.Handle(r.db).Model(&types.Product{}).Count(&n).Error
	return n, err
}

func anchoredTo(store types.Store) string {
	col := "product." + store.IDColumn()
	return col + " IS NOT NULL AND TRIM(" + col + ") <> ''"
}

func likePattern(query string) string {
	query = strings.ToLower(strings.Join(strings.Fields(query), " "))
	if query == "" {
		return ""
	}
	return "%" + query + "%"
}

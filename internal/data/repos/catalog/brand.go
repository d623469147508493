package catalog

import (
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/platform/dbctx"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

type BrandRepo interface {
	GetByName(dbc dbctx.Context, name string) (*types.Brand, error)
	GetOrCreate(dbc dbctx.Context, name string) (*types.Brand, error)
	GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Brand, error)
	CreateBatch(dbc dbctx.Context, rows []*types.Brand, batchSize int) error
	DeleteAll(dbc dbctx.Context) error
	Count(dbc dbctx.Context) (int64, error)
}

type brandRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewBrandRepo(db *gorm.DB, baseLog *logger.Logger) BrandRepo {
	return &brandRepo{db: db, log: baseLog.With("repo", "BrandRepo")}
}

func (r *brandRepo) GetByName(dbc dbctx.Context, name string) (*types.Brand, error) {
	name = types.CanonicalBrandName(name)
	if name == "" {
		return nil, nil
	}
	var row types.Brand
	err := dbc.Handle(r.db).Where("name = ?", name).Limit(1).Find(&row).Error
	if err != nil {
		return nil, err
	}
	if row.ID == uuid.Nil {
		return nil, nil
	}
	return &row, nil
}

// GetOrCreate returns the brand with the canonical form of name, creating it
// on first encounter. A blank name yields (nil, nil).
func (r *brandRepo) GetOrCreate(dbc dbctx.Context, name string) (*types.Brand, error) {
	name = types.CanonicalBrandName(name)
	if name == "" {
		return nil, nil
	}
	existing, err := r.GetByName(dbc, name)
	if err != nil || existing != nil {
		return existing, err
	}
	row := &types.Brand{Name: name}
	if err := dbc.Handle(r.db).Create(row).Error; err != nil {
		if _, dup := UniqueViolation(err); dup && dbc.Tx == nil {
			// Lost a create race outside a transaction; the winner's row is readable.
			return r.GetByName(dbc, name)
		}
		return nil, fmt.Errorf("create brand %q: %w", name, err)
	}
	r.log.Debug("Brand created", "brand", name, "id", row.ID)
	return row, nil
}

func (r *brandRepo) GetByIDs(dbc dbctx.Context, ids []uuid.UUID) ([]*types.Brand, error) {
	var out []*types.Brand
	if len(ids) == 0 {
		return out, nil
	}
	if err := dbc.Handle(r.db).Where("id IN ?", ids).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

// CreateBatch inserts rows keeping their IDs.
func (r *brandRepo) CreateBatch(dbc dbctx.Context, rows []*types.Brand, batchSize int) error {
	if len(rows) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 500
	}
	return dbc.Handle(r.db).CreateInBatches(rows, batchSize).Error
}

func (r *brandRepo) DeleteAll(dbc dbctx.Context) error {
	return dbc.Handle(r.db).Session(&gorm.Session{AllowGlobalUpdate: true}).Delete(&types.Brand{}).Error
}

func (r *brandRepo) Count(dbc dbctx.Context) (int64, error) {
	var n int64
	err := dbc.Handle(r.db).Model(&types.Brand{}).Count(&n).Error
	return n, err
}

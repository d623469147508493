package catalog

import (
	"gorm.io/gorm"

	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/platform/dbctx"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

type ConflictRepo interface {
	Create(dbc dbctx.Context, row *types.IdentityConflict) error
	ListRecent(dbc dbctx.Context, limit int) ([]*types.IdentityConflict, error)
}

type conflictRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewConflictRepo(db *gorm.DB, baseLog *logger.Logger) ConflictRepo {
	return &conflictRepo{db: db, log: baseLog.With("repo", "ConflictRepo")}
}

func (r *conflictRepo) Create(dbc dbctx.Context, row *types.IdentityConflict) error {
	if row == nil {
		return nil
	}
	return dbc.Handle(r.db).Create(row).Error
}

func (r *conflictRepo) ListRecent(dbc dbctx.Context, limit int) ([]*types.IdentityConflict, error) {
	if limit <= 0 {
		limit = 100
	}
	var out []*types.IdentityConflict
	if err := dbc.Handle(r.db).Order("created_at DESC").Limit(limit).Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

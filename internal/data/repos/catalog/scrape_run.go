package catalog

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	types "github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
	"github.com/yungbote/frugalprotein-backend/internal/platform/dbctx"
	"github.com/yungbote/frugalprotein-backend/internal/platform/logger"
)

type ScrapeRunRepo interface {
	Create(dbc dbctx.Context, row *types.ScrapeRun) error
	GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ScrapeRun, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error
}

type scrapeRunRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewScrapeRunRepo(db *gorm.DB, baseLog *logger.Logger) ScrapeRunRepo {
	return &scrapeRunRepo{db: db, log: baseLog.With("repo", "ScrapeRunRepo")}
}

func (r *scrapeRunRepo) Create(dbc dbctx.Context, row *types.ScrapeRun) error {
	if row == nil {
		return nil
	}
	return dbc.Handle(r.db).Create(row).Error
}

func (r *scrapeRunRepo) GetByID(dbc dbctx.Context, id uuid.UUID) (*types.ScrapeRun, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var row types.ScrapeRun
	if err := dbc.Handle(r.db).Where("id = ?", id).First(&row).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

func (r *scrapeRunRepo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]interface{}) error {
	if id == uuid.Nil || len(updates) == 0 {
		return nil
	}
	return dbc.Handle(r.db).Model(&types.ScrapeRun{}).Where("id = ?", id).Updates(updates).Error
}

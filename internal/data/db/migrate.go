package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/frugalprotein-backend/internal/domain/catalog"
)

// MigrateCatalog creates the brand and product tables. The live database only
// ever receives these two.
func MigrateCatalog(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&catalog.Brand{},
		&catalog.Product{},
	); err != nil {
		return fmt.Errorf("migrate catalog: %w", err)
	}
	return nil
}

// MigratePrimary adds the bookkeeping tables that only the working dataset keeps.
func MigratePrimary(db *gorm.DB) error {
	if err := MigrateCatalog(db); err != nil {
		return err
	}
	if err := db.AutoMigrate(
		&catalog.IdentityConflict{},
		&catalog.ScrapeRun{},
	); err != nil {
		return fmt.Errorf("migrate primary: %w", err)
	}
	return nil
}

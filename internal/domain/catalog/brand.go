package catalog

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Brand struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string    `gorm:"column:name;size:255;not null;uniqueIndex:uq_brand_name" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

func (Brand) TableName() string { return "brand" }

func (b *Brand) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// CanonicalBrandName trims the name and collapses inner whitespace. Case is
// preserved: brand identity is an exact, case-sensitive match on this form.
func CanonicalBrandName(raw string) string {
	return strings.Join(strings.Fields(raw), " ")
}

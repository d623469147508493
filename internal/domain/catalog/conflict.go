package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ConflictReason string

const (
	// ConflictMultipleMatches: barcode and store id point at different records.
	ConflictMultipleMatches ConflictReason = "multiple_matches"
	// ConflictKeyMismatch: the single match already holds a different value for the other key.
	ConflictKeyMismatch ConflictReason = "key_mismatch"
	// ConflictUniqueViolation: the storage layer rejected the write.
	ConflictUniqueViolation ConflictReason = "unique_violation"
)

// IdentityConflict is kept for manual follow-up. Nothing in the pipeline
// resolves or deletes these.
type IdentityConflict struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Store      string         `gorm:"column:store;size:32;not null;index" json:"store"`
	Barcode    *string        `gorm:"column:barcode;size:20" json:"barcode,omitempty"`
	StorePID   string         `gorm:"column:store_pid;size:32;not null" json:"store_pid"`
	Reason     ConflictReason `gorm:"column:reason;size:32;not null;index" json:"reason"`
	MatchedIDs datatypes.JSON `gorm:"column:matched_ids" json:"matched_ids"`
	Detail     string         `gorm:"column:detail;type:text" json:"detail,omitempty"`
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`
}

func (IdentityConflict) TableName() string { return "identity_conflict" }

func (c *IdentityConflict) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

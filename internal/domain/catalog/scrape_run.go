package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ScrapeRunRunning   = "running"
	ScrapeRunSucceeded = "succeeded"
	ScrapeRunFailed    = "failed"
)

// ScrapeRun audits one orchestrator invocation.
type ScrapeRun struct {
	ID         uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	Mode       string         `gorm:"column:mode;size:16;not null;index" json:"mode"`
	Target     string         `gorm:"column:target;size:16;not null" json:"target"`
	Stores     datatypes.JSON `gorm:"column:stores" json:"stores"`
	Status     string         `gorm:"column:status;size:16;not null;index" json:"status"`
	Stats      datatypes.JSON `gorm:"column:stats" json:"stats"`
	Error      string         `gorm:"column:error;type:text" json:"error,omitempty"`
	StartedAt  time.Time      `gorm:"column:started_at;not null" json:"started_at"`
	FinishedAt *time.Time     `gorm:"column:finished_at" json:"finished_at,omitempty"`
}

func (ScrapeRun) TableName() string { return "scrape_run" }

func (r *ScrapeRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ModelStatusActive     = "active"
	ModelStatusArchived   = "archived"
	ModelStatusDeprecated = "deprecated"
)

// ModelRecord is one trained model version. Records are written once and never
// mutated in place; a new version supersedes, a status transition soft-deletes.
type ModelRecord struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ModelID     string         `gorm:"column:model_id;not null;index;uniqueIndex:idx_model_record_model_version" json:"model_id"`
	Version     string         `gorm:"column:version;not null;uniqueIndex:idx_model_record_model_version" json:"version"`
	Config      datatypes.JSON `gorm:"type:jsonb;column:config;not null" json:"config"`
	Weights     string         `gorm:"column:weights;not null" json:"weights"`
	Categories  datatypes.JSON `gorm:"type:jsonb;column:categories;not null" json:"categories"`
	TrainedOn   *string        `gorm:"column:trained_on" json:"trained_on,omitempty"`
	Tags        datatypes.JSON `gorm:"type:jsonb;column:tags" json:"tags,omitempty"`
	Status      string         `gorm:"column:status;not null;default:active;index" json:"status"`
	Description string         `gorm:"column:description" json:"description"`
	CreatedAt   time.Time      `gorm:"column:created_at;not null" json:"created_at"`
}

func (ModelRecord) TableName() string {
	return "model_record"
}

func (m *ModelRecord) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}

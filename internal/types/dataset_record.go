package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Example is one labeled training pair. Both fields are stored as strings with
// explicit JSON keys so nested shape survives the write path intact.
type Example struct {
	Text  string `json:"text"`
	Label string `json:"label"`
}

// DatasetRecord is a named, immutable snapshot of labeled examples.
// Size always equals the length of the stored examples array.
type DatasetRecord struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	DatasetID string         `gorm:"column:dataset_id;not null;uniqueIndex" json:"dataset_id"`
	Examples  datatypes.JSON `gorm:"type:jsonb;column:examples;not null" json:"examples"`
	Size      int            `gorm:"column:size;not null" json:"size"`
	Metadata  datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	CreatedAt time.Time      `gorm:"column:created_at;not null" json:"created_at"`
}

func (DatasetRecord) TableName() string {
	return "dataset_record"
}

func (d *DatasetRecord) BeforeCreate(tx *gorm.DB) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	return nil
}

package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EmbeddingRecord is one vector entry in a named collection. Re-insertion with
// the same (collection_name, item_id) upserts in place. Position preserves
// insertion order within a batch so equal-similarity results stay deterministic.
type EmbeddingRecord struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CollectionName string         `gorm:"column:collection_name;not null;index;uniqueIndex:idx_embedding_collection_item" json:"collection_name"`
	ItemID         string         `gorm:"column:item_id;not null;uniqueIndex:idx_embedding_collection_item" json:"item_id"`
	Text           string         `gorm:"column:text" json:"text"`
	Embedding      datatypes.JSON `gorm:"type:jsonb;column:embedding;not null" json:"embedding"`
	Metadata       datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
	Position       int            `gorm:"column:position;not null;default:0" json:"position"`
	CreatedAt      time.Time      `gorm:"column:created_at;not null" json:"created_at"`
}

func (EmbeddingRecord) TableName() string {
	return "embedding_record"
}

func (e *EmbeddingRecord) BeforeCreate(tx *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

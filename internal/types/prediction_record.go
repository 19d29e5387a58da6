package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PredictionRecord is one inference event in the append-only ledger.
// Correct is set if and only if GroundTruth is present; it is never derived
// for unlabeled predictions.
type PredictionRecord struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	ModelID        string         `gorm:"column:model_id;not null;index:idx_prediction_model_ts" json:"model_id"`
	Version        string         `gorm:"column:version;not null" json:"version"`
	InputText      string         `gorm:"column:input_text" json:"input_text"`
	PredictedLabel string         `gorm:"column:predicted_label;not null" json:"predicted_label"`
	Confidence     float64        `gorm:"column:confidence" json:"confidence"`
	GroundTruth    *string        `gorm:"column:ground_truth" json:"ground_truth,omitempty"`
	Correct        *bool          `gorm:"column:correct" json:"correct,omitempty"`
	LatencyMS      float64        `gorm:"column:latency_ms" json:"latency_ms"`
	Timestamp      time.Time      `gorm:"column:timestamp;not null;index:idx_prediction_model_ts" json:"timestamp"`
	Metadata       datatypes.JSON `gorm:"type:jsonb;column:metadata" json:"metadata,omitempty"`
}

func (PredictionRecord) TableName() string {
	return "prediction_record"
}

func (p *PredictionRecord) BeforeCreate(tx *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// TimeRange bounds a ledger slice. Nil endpoints leave that side open.
type TimeRange struct {
	Start *time.Time
	End   *time.Time
}

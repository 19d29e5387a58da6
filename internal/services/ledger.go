package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"

	"github.com/modelvault/modelvault/internal/logger"
	"github.com/modelvault/modelvault/internal/repos"
	"github.com/modelvault/modelvault/internal/storeerr"
	"github.com/modelvault/modelvault/internal/types"
)

type AppendPredictionInput struct {
	ModelID        string
	Version        string
	InputText      string
	PredictedLabel string
	Confidence     float64
	GroundTruth    *string
	LatencyMS      float64
	Timestamp      *time.Time
	Metadata       map[string]any
}

// LedgerService appends inference events to the prediction log. The log is
// append-only; all reads go through the metrics service.
type LedgerService struct {
	predictions repos.PredictionRepo
	log         *logger.Logger
}

func NewLedgerService(predictions repos.PredictionRepo, baseLog *logger.Logger) *LedgerService {
	return &LedgerService{predictions: predictions, log: baseLog.With("service", "LedgerService")}
}

// Append writes one inference event. Correct is derived here, and only when
// ground truth is supplied. Confidence is recorded as given; out-of-range
// values are the caller's problem and the metrics side tolerates them.
func (s *LedgerService) Append(ctx context.Context, in AppendPredictionInput) error {
	const op = "log_prediction"
	if strings.TrimSpace(in.ModelID) == "" {
		return storeerr.Validation(op, "model_id is required")
	}
	if strings.TrimSpace(in.PredictedLabel) == "" {
		return storeerr.Validation(op, "predicted_label is required")
	}

	ts := time.Now().UTC()
	if in.Timestamp != nil {
		ts = in.Timestamp.UTC()
	}

	rec := &types.PredictionRecord{
		ModelID:        in.ModelID,
		Version:        in.Version,
		InputText:      in.InputText,
		PredictedLabel: in.PredictedLabel,
		Confidence:     in.Confidence,
		GroundTruth:    in.GroundTruth,
		LatencyMS:      in.LatencyMS,
		Timestamp:      ts,
	}
	if in.GroundTruth != nil {
		correct := in.PredictedLabel == *in.GroundTruth
		rec.Correct = &correct
	}
	if len(in.Metadata) > 0 {
		metaJSON, err := json.Marshal(in.Metadata)
		if err != nil {
			return storeerr.Validation(op, fmt.Sprintf("metadata not serializable: %v", err))
		}
		rec.Metadata = datatypes.JSON(metaJSON)
	}

	return s.predictions.Append(ctx, nil, rec)
}

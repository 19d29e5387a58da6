package ops

import (
	"context"
	"encoding/json"

	"github.com/modelvault/modelvault/internal/services"
)

type storeTrainingDataArgs struct {
	DatasetID string                `json:"dataset_id"`
	Examples  []services.RawExample `json:"examples"`
	Metadata  map[string]any        `json:"metadata,omitempty"`
}

type storeTrainingDataResult struct {
	RecordID  string `json:"record_id"`
	DatasetID string `json:"dataset_id"`
	Size      int    `json:"size"`
}

func (d *Dispatcher) storeTrainingData(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "store_training_data"
	var args storeTrainingDataArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}
	recordID, err := d.datasets.Store(ctx, args.DatasetID, args.Examples, args.Metadata)
	if err != nil {
		return nil, err
	}
	return storeTrainingDataResult{
		RecordID:  recordID.String(),
		DatasetID: args.DatasetID,
		Size:      len(args.Examples),
	}, nil
}

type loadTrainingDataArgs struct {
	DatasetID string `json:"dataset_id"`
}

func (d *Dispatcher) loadTrainingData(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "load_training_data"
	var args loadTrainingDataArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}
	return d.datasets.Load(ctx, args.DatasetID)
}

type logPredictionArgs struct {
	ModelID        string         `json:"model_id"`
	Version        string         `json:"version"`
	InputText      string         `json:"input_text"`
	PredictedLabel string         `json:"predicted_label"`
	Confidence     float64        `json:"confidence"`
	GroundTruth    *string        `json:"ground_truth,omitempty"`
	LatencyMS      float64        `json:"latency_ms"`
	Timestamp      string         `json:"timestamp,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
}

type logPredictionResult struct {
	Logged bool `json:"logged"`
}

func (d *Dispatcher) logPrediction(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "log_prediction"
	var args logPredictionArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}
	ts, err := parseTime(op, "timestamp", args.Timestamp)
	if err != nil {
		return nil, err
	}
	err = d.ledger.Append(ctx, services.AppendPredictionInput{
		ModelID:        args.ModelID,
		Version:        args.Version,
		InputText:      args.InputText,
		PredictedLabel: args.PredictedLabel,
		Confidence:     args.Confidence,
		GroundTruth:    args.GroundTruth,
		LatencyMS:      args.LatencyMS,
		Timestamp:      ts,
		Metadata:       args.Metadata,
	})
	if err != nil {
		return nil, err
	}
	return logPredictionResult{Logged: true}, nil
}

package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelvault/modelvault/internal/inference"
	"github.com/modelvault/modelvault/internal/services"
	"github.com/modelvault/modelvault/internal/storeerr"
)

type trainModelArgs struct {
	ModelID     string                  `json:"model_id"`
	Version     string                  `json:"version"`
	Examples    []inference.LabeledText `json:"examples"`
	DatasetID   string                  `json:"dataset_id"`
	Config      services.ModelConfig    `json:"config"`
	Tags        []string                `json:"tags"`
	Description string                  `json:"description"`
}

type trainModelResult struct {
	RecordID   string   `json:"record_id"`
	ModelID    string   `json:"model_id"`
	Version    string   `json:"version"`
	Categories []string `json:"categories"`
	Examples   int      `json:"examples"`
	Warnings   []string `json:"warnings,omitempty"`
}

// trainModel trains through the external engine and persists the result as a
// fresh model version. Training data comes inline or from a stored dataset.
func (d *Dispatcher) trainModel(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "train_model"
	var args trainModelArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}
	if args.ModelID == "" {
		return nil, storeerr.Validation(op, "model_id is required")
	}

	examples := args.Examples
	if len(examples) == 0 && args.DatasetID != "" {
		dataset, err := d.datasets.Load(ctx, args.DatasetID)
		if err != nil {
			return nil, err
		}
		examples = make([]inference.LabeledText, 0, len(dataset.Examples))
		for _, ex := range dataset.Examples {
			examples = append(examples, inference.LabeledText{Text: ex.Text, Label: ex.Label})
		}
	}
	if len(examples) == 0 {
		return nil, storeerr.Validation(op, "examples or dataset_id is required")
	}

	weights, categories, err := d.engine.Train(ctx, examples, args.Config.Hyperparams, args.Config.Encoder)
	if err != nil {
		return nil, storeerr.BackingStore(op, "training failed", err)
	}

	version := args.Version
	if version == "" {
		// Fresh timestamp version per persist avoids uniqueness conflicts in
		// normal operation.
		version = time.Now().UTC().Format("20060102T150405.000000000Z")
	}

	recordID, warnings, err := d.registry.Store(ctx, services.StoreModelInput{
		ModelID:     args.ModelID,
		Version:     version,
		Config:      args.Config,
		Weights:     weights,
		Categories:  categories,
		TrainedOn:   args.DatasetID,
		Tags:        args.Tags,
		Description: args.Description,
	})
	if err != nil {
		return nil, err
	}
	return trainModelResult{
		RecordID:   recordID.String(),
		ModelID:    args.ModelID,
		Version:    version,
		Categories: categories,
		Examples:   len(examples),
		Warnings:   warnings,
	}, nil
}

type predictArgs struct {
	ModelID     string         `json:"model_id"`
	Version     string         `json:"version"`
	Text        string         `json:"text"`
	TopK        int            `json:"top_k"`
	GroundTruth *string        `json:"ground_truth,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

type predictResult struct {
	ModelID     string                 `json:"model_id"`
	Version     string                 `json:"version"`
	Predictions []inference.Prediction `json:"predictions"`
	LatencyMS   float64                `json:"latency_ms"`
}

func (d *Dispatcher) predict(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "predict"
	var args predictArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}
	if args.ModelID == "" {
		return nil, storeerr.Validation(op, "model_id is required")
	}
	if args.Text == "" {
		return nil, storeerr.Validation(op, "text is required")
	}

	rec, err := d.registry.Load(ctx, args.ModelID, args.Version)
	if err != nil {
		return nil, err
	}
	weights, err := inference.DecodeWeights(rec.Weights)
	if err != nil {
		return nil, storeerr.Validation(op, fmt.Sprintf("stored weights unusable: %v", err))
	}
	categories, err := services.DecodeCategories(rec)
	if err != nil {
		return nil, storeerr.Validation(op, fmt.Sprintf("stored categories unusable: %v", err))
	}

	started := time.Now()
	predictions, err := d.engine.Predict(ctx, weights, categories, args.Text, args.TopK)
	if err != nil {
		return nil, storeerr.BackingStore(op, "inference failed", err)
	}
	latencyMS := float64(time.Since(started)) / float64(time.Millisecond)

	if len(predictions) > 0 {
		// Monitoring must not break inference: a ledger failure is logged and
		// swallowed.
		appendErr := d.ledger.Append(ctx, services.AppendPredictionInput{
			ModelID:        args.ModelID,
			Version:        rec.Version,
			InputText:      args.Text,
			PredictedLabel: predictions[0].Label,
			Confidence:     predictions[0].Score,
			GroundTruth:    args.GroundTruth,
			LatencyMS:      latencyMS,
			Metadata:       args.Metadata,
		})
		if appendErr != nil {
			d.log.Warn("prediction ledger append failed",
				"model_id", args.ModelID, "version", rec.Version, "error", appendErr)
		}
	}

	return predictResult{
		ModelID:     args.ModelID,
		Version:     rec.Version,
		Predictions: predictions,
		LatencyMS:   latencyMS,
	}, nil
}

type getEmbeddingArgs struct {
	ModelID string `json:"model_id"`
	Version string `json:"version"`
	Text    string `json:"text"`
}

type getEmbeddingResult struct {
	ModelID   string    `json:"model_id"`
	Version   string    `json:"version"`
	Embedding []float64 `json:"embedding"`
	Dimension int       `json:"dimension"`
}

func (d *Dispatcher) getEmbedding(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "get_embedding"
	var args getEmbeddingArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}
	if args.ModelID == "" {
		return nil, storeerr.Validation(op, "model_id is required")
	}
	if args.Text == "" {
		return nil, storeerr.Validation(op, "text is required")
	}

	rec, err := d.registry.Load(ctx, args.ModelID, args.Version)
	if err != nil {
		return nil, err
	}
	weights, err := inference.DecodeWeights(rec.Weights)
	if err != nil {
		return nil, storeerr.Validation(op, fmt.Sprintf("stored weights unusable: %v", err))
	}

	embedding, err := d.engine.Embed(ctx, weights, args.Text)
	if err != nil {
		return nil, storeerr.BackingStore(op, "embedding failed", err)
	}
	return getEmbeddingResult{
		ModelID:   args.ModelID,
		Version:   rec.Version,
		Embedding: embedding,
		Dimension: len(embedding),
	}, nil
}

type saveModelArgs struct {
	ModelID     string                    `json:"model_id"`
	Version     string                    `json:"version"`
	Config      services.ModelConfig      `json:"config"`
	Weights     *inference.WeightsPayload `json:"weights"`
	Categories  []string                  `json:"categories"`
	TrainedOn   string                    `json:"trained_on"`
	Tags        []string                  `json:"tags"`
	Description string                    `json:"description"`
}

type saveModelResult struct {
	RecordID string   `json:"record_id"`
	ModelID  string   `json:"model_id"`
	Version  string   `json:"version"`
	Warnings []string `json:"warnings,omitempty"`
}

func (d *Dispatcher) saveModel(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "save_model"
	var args saveModelArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}

	recordID, warnings, err := d.registry.Store(ctx, services.StoreModelInput{
		ModelID:     args.ModelID,
		Version:     args.Version,
		Config:      args.Config,
		Weights:     args.Weights,
		Categories:  args.Categories,
		TrainedOn:   args.TrainedOn,
		Tags:        args.Tags,
		Description: args.Description,
	})
	if err != nil {
		return nil, err
	}
	return saveModelResult{
		RecordID: recordID.String(),
		ModelID:  args.ModelID,
		Version:  args.Version,
		Warnings: warnings,
	}, nil
}

type loadModelArgs struct {
	ModelID string `json:"model_id"`
	Version string `json:"version"`
}

type loadModelResult struct {
	ModelID     string          `json:"model_id"`
	Version     string          `json:"version"`
	Config      json.RawMessage `json:"config"`
	Weights     string          `json:"weights"`
	Categories  json.RawMessage `json:"categories"`
	TrainedOn   *string         `json:"trained_on,omitempty"`
	Tags        json.RawMessage `json:"tags,omitempty"`
	Status      string          `json:"status"`
	Description string          `json:"description"`
	CreatedAt   string          `json:"created_at"`
}

func (d *Dispatcher) loadModel(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "load_model"
	var args loadModelArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}

	rec, err := d.registry.Load(ctx, args.ModelID, args.Version)
	if err != nil {
		return nil, err
	}
	return loadModelResult{
		ModelID:     rec.ModelID,
		Version:     rec.Version,
		Config:      json.RawMessage(rec.Config),
		Weights:     rec.Weights,
		Categories:  json.RawMessage(rec.Categories),
		TrainedOn:   rec.TrainedOn,
		Tags:        json.RawMessage(rec.Tags),
		Status:      rec.Status,
		Description: rec.Description,
		CreatedAt:   rec.CreatedAt.UTC().Format(time.RFC3339Nano),
	}, nil
}

type listModelVersionsArgs struct {
	ModelID string `json:"model_id"`
}

type listModelVersionsResult struct {
	ModelID  string                    `json:"model_id"`
	Versions []services.VersionSummary `json:"versions"`
}

func (d *Dispatcher) listModelVersions(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "list_model_versions"
	var args listModelVersionsArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}
	versions, err := d.registry.ListVersions(ctx, args.ModelID)
	if err != nil {
		return nil, err
	}
	return listModelVersionsResult{ModelID: args.ModelID, Versions: versions}, nil
}

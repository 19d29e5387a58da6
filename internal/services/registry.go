package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/modelvault/modelvault/internal/inference"
	"github.com/modelvault/modelvault/internal/logger"
	"github.com/modelvault/modelvault/internal/repos"
	"github.com/modelvault/modelvault/internal/storeerr"
	"github.com/modelvault/modelvault/internal/types"
)

// ModelConfig is everything a stored model needs to be reloaded and used:
// the training hyperparameters plus the encoder reconstruction parameters.
type ModelConfig struct {
	inference.Hyperparams
	Encoder inference.EncoderParams `json:"encoder"`
}

type StoreModelInput struct {
	ModelID     string
	Version     string
	Config      ModelConfig
	Weights     *inference.WeightsPayload
	Categories  []string
	TrainedOn   string
	Tags        []string
	Description string
}

type VersionSummary struct {
	Version     string    `json:"version"`
	CreatedAt   time.Time `json:"created_at"`
	Categories  []string  `json:"categories"`
	Status      string    `json:"status"`
	Description string    `json:"description"`
}

// RegistryService owns versioned create/read of model artifacts. Every call
// round-trips to the backing store; there is no caching layer.
type RegistryService struct {
	models   repos.ModelRepo
	datasets repos.DatasetRepo
	log      *logger.Logger
}

func NewRegistryService(models repos.ModelRepo, datasets repos.DatasetRepo, baseLog *logger.Logger) *RegistryService {
	return &RegistryService{
		models:   models,
		datasets: datasets,
		log:      baseLog.With("service", "RegistryService"),
	}
}

// Store persists a new model version. A duplicate (model_id, version) pair is
// a conflict; callers avoid it by generating a fresh version per persist. An
// unresolvable trained_on reference is reported as a warning, never an error.
func (s *RegistryService) Store(ctx context.Context, in StoreModelInput) (uuid.UUID, []string, error) {
	const op = "save_model"
	if strings.TrimSpace(in.ModelID) == "" {
		return uuid.Nil, nil, storeerr.Validation(op, "model_id is required")
	}
	if strings.TrimSpace(in.Version) == "" {
		return uuid.Nil, nil, storeerr.Validation(op, "version is required")
	}
	if len(in.Categories) == 0 {
		return uuid.Nil, nil, storeerr.Validation(op, "categories must not be empty")
	}
	if in.Weights == nil {
		return uuid.Nil, nil, storeerr.Validation(op, "weights payload is required")
	}

	// Encoder params ride inside the weights blob so the stored artifact is
	// self-contained after reload.
	in.Weights.Encoder = in.Config.Encoder
	blob, err := inference.EncodeWeights(in.Weights)
	if err != nil {
		return uuid.Nil, nil, storeerr.Validation(op, fmt.Sprintf("weights not serializable: %v", err))
	}

	configJSON, err := json.Marshal(in.Config)
	if err != nil {
		return uuid.Nil, nil, storeerr.Validation(op, fmt.Sprintf("config not serializable: %v", err))
	}
	categoriesJSON, err := json.Marshal(in.Categories)
	if err != nil {
		return uuid.Nil, nil, storeerr.Validation(op, fmt.Sprintf("categories not serializable: %v", err))
	}

	var warnings []string
	var trainedOn *string
	if ref := strings.TrimSpace(in.TrainedOn); ref != "" {
		trainedOn = &ref
		exists, err := s.datasets.Exists(ctx, nil, ref)
		if err != nil {
			// Reference checking is best-effort: a store failure here must not
			// block the model write.
			s.log.Warn("trained_on reference check failed", "dataset_id", ref, "error", err)
		} else if !exists {
			msg := fmt.Sprintf("trained_on dataset %q does not resolve", ref)
			warnings = append(warnings, msg)
			s.log.Warn("consistency warning", "op", op, "detail", msg)
		}
	}

	rec := &types.ModelRecord{
		ModelID:     in.ModelID,
		Version:     in.Version,
		Config:      datatypes.JSON(configJSON),
		Weights:     blob,
		Categories:  datatypes.JSON(categoriesJSON),
		TrainedOn:   trainedOn,
		Status:      types.ModelStatusActive,
		Description: in.Description,
	}
	if len(in.Tags) > 0 {
		tagsJSON, err := json.Marshal(in.Tags)
		if err != nil {
			return uuid.Nil, nil, storeerr.Validation(op, fmt.Sprintf("tags not serializable: %v", err))
		}
		rec.Tags = datatypes.JSON(tagsJSON)
	}

	if err := s.models.Create(ctx, nil, rec); err != nil {
		return uuid.Nil, nil, err
	}
	s.log.Info("Model version stored",
		"model_id", in.ModelID, "version", in.Version, "categories", len(in.Categories))
	return rec.ID, warnings, nil
}

// Load returns a model record. With an empty version, it resolves the latest
// active version for the model id.
func (s *RegistryService) Load(ctx context.Context, modelID, version string) (*types.ModelRecord, error) {
	const op = "load_model"
	if strings.TrimSpace(modelID) == "" {
		return nil, storeerr.Validation(op, "model_id is required")
	}
	if strings.TrimSpace(version) == "" {
		return s.models.GetLatestActive(ctx, nil, modelID)
	}
	return s.models.GetByVersion(ctx, nil, modelID, version)
}

// ListVersions returns version summaries for a model id, newest first.
func (s *RegistryService) ListVersions(ctx context.Context, modelID string) ([]VersionSummary, error) {
	const op = "list_model_versions"
	if strings.TrimSpace(modelID) == "" {
		return nil, storeerr.Validation(op, "model_id is required")
	}
	recs, err := s.models.ListVersions(ctx, nil, modelID)
	if err != nil {
		return nil, err
	}
	out := make([]VersionSummary, 0, len(recs))
	for _, rec := range recs {
		var categories []string
		if len(rec.Categories) > 0 {
			if err := json.Unmarshal(rec.Categories, &categories); err != nil {
				s.log.Warn("stored categories not parseable",
					"model_id", rec.ModelID, "version", rec.Version, "error", err)
			}
		}
		out = append(out, VersionSummary{
			Version:     rec.Version,
			CreatedAt:   rec.CreatedAt,
			Categories:  categories,
			Status:      rec.Status,
			Description: rec.Description,
		})
	}
	return out, nil
}

// DecodeConfig parses the stored config payload of a record.
func DecodeConfig(rec *types.ModelRecord) (ModelConfig, error) {
	var cfg ModelConfig
	if rec == nil || len(rec.Config) == 0 {
		return cfg, fmt.Errorf("model record has no config")
	}
	if err := json.Unmarshal(rec.Config, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing model config: %w", err)
	}
	return cfg, nil
}

// DecodeCategories parses the ordered label list of a record. Ordering matters
// because output vectors are label-index-aligned.
func DecodeCategories(rec *types.ModelRecord) ([]string, error) {
	if rec == nil || len(rec.Categories) == 0 {
		return nil, fmt.Errorf("model record has no categories")
	}
	var categories []string
	if err := json.Unmarshal(rec.Categories, &categories); err != nil {
		return nil, fmt.Errorf("parsing model categories: %w", err)
	}
	return categories, nil
}

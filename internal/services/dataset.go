package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/modelvault/modelvault/internal/logger"
	"github.com/modelvault/modelvault/internal/repos"
	"github.com/modelvault/modelvault/internal/storeerr"
	"github.com/modelvault/modelvault/internal/types"
)

// RawExample is an incoming training pair before coercion. Text and label may
// arrive as any JSON scalar; nil means the field was absent.
type RawExample struct {
	Text  any `json:"text"`
	Label any `json:"label"`
}

type Dataset struct {
	DatasetID string          `json:"dataset_id"`
	Examples  []types.Example `json:"examples"`
	Size      int             `json:"size"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

type DatasetService struct {
	datasets repos.DatasetRepo
	log      *logger.Logger
}

func NewDatasetService(datasets repos.DatasetRepo, baseLog *logger.Logger) *DatasetService {
	return &DatasetService{datasets: datasets, log: baseLog.With("service", "DatasetService")}
}

// Store persists a named, immutable snapshot of labeled examples. Every
// example is coerced to {text: string, label: string} before the write and the
// nested field types are fixed by the serialized shape; this is what keeps
// nested objects from round-tripping as empty shells. Size is derived, never
// caller-supplied.
func (s *DatasetService) Store(ctx context.Context, datasetID string, raw []RawExample, metadata map[string]any) (uuid.UUID, error) {
	const op = "store_training_data"
	if strings.TrimSpace(datasetID) == "" {
		return uuid.Nil, storeerr.Validation(op, "dataset_id is required")
	}
	if len(raw) == 0 {
		return uuid.Nil, storeerr.Validation(op, "examples must not be empty")
	}

	examples := make([]types.Example, 0, len(raw))
	for i, r := range raw {
		if r.Text == nil {
			return uuid.Nil, storeerr.Validation(op, fmt.Sprintf("example %d is missing text", i))
		}
		if r.Label == nil {
			return uuid.Nil, storeerr.Validation(op, fmt.Sprintf("example %d is missing label", i))
		}
		ex := types.Example{
			Text:  coerceString(r.Text),
			Label: coerceString(r.Label),
		}
		if ex.Text == "" || ex.Label == "" {
			// Empty strings are legal but almost always a caller bug.
			s.log.Warn("example coerced to empty string", "dataset_id", datasetID, "index", i)
		}
		examples = append(examples, ex)
	}

	examplesJSON, err := json.Marshal(examples)
	if err != nil {
		return uuid.Nil, storeerr.Validation(op, fmt.Sprintf("examples not serializable: %v", err))
	}

	rec := &types.DatasetRecord{
		DatasetID: datasetID,
		Examples:  datatypes.JSON(examplesJSON),
		Size:      len(examples),
	}
	if len(metadata) > 0 {
		metaJSON, err := json.Marshal(metadata)
		if err != nil {
			return uuid.Nil, storeerr.Validation(op, fmt.Sprintf("metadata not serializable: %v", err))
		}
		rec.Metadata = datatypes.JSON(metaJSON)
	}

	if err := s.datasets.Create(ctx, nil, rec); err != nil {
		return uuid.Nil, err
	}
	s.log.Info("Dataset stored", "dataset_id", datasetID, "size", rec.Size)
	return rec.ID, nil
}

func (s *DatasetService) Load(ctx context.Context, datasetID string) (*Dataset, error) {
	const op = "load_training_data"
	if strings.TrimSpace(datasetID) == "" {
		return nil, storeerr.Validation(op, "dataset_id is required")
	}
	rec, err := s.datasets.GetByDatasetID(ctx, nil, datasetID)
	if err != nil {
		return nil, err
	}

	var examples []types.Example
	if err := json.Unmarshal(rec.Examples, &examples); err != nil {
		return nil, storeerr.BackingStore(op, "stored examples not parseable", err)
	}
	out := &Dataset{
		DatasetID: rec.DatasetID,
		Examples:  examples,
		Size:      rec.Size,
		CreatedAt: rec.CreatedAt,
	}
	if len(rec.Metadata) > 0 {
		if err := json.Unmarshal(rec.Metadata, &out.Metadata); err != nil {
			s.log.Warn("stored metadata not parseable", "dataset_id", datasetID, "error", err)
		}
	}
	return out, nil
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}

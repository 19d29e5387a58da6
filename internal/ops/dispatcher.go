package ops

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/modelvault/modelvault/internal/inference"
	"github.com/modelvault/modelvault/internal/logger"
	"github.com/modelvault/modelvault/internal/services"
	"github.com/modelvault/modelvault/internal/storeerr"
)

// Dispatcher is the caller-interface boundary: named operations with
// JSON-shaped arguments and JSON-shaped results. Transport is someone else's
// concern; this layer owns argument decoding, ISO-8601 time conversion and
// error shaping.
type Dispatcher struct {
	engine   inference.Engine
	registry *services.RegistryService
	datasets *services.DatasetService
	ledger   *services.LedgerService
	metrics  *services.MetricsService
	vectors  *services.VectorService
	log      *logger.Logger
}

func NewDispatcher(
	engine inference.Engine,
	registry *services.RegistryService,
	datasets *services.DatasetService,
	ledger *services.LedgerService,
	metrics *services.MetricsService,
	vectors *services.VectorService,
	baseLog *logger.Logger,
) *Dispatcher {
	return &Dispatcher{
		engine:   engine,
		registry: registry,
		datasets: datasets,
		ledger:   ledger,
		metrics:  metrics,
		vectors:  vectors,
		log:      baseLog.With("service", "Dispatcher"),
	}
}

func (d *Dispatcher) Dispatch(ctx context.Context, operation string, args json.RawMessage) (any, error) {
	switch operation {
	case "train_model":
		return d.trainModel(ctx, args)
	case "predict":
		return d.predict(ctx, args)
	case "get_embedding":
		return d.getEmbedding(ctx, args)
	case "save_model":
		return d.saveModel(ctx, args)
	case "load_model":
		return d.loadModel(ctx, args)
	case "list_model_versions":
		return d.listModelVersions(ctx, args)
	case "store_training_data":
		return d.storeTrainingData(ctx, args)
	case "load_training_data":
		return d.loadTrainingData(ctx, args)
	case "log_prediction":
		return d.logPrediction(ctx, args)
	case "get_model_metrics":
		return d.getModelMetrics(ctx, args)
	case "get_confusion_matrix":
		return d.getConfusionMatrix(ctx, args)
	case "detect_drift":
		return d.detectDrift(ctx, args)
	case "add_embeddings":
		return d.addEmbeddings(ctx, args)
	case "search_similar":
		return d.searchSimilar(ctx, args)
	default:
		return nil, storeerr.Validation("dispatch", fmt.Sprintf("unknown operation %q", operation))
	}
}

func decodeArgs(op string, raw json.RawMessage, into any) error {
	if len(raw) == 0 {
		return storeerr.Validation(op, "arguments are required")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return storeerr.Validation(op, fmt.Sprintf("malformed arguments: %v", err))
	}
	return nil
}

// parseTime converts an ISO-8601 boundary string to a native time. Datetimes
// are stored natively; plain strings never reach a temporal column.
func parseTime(op, field, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		ts, err = time.Parse(time.RFC3339Nano, value)
	}
	if err != nil {
		return nil, storeerr.Validation(op,
			fmt.Sprintf("%s must be an ISO-8601 datetime, got %q", field, value))
	}
	utc := ts.UTC()
	return &utc, nil
}

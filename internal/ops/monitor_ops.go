package ops

import (
	"context"
	"encoding/json"

	"github.com/modelvault/modelvault/internal/storeerr"
	"github.com/modelvault/modelvault/internal/types"
)

type metricsArgs struct {
	ModelID   string `json:"model_id"`
	StartTime string `json:"start_time,omitempty"`
	EndTime   string `json:"end_time,omitempty"`
}

func (a metricsArgs) timeRange(op string) (types.TimeRange, error) {
	start, err := parseTime(op, "start_time", a.StartTime)
	if err != nil {
		return types.TimeRange{}, err
	}
	end, err := parseTime(op, "end_time", a.EndTime)
	if err != nil {
		return types.TimeRange{}, err
	}
	return types.TimeRange{Start: start, End: end}, nil
}

func (d *Dispatcher) getModelMetrics(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "get_model_metrics"
	var args metricsArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}
	tr, err := args.timeRange(op)
	if err != nil {
		return nil, err
	}
	return d.metrics.ComputeMetrics(ctx, args.ModelID, tr)
}

type confusionMatrixResult struct {
	ModelID string                    `json:"model_id"`
	Matrix  map[string]map[string]int `json:"matrix"`
}

func (d *Dispatcher) getConfusionMatrix(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "get_confusion_matrix"
	var args metricsArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}
	tr, err := args.timeRange(op)
	if err != nil {
		return nil, err
	}
	matrix, err := d.metrics.ComputeConfusionMatrix(ctx, args.ModelID, tr)
	if err != nil {
		return nil, err
	}
	return confusionMatrixResult{ModelID: args.ModelID, Matrix: matrix}, nil
}

type detectDriftArgs struct {
	ModelID       string `json:"model_id"`
	BaselineStart string `json:"baseline_start"`
	BaselineEnd   string `json:"baseline_end"`
	CurrentStart  string `json:"current_start"`
	CurrentEnd    string `json:"current_end"`
}

func (d *Dispatcher) detectDrift(ctx context.Context, raw json.RawMessage) (any, error) {
	const op = "detect_drift"
	var args detectDriftArgs
	if err := decodeArgs(op, raw, &args); err != nil {
		return nil, err
	}
	if args.BaselineStart == "" || args.BaselineEnd == "" {
		return nil, storeerr.Validation(op, "baseline_start and baseline_end are required")
	}
	if args.CurrentStart == "" || args.CurrentEnd == "" {
		return nil, storeerr.Validation(op, "current_start and current_end are required")
	}

	baseStart, err := parseTime(op, "baseline_start", args.BaselineStart)
	if err != nil {
		return nil, err
	}
	baseEnd, err := parseTime(op, "baseline_end", args.BaselineEnd)
	if err != nil {
		return nil, err
	}
	curStart, err := parseTime(op, "current_start", args.CurrentStart)
	if err != nil {
		return nil, err
	}
	curEnd, err := parseTime(op, "current_end", args.CurrentEnd)
	if err != nil {
		return nil, err
	}

	return d.metrics.DetectDrift(ctx, args.ModelID,
		types.TimeRange{Start: baseStart, End: baseEnd},
		types.TimeRange{Start: curStart, End: curEnd},
	)
}

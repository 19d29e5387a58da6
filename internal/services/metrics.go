package services

import (
	"context"
	"math"
	"strings"

	"github.com/modelvault/modelvault/internal/logger"
	"github.com/modelvault/modelvault/internal/repos"
	"github.com/modelvault/modelvault/internal/storeerr"
	"github.com/modelvault/modelvault/internal/types"
)

const (
	defaultDriftEpsilon   = 0.001
	defaultDriftThreshold = 0.1
)

type ModelMetrics struct {
	Accuracy            *float64       `json:"accuracy,omitempty"`
	TotalPredictions    int            `json:"total_predictions"`
	AvgConfidence       float64        `json:"avg_confidence"`
	AvgLatencyMS        float64        `json:"avg_latency_ms"`
	PredictionsPerLabel map[string]int `json:"predictions_per_label"`
}

type DriftReport struct {
	DriftDetected        bool               `json:"drift_detected"`
	DriftScore           float64            `json:"drift_score"`
	BaselineDistribution map[string]float64 `json:"baseline_distribution"`
	CurrentDistribution  map[string]float64 `json:"current_distribution"`
	BaselineCount        int                `json:"baseline_count"`
	CurrentCount         int                `json:"current_count"`
}

// MetricsService derives aggregates from ledger slices. It performs no
// writes, and it reduces client-side over raw rows rather than trusting
// server-side float aggregation with mixed or missing inputs.
type MetricsService struct {
	predictions repos.PredictionRepo
	epsilon     float64
	threshold   float64
	log         *logger.Logger
}

func NewMetricsService(predictions repos.PredictionRepo, epsilon, threshold float64, baseLog *logger.Logger) *MetricsService {
	if epsilon <= 0 {
		epsilon = defaultDriftEpsilon
	}
	if threshold <= 0 {
		threshold = defaultDriftThreshold
	}
	return &MetricsService{
		predictions: predictions,
		epsilon:     epsilon,
		threshold:   threshold,
		log:         baseLog.With("service", "MetricsService"),
	}
}

// ComputeMetrics aggregates accuracy, confidence, latency and label counts
// over a ledger slice. Accuracy is computed only over entries carrying ground
// truth and omitted entirely when none do. Means over an empty slice are 0,
// never NaN.
func (s *MetricsService) ComputeMetrics(ctx context.Context, modelID string, tr types.TimeRange) (*ModelMetrics, error) {
	const op = "get_model_metrics"
	if strings.TrimSpace(modelID) == "" {
		return nil, storeerr.Validation(op, "model_id is required")
	}
	recs, err := s.predictions.ListForModel(ctx, nil, modelID, tr)
	if err != nil {
		return nil, err
	}

	out := &ModelMetrics{
		TotalPredictions:    len(recs),
		PredictionsPerLabel: map[string]int{},
	}

	confidences := make([]float64, 0, len(recs))
	latencies := make([]float64, 0, len(recs))
	labeled := 0
	correct := 0
	for _, rec := range recs {
		if isFiniteFloat(rec.Confidence) {
			confidences = append(confidences, rec.Confidence)
		}
		if isFiniteFloat(rec.LatencyMS) {
			latencies = append(latencies, rec.LatencyMS)
		}
		out.PredictionsPerLabel[rec.PredictedLabel]++
		if rec.GroundTruth != nil {
			labeled++
			if rec.Correct != nil && *rec.Correct {
				correct++
			}
		}
	}

	out.AvgConfidence = meanOf(confidences)
	out.AvgLatencyMS = meanOf(latencies)
	if labeled > 0 {
		accuracy := float64(correct) / float64(labeled)
		out.Accuracy = &accuracy
	}
	return out, nil
}

// ComputeConfusionMatrix maps ground_truth -> predicted_label -> count over
// entries that carry ground truth. The matrix is sparse; an absent cell is 0.
func (s *MetricsService) ComputeConfusionMatrix(ctx context.Context, modelID string, tr types.TimeRange) (map[string]map[string]int, error) {
	const op = "get_confusion_matrix"
	if strings.TrimSpace(modelID) == "" {
		return nil, storeerr.Validation(op, "model_id is required")
	}
	recs, err := s.predictions.ListForModel(ctx, nil, modelID, tr)
	if err != nil {
		return nil, err
	}

	matrix := map[string]map[string]int{}
	for _, rec := range recs {
		if rec.GroundTruth == nil {
			continue
		}
		truth := *rec.GroundTruth
		if matrix[truth] == nil {
			matrix[truth] = map[string]int{}
		}
		matrix[truth][rec.PredictedLabel]++
	}
	return matrix, nil
}

// DetectDrift compares the predicted-label distribution of two time windows
// with KL divergence, baseline as reference. Labels absent from a window take
// probability epsilon so disjoint label sets score large and positive instead
// of dividing by zero.
func (s *MetricsService) DetectDrift(ctx context.Context, modelID string, baseline, current types.TimeRange) (*DriftReport, error) {
	const op = "detect_drift"
	if strings.TrimSpace(modelID) == "" {
		return nil, storeerr.Validation(op, "model_id is required")
	}

	baseRecs, err := s.predictions.ListForModel(ctx, nil, modelID, baseline)
	if err != nil {
		return nil, err
	}
	curRecs, err := s.predictions.ListForModel(ctx, nil, modelID, current)
	if err != nil {
		return nil, err
	}

	baseDist := labelDistribution(baseRecs)
	curDist := labelDistribution(curRecs)

	universe := map[string]struct{}{}
	for label := range baseDist {
		universe[label] = struct{}{}
	}
	for label := range curDist {
		universe[label] = struct{}{}
	}

	score := 0.0
	for label := range universe {
		p := baseDist[label]
		if p == 0 {
			p = s.epsilon
		}
		q := curDist[label]
		if q == 0 {
			q = s.epsilon
		}
		score += p * math.Log(p/q)
	}

	report := &DriftReport{
		DriftDetected:        score > s.threshold,
		DriftScore:           score,
		BaselineDistribution: baseDist,
		CurrentDistribution:  curDist,
		BaselineCount:        len(baseRecs),
		CurrentCount:         len(curRecs),
	}
	if report.DriftDetected {
		s.log.Warn("Label distribution drift detected",
			"model_id", modelID, "drift_score", score,
			"baseline_count", len(baseRecs), "current_count", len(curRecs))
	}
	return report, nil
}

func labelDistribution(recs []*types.PredictionRecord) map[string]float64 {
	dist := map[string]float64{}
	if len(recs) == 0 {
		return dist
	}
	counts := map[string]int{}
	for _, rec := range recs {
		counts[rec.PredictedLabel]++
	}
	total := float64(len(recs))
	for label, n := range counts {
		dist[label] = float64(n) / total
	}
	return dist
}

func meanOf(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func isFiniteFloat(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

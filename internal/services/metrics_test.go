package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelvault/modelvault/internal/repos"
	"github.com/modelvault/modelvault/internal/services"
	"github.com/modelvault/modelvault/internal/storeerr"
	"github.com/modelvault/modelvault/internal/testutil"
	"github.com/modelvault/modelvault/internal/types"
)

type metricsFixture struct {
	ledger  *services.LedgerService
	metrics *services.MetricsService
}

func newMetricsFixture(t *testing.T) metricsFixture {
	t.Helper()
	store := testutil.NewStore(t)
	log := testutil.NewLogger(t)
	predictionRepo := repos.NewPredictionRepo(store, log)
	return metricsFixture{
		ledger:  services.NewLedgerService(predictionRepo, log),
		metrics: services.NewMetricsService(predictionRepo, 0, 0, log),
	}
}

func (f metricsFixture) append(t *testing.T, in services.AppendPredictionInput) {
	t.Helper()
	if in.ModelID == "" {
		in.ModelID = "sentiment"
	}
	require.NoError(t, f.ledger.Append(context.Background(), in))
}

func TestComputeMetricsEmptyLedger(t *testing.T) {
	f := newMetricsFixture(t)

	m, err := f.metrics.ComputeMetrics(context.Background(), "sentiment", types.TimeRange{})
	require.NoError(t, err)

	assert.Nil(t, m.Accuracy, "accuracy must be omitted, not zero")
	assert.Equal(t, 0, m.TotalPredictions)
	assert.Equal(t, 0.0, m.AvgConfidence)
	assert.Equal(t, 0.0, m.AvgLatencyMS)
	assert.Empty(t, m.PredictionsPerLabel)
	assert.NotNil(t, m.PredictionsPerLabel)
}

func TestComputeMetricsAggregates(t *testing.T) {
	f := newMetricsFixture(t)

	f.append(t, services.AppendPredictionInput{
		PredictedLabel: "positive", Confidence: 0.6, GroundTruth: strPtr("positive"), LatencyMS: 10,
	})
	f.append(t, services.AppendPredictionInput{
		PredictedLabel: "positive", Confidence: 0.4, GroundTruth: strPtr("negative"), LatencyMS: 30,
	})

	m, err := f.metrics.ComputeMetrics(context.Background(), "sentiment", types.TimeRange{})
	require.NoError(t, err)

	require.NotNil(t, m.Accuracy)
	assert.InDelta(t, 0.5, *m.Accuracy, 1e-9)
	assert.InDelta(t, 0.5, m.AvgConfidence, 1e-9)
	assert.InDelta(t, 20.0, m.AvgLatencyMS, 1e-9)
	assert.Equal(t, 2, m.TotalPredictions)
	assert.Equal(t, map[string]int{"positive": 2}, m.PredictionsPerLabel)
}

func TestComputeMetricsOmitsAccuracyWithoutGroundTruth(t *testing.T) {
	f := newMetricsFixture(t)

	f.append(t, services.AppendPredictionInput{PredictedLabel: "positive", Confidence: 0.9})
	f.append(t, services.AppendPredictionInput{PredictedLabel: "negative", Confidence: 0.7})

	m, err := f.metrics.ComputeMetrics(context.Background(), "sentiment", types.TimeRange{})
	require.NoError(t, err)

	assert.Nil(t, m.Accuracy)
	assert.Equal(t, 2, m.TotalPredictions)
	assert.Equal(t, map[string]int{"positive": 1, "negative": 1}, m.PredictionsPerLabel)
}

func TestComputeMetricsRespectsTimeRange(t *testing.T) {
	f := newMetricsFixture(t)

	early := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC)
	f.append(t, services.AppendPredictionInput{PredictedLabel: "positive", Timestamp: &early})
	f.append(t, services.AppendPredictionInput{PredictedLabel: "negative", Timestamp: &late})

	cutoff := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	m, err := f.metrics.ComputeMetrics(context.Background(), "sentiment", types.TimeRange{Start: &cutoff})
	require.NoError(t, err)

	assert.Equal(t, 1, m.TotalPredictions)
	assert.Equal(t, map[string]int{"negative": 1}, m.PredictionsPerLabel)
}

func TestComputeMetricsValidation(t *testing.T) {
	f := newMetricsFixture(t)

	_, err := f.metrics.ComputeMetrics(context.Background(), "", types.TimeRange{})
	assert.True(t, storeerr.IsValidation(err))
}

func TestConfusionMatrix(t *testing.T) {
	f := newMetricsFixture(t)

	f.append(t, services.AppendPredictionInput{PredictedLabel: "positive", GroundTruth: strPtr("positive")})
	f.append(t, services.AppendPredictionInput{PredictedLabel: "positive", GroundTruth: strPtr("positive")})
	f.append(t, services.AppendPredictionInput{PredictedLabel: "negative", GroundTruth: strPtr("positive")})
	f.append(t, services.AppendPredictionInput{PredictedLabel: "negative", GroundTruth: strPtr("negative")})
	// No ground truth: excluded from the matrix entirely.
	f.append(t, services.AppendPredictionInput{PredictedLabel: "positive"})

	matrix, err := f.metrics.ComputeConfusionMatrix(context.Background(), "sentiment", types.TimeRange{})
	require.NoError(t, err)

	assert.Equal(t, 2, matrix["positive"]["positive"])
	assert.Equal(t, 1, matrix["positive"]["negative"])
	assert.Equal(t, 1, matrix["negative"]["negative"])
	// Sparse: never-predicted cells are absent, not zero-filled.
	_, exists := matrix["negative"]["positive"]
	assert.False(t, exists)
}

func driftWindows() (types.TimeRange, types.TimeRange) {
	baseStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	baseEnd := baseStart.Add(24 * time.Hour)
	curStart := baseEnd
	curEnd := curStart.Add(24 * time.Hour)
	return types.TimeRange{Start: &baseStart, End: &baseEnd},
		types.TimeRange{Start: &curStart, End: &curEnd}
}

func (f metricsFixture) appendAt(t *testing.T, label string, ts time.Time) {
	t.Helper()
	f.append(t, services.AppendPredictionInput{PredictedLabel: label, Timestamp: &ts})
}

func TestDetectDriftIdenticalDistributions(t *testing.T) {
	f := newMetricsFixture(t)
	baseline, current := driftWindows()

	for i := 0; i < 5; i++ {
		f.appendAt(t, "positive", baseline.Start.Add(time.Duration(i)*time.Hour))
		f.appendAt(t, "negative", baseline.Start.Add(time.Duration(i)*time.Hour))
		f.appendAt(t, "positive", current.Start.Add(time.Duration(i)*time.Hour))
		f.appendAt(t, "negative", current.Start.Add(time.Duration(i)*time.Hour))
	}

	report, err := f.metrics.DetectDrift(context.Background(), "sentiment", baseline, current)
	require.NoError(t, err)

	assert.InDelta(t, 0.0, report.DriftScore, 1e-9)
	assert.False(t, report.DriftDetected)
	assert.InDelta(t, 0.5, report.BaselineDistribution["positive"], 1e-9)
	assert.InDelta(t, 0.5, report.CurrentDistribution["negative"], 1e-9)
}

func TestDetectDriftDisjointDistributions(t *testing.T) {
	f := newMetricsFixture(t)
	baseline, current := driftWindows()

	for i := 0; i < 5; i++ {
		f.appendAt(t, "positive", baseline.Start.Add(time.Duration(i)*time.Hour))
		f.appendAt(t, "negative", current.Start.Add(time.Duration(i)*time.Hour))
	}

	report, err := f.metrics.DetectDrift(context.Background(), "sentiment", baseline, current)
	require.NoError(t, err)

	// baseline {positive: 1.0} vs current {negative: 1.0}: KL with epsilon
	// smoothing gives ln(1/0.001) plus a tiny epsilon term.
	assert.True(t, report.DriftDetected)
	assert.Greater(t, report.DriftScore, 5.0)
	assert.Equal(t, 5, report.BaselineCount)
	assert.Equal(t, 5, report.CurrentCount)
}

func TestDetectDriftEmptyWindows(t *testing.T) {
	f := newMetricsFixture(t)
	baseline, current := driftWindows()

	report, err := f.metrics.DetectDrift(context.Background(), "sentiment", baseline, current)
	require.NoError(t, err)

	assert.False(t, report.DriftDetected)
	assert.Equal(t, 0.0, report.DriftScore)
	assert.Empty(t, report.BaselineDistribution)
	assert.Empty(t, report.CurrentDistribution)
}

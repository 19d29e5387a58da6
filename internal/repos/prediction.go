package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/modelvault/modelvault/internal/db"
	"github.com/modelvault/modelvault/internal/logger"
	"github.com/modelvault/modelvault/internal/storeerr"
	"github.com/modelvault/modelvault/internal/types"
)

// PredictionRepo writes and slices the append-only ledger. There is no update
// or delete path; aggregation happens client-side in the metrics service.
type PredictionRepo interface {
	Append(ctx context.Context, tx *gorm.DB, rec *types.PredictionRecord) error
	ListForModel(ctx context.Context, tx *gorm.DB, modelID string, tr types.TimeRange) ([]*types.PredictionRecord, error)
}

type predictionRepo struct {
	store *db.Store
	log   *logger.Logger
}

func NewPredictionRepo(store *db.Store, baseLog *logger.Logger) PredictionRepo {
	return &predictionRepo{store: store, log: baseLog.With("repo", "PredictionRepo")}
}

func (r *predictionRepo) Append(ctx context.Context, tx *gorm.DB, rec *types.PredictionRecord) error {
	const op = "log_prediction"
	conn, err := session(ctx, r.store, tx)
	if err != nil {
		return err
	}
	qctx, cancel := r.store.Context(ctx)
	defer cancel()

	if err := conn.WithContext(qctx).Create(rec).Error; err != nil {
		return storeerr.BackingStore(op, "appending prediction record failed", err)
	}
	return nil
}

func (r *predictionRepo) ListForModel(ctx context.Context, tx *gorm.DB, modelID string, tr types.TimeRange) ([]*types.PredictionRecord, error) {
	const op = "list_predictions"
	conn, err := session(ctx, r.store, tx)
	if err != nil {
		return nil, err
	}
	qctx, cancel := r.store.Context(ctx)
	defer cancel()

	q := conn.WithContext(qctx).
		Model(&types.PredictionRecord{}).
		Where("model_id = ?", modelID)
	if tr.Start != nil {
		q = q.Where("timestamp >= ?", *tr.Start)
	}
	if tr.End != nil {
		q = q.Where("timestamp < ?", *tr.End)
	}

	var recs []*types.PredictionRecord
	if err := q.Order("timestamp ASC").Find(&recs).Error; err != nil {
		return nil, storeerr.BackingStore(op, "reading prediction records failed", err)
	}
	return recs, nil
}

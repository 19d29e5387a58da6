package repos

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/modelvault/modelvault/internal/db"
	"github.com/modelvault/modelvault/internal/logger"
	"github.com/modelvault/modelvault/internal/storeerr"
	"github.com/modelvault/modelvault/internal/types"
)

type DatasetRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *types.DatasetRecord) error
	GetByDatasetID(ctx context.Context, tx *gorm.DB, datasetID string) (*types.DatasetRecord, error)
	Exists(ctx context.Context, tx *gorm.DB, datasetID string) (bool, error)
}

type datasetRepo struct {
	store *db.Store
	log   *logger.Logger
}

func NewDatasetRepo(store *db.Store, baseLog *logger.Logger) DatasetRepo {
	return &datasetRepo{store: store, log: baseLog.With("repo", "DatasetRepo")}
}

func (r *datasetRepo) Create(ctx context.Context, tx *gorm.DB, rec *types.DatasetRecord) error {
	const op = "store_training_data"
	conn, err := session(ctx, r.store, tx)
	if err != nil {
		return err
	}
	qctx, cancel := r.store.Context(ctx)
	defer cancel()

	if err := conn.WithContext(qctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return storeerr.Conflict(op,
				fmt.Sprintf("dataset %q already exists", rec.DatasetID), err)
		}
		return storeerr.BackingStore(op, "writing dataset record failed", err)
	}
	return nil
}

func (r *datasetRepo) GetByDatasetID(ctx context.Context, tx *gorm.DB, datasetID string) (*types.DatasetRecord, error) {
	const op = "load_training_data"
	conn, err := session(ctx, r.store, tx)
	if err != nil {
		return nil, err
	}
	qctx, cancel := r.store.Context(ctx)
	defer cancel()

	var rec types.DatasetRecord
	err = conn.WithContext(qctx).
		Where("dataset_id = ?", datasetID).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeerr.NotFound(op, fmt.Sprintf("dataset %q not found", datasetID))
		}
		return nil, storeerr.BackingStore(op, "reading dataset record failed", err)
	}
	return &rec, nil
}

func (r *datasetRepo) Exists(ctx context.Context, tx *gorm.DB, datasetID string) (bool, error) {
	const op = "check_training_data"
	conn, err := session(ctx, r.store, tx)
	if err != nil {
		return false, err
	}
	qctx, cancel := r.store.Context(ctx)
	defer cancel()

	var count int64
	err = conn.WithContext(qctx).
		Model(&types.DatasetRecord{}).
		Where("dataset_id = ?", datasetID).
		Count(&count).Error
	if err != nil {
		return false, storeerr.BackingStore(op, "counting dataset records failed", err)
	}
	return count > 0, nil
}

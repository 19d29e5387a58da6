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

type ModelRepo interface {
	Create(ctx context.Context, tx *gorm.DB, rec *types.ModelRecord) error
	GetByVersion(ctx context.Context, tx *gorm.DB, modelID, version string) (*types.ModelRecord, error)
	GetLatestActive(ctx context.Context, tx *gorm.DB, modelID string) (*types.ModelRecord, error)
	ListVersions(ctx context.Context, tx *gorm.DB, modelID string) ([]*types.ModelRecord, error)
}

type modelRepo struct {
	store *db.Store
	log   *logger.Logger
}

func NewModelRepo(store *db.Store, baseLog *logger.Logger) ModelRepo {
	return &modelRepo{store: store, log: baseLog.With("repo", "ModelRepo")}
}

func (r *modelRepo) Create(ctx context.Context, tx *gorm.DB, rec *types.ModelRecord) error {
	const op = "store_model"
	conn, err := session(ctx, r.store, tx)
	if err != nil {
		return err
	}
	qctx, cancel := r.store.Context(ctx)
	defer cancel()

	if err := conn.WithContext(qctx).Create(rec).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return storeerr.Conflict(op,
				fmt.Sprintf("model %q version %q already exists", rec.ModelID, rec.Version), err)
		}
		return storeerr.BackingStore(op, "writing model record failed", err)
	}
	return nil
}

func (r *modelRepo) GetByVersion(ctx context.Context, tx *gorm.DB, modelID, version string) (*types.ModelRecord, error) {
	const op = "load_model"
	conn, err := session(ctx, r.store, tx)
	if err != nil {
		return nil, err
	}
	qctx, cancel := r.store.Context(ctx)
	defer cancel()

	var rec types.ModelRecord
	err = conn.WithContext(qctx).
		Where("model_id = ? AND version = ?", modelID, version).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeerr.NotFound(op,
				fmt.Sprintf("model %q version %q not found", modelID, version))
		}
		return nil, storeerr.BackingStore(op, "reading model record failed", err)
	}
	return &rec, nil
}

// GetLatestActive resolves "latest": the active record with the greatest
// created_at for the model id.
func (r *modelRepo) GetLatestActive(ctx context.Context, tx *gorm.DB, modelID string) (*types.ModelRecord, error) {
	const op = "load_model"
	conn, err := session(ctx, r.store, tx)
	if err != nil {
		return nil, err
	}
	qctx, cancel := r.store.Context(ctx)
	defer cancel()

	var rec types.ModelRecord
	err = conn.WithContext(qctx).
		Where("model_id = ? AND status = ?", modelID, types.ModelStatusActive).
		Order("created_at DESC").
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, storeerr.NotFound(op,
				fmt.Sprintf("no active version found for model %q", modelID))
		}
		return nil, storeerr.BackingStore(op, "reading latest model record failed", err)
	}
	return &rec, nil
}

func (r *modelRepo) ListVersions(ctx context.Context, tx *gorm.DB, modelID string) ([]*types.ModelRecord, error) {
	const op = "list_model_versions"
	conn, err := session(ctx, r.store, tx)
	if err != nil {
		return nil, err
	}
	qctx, cancel := r.store.Context(ctx)
	defer cancel()

	var recs []*types.ModelRecord
	err = conn.WithContext(qctx).
		Where("model_id = ?", modelID).
		Order("created_at DESC").
		Find(&recs).Error
	if err != nil {
		return nil, storeerr.BackingStore(op, "listing model versions failed", err)
	}
	return recs, nil
}

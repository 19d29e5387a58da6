package repos

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/modelvault/modelvault/internal/db"
	"github.com/modelvault/modelvault/internal/logger"
	"github.com/modelvault/modelvault/internal/storeerr"
	"github.com/modelvault/modelvault/internal/types"
)

type EmbeddingRepo interface {
	UpsertMany(ctx context.Context, tx *gorm.DB, recs []*types.EmbeddingRecord) (int, error)
	ListCollection(ctx context.Context, tx *gorm.DB, collectionName string) ([]*types.EmbeddingRecord, error)
}

type embeddingRepo struct {
	store *db.Store
	log   *logger.Logger
}

func NewEmbeddingRepo(store *db.Store, baseLog *logger.Logger) EmbeddingRepo {
	return &embeddingRepo{store: store, log: baseLog.With("repo", "EmbeddingRepo")}
}

// UpsertMany writes a batch of embedding records. A duplicate
// (collection_name, item_id) overwrites the existing entry in place, which
// keeps re-indexing workflows idempotent.
func (r *embeddingRepo) UpsertMany(ctx context.Context, tx *gorm.DB, recs []*types.EmbeddingRecord) (int, error) {
	const op = "add_embeddings"
	if len(recs) == 0 {
		return 0, nil
	}
	conn, err := session(ctx, r.store, tx)
	if err != nil {
		return 0, err
	}
	qctx, cancel := r.store.Context(ctx)
	defer cancel()

	err = conn.WithContext(qctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "collection_name"}, {Name: "item_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"text", "embedding", "metadata", "position",
			}),
		}).
		Create(&recs).Error
	if err != nil {
		return 0, storeerr.BackingStore(op, "upserting embedding records failed", err)
	}
	return len(recs), nil
}

// ListCollection returns every record in a collection in insertion order.
func (r *embeddingRepo) ListCollection(ctx context.Context, tx *gorm.DB, collectionName string) ([]*types.EmbeddingRecord, error) {
	const op = "search_similar"
	conn, err := session(ctx, r.store, tx)
	if err != nil {
		return nil, err
	}
	qctx, cancel := r.store.Context(ctx)
	defer cancel()

	var recs []*types.EmbeddingRecord
	err = conn.WithContext(qctx).
		Where("collection_name = ?", collectionName).
		Order("created_at ASC").
		Order("position ASC").
		Find(&recs).Error
	if err != nil {
		return nil, storeerr.BackingStore(op, "reading embedding collection failed", err)
	}
	return recs, nil
}

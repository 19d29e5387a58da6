package db

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/modelvault/modelvault/internal/config"
	"github.com/modelvault/modelvault/internal/logger"
	"github.com/modelvault/modelvault/internal/storeerr"
	"github.com/modelvault/modelvault/internal/types"
)

// Store owns the single logical connection to the backing store. The
// connection is established lazily on first use; concurrent callers racing to
// connect share one in-flight attempt through the singleflight group, so a
// second caller observes the same session instead of re-authenticating.
type Store struct {
	dialector gorm.Dialector
	timeout   time.Duration
	log       *logger.Logger

	connect singleflight.Group
	handle  atomic.Pointer[gorm.DB]
}

func New(cfg config.Config, log *logger.Logger) *Store {
	return NewWithDialector(
		postgres.Open(cfg.Postgres.DSN()),
		time.Duration(cfg.StoreTimeoutSeconds)*time.Second,
		log,
	)
}

func NewWithDialector(dialector gorm.Dialector, timeout time.Duration, log *logger.Logger) *Store {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Store{
		dialector: dialector,
		timeout:   timeout,
		log:       log.With("service", "Store"),
	}
}

// Handle returns the shared *gorm.DB, connecting on first use.
func (s *Store) Handle(ctx context.Context) (*gorm.DB, error) {
	if db := s.handle.Load(); db != nil {
		return db, nil
	}

	result, err, _ := s.connect.Do("connect", func() (interface{}, error) {
		if db := s.handle.Load(); db != nil {
			return db, nil
		}
		s.log.Info("Connecting to backing store...")
		db, err := gorm.Open(s.dialector, &gorm.Config{
			DisableForeignKeyConstraintWhenMigrating: true,
			TranslateError:                           true,
		})
		if err != nil {
			return nil, fmt.Errorf("opening backing store connection: %w", err)
		}
		s.handle.Store(db)
		s.log.Info("Backing store connection established")
		return db, nil
	})
	if err != nil {
		return nil, storeerr.BackingStore("connect", "backing store connection failed", err)
	}
	if err := ctx.Err(); err != nil {
		return nil, storeerr.BackingStore("connect", "context cancelled", err)
	}
	return result.(*gorm.DB), nil
}

// Migrate provisions the four record tables and their composite unique
// indexes. Nested payloads (dataset examples, embeddings, metadata) live in
// JSON columns so their field shape is declared by the serializer, not left
// to the store to guess.
func (s *Store) Migrate(ctx context.Context) error {
	db, err := s.Handle(ctx)
	if err != nil {
		return err
	}
	s.log.Info("Migrating backing store tables...")
	if err := db.WithContext(ctx).AutoMigrate(
		&types.ModelRecord{},
		&types.DatasetRecord{},
		&types.PredictionRecord{},
		&types.EmbeddingRecord{},
	); err != nil {
		return storeerr.BackingStore("migrate", "auto migration failed", err)
	}
	return nil
}

// Timeout is the bounded per-query deadline applied at the adapter boundary.
func (s *Store) Timeout() time.Duration {
	return s.timeout
}

// Context derives a query-scoped context carrying the store timeout.
func (s *Store) Context(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithTimeout(ctx, s.timeout)
}

// Connected reports whether the lazy connection has been established yet.
func (s *Store) Connected() bool {
	return s.handle.Load() != nil
}

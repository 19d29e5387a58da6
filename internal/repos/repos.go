package repos

import (
	"context"

	"gorm.io/gorm"

	"github.com/modelvault/modelvault/internal/db"
)

// session resolves the gorm handle for a call: an explicit transaction wins,
// otherwise the store's lazily-connected shared handle is used.
func session(ctx context.Context, store *db.Store, tx *gorm.DB) (*gorm.DB, error) {
	if tx != nil {
		return tx, nil
	}
	return store.Handle(ctx)
}

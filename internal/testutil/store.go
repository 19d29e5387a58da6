// Package testutil provides shared fixtures for persistence tests. Tests run
// against a real in-memory SQLite database rather than mocks so actual
// round-trip behavior is what gets verified.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"

	"github.com/modelvault/modelvault/internal/db"
	"github.com/modelvault/modelvault/internal/logger"
)

func NewLogger(t *testing.T) *logger.Logger {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return log
}

// NewStore opens a migrated in-memory store unique to the calling test.
func NewStore(t *testing.T) *db.Store {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	store := db.NewWithDialector(sqlite.Open(dsn), 5*time.Second, NewLogger(t))
	if err := store.Migrate(context.Background()); err != nil {
		t.Fatalf("store.Migrate: %v", err)
	}
	return store
}

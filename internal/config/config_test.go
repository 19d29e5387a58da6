package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/modelvault/modelvault/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, 10, cfg.StoreTimeoutSeconds)
	assert.Equal(t, 0.001, cfg.Drift.Epsilon)
	assert.Equal(t, 0.1, cfg.Drift.Threshold)
	assert.Equal(t, "modelvault", cfg.Postgres.Name)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.StoreTimeoutSeconds)
}

func TestLoadYAMLFileWithEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
postgres:
  host: db.internal
  name: mv_prod
store_timeout_seconds: 30
drift:
  threshold: 0.25
`), 0o600))

	t.Setenv("POSTGRES_HOST", "db.override")
	t.Setenv("DRIFT_EPSILON", "0.01")

	cfg, err := config.Load(path, nil)
	require.NoError(t, err)

	assert.Equal(t, "db.override", cfg.Postgres.Host, "env wins over file")
	assert.Equal(t, "mv_prod", cfg.Postgres.Name)
	assert.Equal(t, 30, cfg.StoreTimeoutSeconds)
	assert.Equal(t, 0.25, cfg.Drift.Threshold)
	assert.Equal(t, 0.01, cfg.Drift.Epsilon)
}

func TestLoadMalformedFileFails(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml: ["), 0o600))

	_, err := config.Load(path, nil)
	assert.Error(t, err)
}

func TestLoadClampsNonPositiveValues(t *testing.T) {
	t.Setenv("STORE_TIMEOUT_SECONDS", "-5")
	t.Setenv("DRIFT_THRESHOLD", "0")

	cfg, err := config.Load("", nil)
	require.NoError(t, err)
	assert.Equal(t, 10, cfg.StoreTimeoutSeconds)
	assert.Equal(t, 0.1, cfg.Drift.Threshold)
}

func TestPostgresDSN(t *testing.T) {
	p := config.PostgresConfig{
		Host: "localhost", Port: "5432", User: "mv", Password: "pw", Name: "vault", SSLMode: "disable",
	}
	assert.Equal(t, "postgres://mv:pw@localhost:5432/vault?sslmode=disable", p.DSN())
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minerva-ai/minerva/internal/config"
)

func TestLoad_Defaults(t *testing.T) {
	_ = os.Unsetenv("MINERVA_STORAGE_ENGINE")
	_ = os.Unsetenv("MINERVA_EMBEDDING_PROVIDER")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Storage.Engine)
	assert.Equal(t, "./data/minerva.db", cfg.Storage.DataPath)
	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.Equal(t, 3, cfg.Engine.MaxResults)
	assert.Equal(t, 2.0, cfg.Engine.CleanupThreshold)
	assert.Equal(t, 5, cfg.Engine.HistoryTurns)
}

func TestLoad_EnvOverridesDefaults(t *testing.T) {
	t.Setenv("MINERVA_MAX_RESULTS", "7")
	t.Setenv("MINERVA_HALF_LIFE_DAYS", "14.5")
	t.Setenv("MINERVA_HISTORY_TURNS", "8")

	cfg, err := config.Load("")
	require.NoError(t, err)

	assert.Equal(t, 7, cfg.Engine.MaxResults)
	assert.Equal(t, 14.5, cfg.Engine.HalfLifeDays)
	assert.Equal(t, 8, cfg.Engine.HistoryTurns)
}

func TestLoad_UnparseableEnvFallsBack(t *testing.T) {
	t.Setenv("MINERVA_MAX_RESULTS", "lots")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Engine.MaxResults)
}

func TestLoad_YAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minerva.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
storage:
  engine: sqlite
  data_path: /tmp/custom.db
engine:
  max_results: 5
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/custom.db", cfg.Storage.DataPath)
	assert.Equal(t, 5, cfg.Engine.MaxResults)
	// Untouched fields keep their defaults.
	assert.Equal(t, "local", cfg.Embedding.Provider)
}

func TestLoad_EnvWinsOverYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minerva.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  max_results: 5\n"), 0o600))
	t.Setenv("MINERVA_MAX_RESULTS", "9")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Engine.MaxResults)
}

func TestLoad_MissingExplicitFileIsError(t *testing.T) {
	_, err := config.Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestLoad_UnknownStorageEngineRejected(t *testing.T) {
	t.Setenv("MINERVA_STORAGE_ENGINE", "etcd")

	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoad_PostgresRequiresDSN(t *testing.T) {
	t.Setenv("MINERVA_STORAGE_ENGINE", "postgres")
	_ = os.Unsetenv("MINERVA_POSTGRES_DSN")

	_, err := config.Load("")
	assert.Error(t, err)

	t.Setenv("MINERVA_POSTGRES_DSN", "postgres://localhost/minerva?sslmode=disable")
	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Storage.Engine)
}

package appconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
embedder:
  kind: mock
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "gemini", cfg.Model.Provider)
	assert.Equal(t, "memory", cfg.VectorStore.Kind)
	assert.Equal(t, 3, cfg.VectorStore.TopK)
	assert.Equal(t, 1000, cfg.Chunker.Size)
	assert.Equal(t, 100, cfg.Chunker.Overlap)
	assert.Equal(t, "voicedoc", cfg.Telemetry.Service)
}

func TestLoadFullConfig(t *testing.T) {
	path := writeConfig(t, `
server:
  host: 127.0.0.1
  port: 9090
model:
  model: gemini-2.5-flash
  env_api_key: MY_KEY
embedder:
  kind: vertex
  project: my-project
  location: europe-west4
vector_store:
  kind: pgvector
  dsn: postgres://localhost/voicedoc
  table: chunks
telemetry:
  statsd_addr: 127.0.0.1:8125
  env: prod
chunker:
  size: 500
  overlap: 50
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "europe-west4", cfg.Embedder.Location)
	assert.Equal(t, "pgvector", cfg.VectorStore.Kind)
	assert.Equal(t, "chunks", cfg.VectorStore.Table)
	assert.Equal(t, "prod", cfg.Telemetry.Env)
	assert.Equal(t, 500, cfg.Chunker.Size)
}

func TestValidateRejectsOverlap(t *testing.T) {
	path := writeConfig(t, `
embedder:
  kind: mock
chunker:
  size: 100
  overlap: 100
`)
	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overlap")
}

func TestValidateRejectsPgvectorWithoutDSN(t *testing.T) {
	path := writeConfig(t, `
embedder:
  kind: mock
vector_store:
  kind: pgvector
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateRejectsUnknownStoreKind(t *testing.T) {
	path := writeConfig(t, `
embedder:
  kind: mock
vector_store:
  kind: redis
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestValidateVertexRequiresProject(t *testing.T) {
	path := writeConfig(t, `
embedder:
  kind: vertex
`)
	_, err := Load(path)
	require.Error(t, err)
}

func TestAPIKeysFromEnv(t *testing.T) {
	t.Setenv("TEST_MODEL_KEY", "secret-1")

	cfg := Default()
	cfg.Model.EnvAPIKey = "TEST_MODEL_KEY"
	assert.Equal(t, "secret-1", cfg.ModelAPIKey())

	cfg.Model.EnvAPIKey = "TEST_MODEL_KEY_MISSING"
	assert.Empty(t, cfg.ModelAPIKey())
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"semsearch/internal/ann"
	"semsearch/internal/domain"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	require.NoError(t, cfg.Validate())

	annCfg, err := cfg.Index.ANN()
	require.NoError(t, err)
	assert.Equal(t, ann.DefaultConfig(), annCfg)
}

func TestLoad_AppliesDefaults(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	yml := `
embedder:
  type: openai
  openai:
    model: text-embedding-3-large
    dimensions: 256
snapshot:
  type: sqlite
index:
  tree_count: 4
  metric: euclidean
  build_workers: 2
ingest:
  delimiter: ";"
`
	require.NoError(t, os.WriteFile(p, []byte(yml), 0o644))

	cfg, err := Load(p)
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, "embeddings.db", cfg.Snapshot.Path)
	assert.Equal(t, 3, cfg.Query.TopK)
	assert.Equal(t, ';', cfg.Ingest.Comma())
	assert.Equal(t, "OPENAI_API_KEY", cfg.Embedder.OpenAI.APIKeyEnv)

	oc := cfg.Embedder.OpenAI.Client()
	assert.Equal(t, "text-embedding-3-large", oc.Model)
	assert.Equal(t, 256, oc.Dimensions)
	assert.Equal(t, 30*time.Second, oc.Timeout)

	annCfg, err := cfg.Index.ANN()
	require.NoError(t, err)
	assert.Equal(t, 4, annCfg.TreeCount)
	assert.Equal(t, 32, annCfg.LeafThreshold)
	assert.Equal(t, ann.Euclidean, annCfg.Metric)
	assert.Equal(t, 2, annCfg.Workers)
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*AppConfig){
		"embedder":  func(c *AppConfig) { c.Embedder.Type = "spacy" },
		"snapshot":  func(c *AppConfig) { c.Snapshot.Type = "redis" },
		"path":      func(c *AppConfig) { c.Snapshot.Path = "" },
		"minio":     func(c *AppConfig) { c.Snapshot.Type = "minio" },
		"delimiter": func(c *AppConfig) { c.Ingest.Delimiter = "::" },
		"top_k":     func(c *AppConfig) { c.Query.TopK = -1 },
		"metric":    func(c *AppConfig) { c.Index.Metric = "hamming" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	cfg := Default()
	cfg.Index.SearchExpansionFactor = 0.5
	assert.True(t, errors.Is(cfg.Validate(), domain.ErrInvalidConfig))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	p := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := Default()
	cfg.Snapshot = SnapshotConfig{Type: "minio", MinIO: &MinIOConfig{Endpoint: "localhost:9000", Bucket: "b"}}
	require.NoError(t, Save(p, cfg))

	got, err := Load(p)
	require.NoError(t, err)
	require.NotNil(t, got.Snapshot.MinIO)
	assert.Equal(t, "MINIO_ACCESS_KEY", got.Snapshot.MinIO.AccessKeyEnv)
	assert.Equal(t, "embeddings.json.zst", got.Snapshot.MinIO.Object)
	require.NoError(t, got.Validate())
}

func TestLoad_InvalidYAML(t *testing.T) {
	p := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte("index: [unclosed"), 0o644))
	_, err := Load(p)
	assert.ErrorContains(t, err, "parse")
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"semsearch/internal/ann"
	"semsearch/internal/embedding/openai"
	"semsearch/internal/logging"
)

// OpenAIEmbedderConfig holds configuration for the OpenAI-compatible embedder.
type OpenAIEmbedderConfig struct {
	BaseURL           string  `yaml:"base_url"`
	APIKeyEnv         string  `yaml:"api_key_env"`
	Model             string  `yaml:"model"`
	Dimensions        int     `yaml:"dimensions,omitempty"`
	TimeoutSecs       int     `yaml:"timeout_secs"`
	BatchSize         int     `yaml:"batch_size"`
	RequestsPerSecond float64 `yaml:"requests_per_second,omitempty"`
	MaxRetries        int     `yaml:"max_retries,omitempty"`
}

// Client converts the section into client options.
func (c OpenAIEmbedderConfig) Client() openai.Config {
	return openai.Config{
		BaseURL:           c.BaseURL,
		APIKeyEnv:         c.APIKeyEnv,
		Model:             c.Model,
		Dimensions:        c.Dimensions,
		Timeout:           time.Duration(c.TimeoutSecs) * time.Second,
		BatchSize:         c.BatchSize,
		RequestsPerSecond: c.RequestsPerSecond,
		MaxRetries:        c.MaxRetries,
	}
}

// EmbedderConfig selects and configures the text embedder implementation.
type EmbedderConfig struct {
	Type   string                `yaml:"type"`
	OpenAI *OpenAIEmbedderConfig `yaml:"openai,omitempty"`
}

// IngestConfig describes the corpus inputs and how they become texts.
type IngestConfig struct {
	Inputs            []string `yaml:"inputs"`
	Fields            []string `yaml:"fields"`
	Delimiter         string   `yaml:"delimiter,omitempty"`
	SentencesPerChunk int      `yaml:"sentences_per_chunk"`
	OverlapSentences  int      `yaml:"overlap_sentences"`
}

// Comma returns the CSV delimiter rune; ',' when unset.
func (c IngestConfig) Comma() rune {
	for _, r := range c.Delimiter {
		return r
	}
	return ','
}

// SnapshotConfig selects where computed embeddings are cached.
type SnapshotConfig struct {
	Type  string       `yaml:"type"`
	Path  string       `yaml:"path"`
	MinIO *MinIOConfig `yaml:"minio,omitempty"`
}

// MinIOConfig contains connection details for an S3-compatible bucket.
type MinIOConfig struct {
	Endpoint     string `yaml:"endpoint"`
	AccessKeyEnv string `yaml:"access_key_env"`
	SecretKeyEnv string `yaml:"secret_key_env"`
	Bucket       string `yaml:"bucket"`
	Object       string `yaml:"object"`
	UseSSL       bool   `yaml:"use_ssl"`
}

// IndexConfig holds the forest options.
type IndexConfig struct {
	TreeCount             int     `yaml:"tree_count"`
	LeafThreshold         int     `yaml:"leaf_threshold"`
	SearchExpansionFactor float64 `yaml:"search_expansion_factor"`
	RandomSeed            int64   `yaml:"random_seed"`
	Metric                string  `yaml:"metric"`
	BuildWorkers          int     `yaml:"build_workers"`
}

// ANN converts the section into forest options and validates them.
func (c IndexConfig) ANN() (ann.Config, error) {
	metric, err := ann.ParseMetric(c.Metric)
	if err != nil {
		return ann.Config{}, err
	}
	cfg := ann.Config{
		TreeCount:             c.TreeCount,
		LeafThreshold:         c.LeafThreshold,
		SearchExpansionFactor: c.SearchExpansionFactor,
		RandomSeed:            c.RandomSeed,
		Metric:                metric,
		Workers:               c.BuildWorkers,
	}
	return cfg, cfg.Validate()
}

// QueryConfig configures interactive and one-shot queries.
type QueryConfig struct {
	TopK int `yaml:"top_k"`
}

// AppConfig is the root application configuration structure.
type AppConfig struct {
	Embedder EmbedderConfig `yaml:"embedder"`
	Ingest   IngestConfig   `yaml:"ingest"`
	Snapshot SnapshotConfig `yaml:"snapshot"`
	Index    IndexConfig    `yaml:"index"`
	Query    QueryConfig    `yaml:"query"`
	Log      logging.Config `yaml:"log"`
}

// Validate checks the fields that have no sensible default.
func (c *AppConfig) Validate() error {
	switch c.Embedder.Type {
	case "tfidf", "openai":
	default:
		return fmt.Errorf("unknown embedder type %q", c.Embedder.Type)
	}
	switch c.Snapshot.Type {
	case "file", "sqlite", "badger":
		if c.Snapshot.Path == "" {
			return fmt.Errorf("snapshot.path is required for %s snapshots", c.Snapshot.Type)
		}
	case "minio":
		if c.Snapshot.MinIO == nil || c.Snapshot.MinIO.Bucket == "" || c.Snapshot.MinIO.Endpoint == "" {
			return errors.New("snapshot.minio.endpoint and snapshot.minio.bucket are required")
		}
	default:
		return fmt.Errorf("unknown snapshot type %q", c.Snapshot.Type)
	}
	if len([]rune(c.Ingest.Delimiter)) > 1 {
		return fmt.Errorf("ingest.delimiter must be a single character, got %q", c.Ingest.Delimiter)
	}
	if c.Query.TopK <= 0 {
		return fmt.Errorf("query.top_k must be positive, got %d", c.Query.TopK)
	}
	_, err := c.Index.ANN()
	return err
}

// Load reads a config from a specified path. If the file does not exist, returns defaults.
func Load(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			cfg := Default()
			return cfg, nil
		}
		return nil, err
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyConfigDefaults(&cfg)
	return &cfg, nil
}

// LoadDefault tries ./config.yaml first, then ~/.config/semsearch/config.yaml.
// If neither exists, it writes defaults to ~/.config/semsearch/config.yaml and returns them.
func LoadDefault() (*AppConfig, string, error) {
	cwdPath := "config.yaml"
	if _, err := os.Stat(cwdPath); err == nil {
		cfg, err := Load(cwdPath)
		return cfg, cwdPath, err
	}
	userPath, err := defaultUserConfigPath()
	if err != nil {
		return nil, "", err
	}
	if _, err := os.Stat(userPath); err == nil {
		cfg, err := Load(userPath)
		return cfg, userPath, err
	}
	cfg := Default()
	if err := Save(userPath, cfg); err != nil {
		return nil, "", err
	}
	return cfg, userPath, nil
}

// Save writes the config to the given path, creating directories as needed.
func Save(path string, cfg *AppConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultUserConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "semsearch", "config.yaml"), nil
}

// Default returns the built-in configuration.
func Default() *AppConfig {
	cfg := &AppConfig{
		Embedder: EmbedderConfig{Type: "tfidf"},
		Ingest: IngestConfig{
			Inputs:            []string{"ECS fields.csv"},
			Fields:            []string{"Field_Set", "Field", "Level", "Description"},
			SentencesPerChunk: 5,
			OverlapSentences:  1,
		},
		Snapshot: SnapshotConfig{Type: "file", Path: "embeddings.json"},
		Index: IndexConfig{
			TreeCount:             10,
			LeafThreshold:         32,
			SearchExpansionFactor: 10,
			RandomSeed:            1,
			Metric:                "angular",
		},
		Query: QueryConfig{TopK: 3},
		Log:   logging.Config{Level: "info", Format: "text"},
	}
	return cfg
}

func applyConfigDefaults(cfg *AppConfig) {
	def := Default()
	if cfg.Embedder.Type == "" {
		cfg.Embedder.Type = def.Embedder.Type
	}
	if cfg.Ingest.SentencesPerChunk == 0 {
		cfg.Ingest.SentencesPerChunk = def.Ingest.SentencesPerChunk
	}
	if cfg.Snapshot.Type == "" {
		cfg.Snapshot.Type = def.Snapshot.Type
	}
	if cfg.Snapshot.Path == "" {
		switch cfg.Snapshot.Type {
		case "file":
			cfg.Snapshot.Path = def.Snapshot.Path
		case "sqlite":
			cfg.Snapshot.Path = "embeddings.db"
		case "badger":
			cfg.Snapshot.Path = "embeddings.badger"
		}
	}
	if m := cfg.Snapshot.MinIO; m != nil {
		if m.AccessKeyEnv == "" {
			m.AccessKeyEnv = "MINIO_ACCESS_KEY"
		}
		if m.SecretKeyEnv == "" {
			m.SecretKeyEnv = "MINIO_SECRET_KEY"
		}
		if m.Object == "" {
			m.Object = "embeddings.json.zst"
		}
	}
	if cfg.Index.TreeCount == 0 {
		cfg.Index.TreeCount = def.Index.TreeCount
	}
	if cfg.Index.LeafThreshold == 0 {
		cfg.Index.LeafThreshold = def.Index.LeafThreshold
	}
	if cfg.Index.SearchExpansionFactor == 0 {
		cfg.Index.SearchExpansionFactor = def.Index.SearchExpansionFactor
	}
	if cfg.Index.Metric == "" {
		cfg.Index.Metric = def.Index.Metric
	}
	if cfg.Query.TopK == 0 {
		cfg.Query.TopK = def.Query.TopK
	}
	if cfg.Embedder.Type == "openai" {
		if cfg.Embedder.OpenAI == nil {
			cfg.Embedder.OpenAI = &OpenAIEmbedderConfig{}
		}
		if cfg.Embedder.OpenAI.BaseURL == "" {
			cfg.Embedder.OpenAI.BaseURL = "https://api.openai.com/v1"
		}
		if cfg.Embedder.OpenAI.APIKeyEnv == "" {
			cfg.Embedder.OpenAI.APIKeyEnv = "OPENAI_API_KEY"
		}
		if cfg.Embedder.OpenAI.Model == "" {
			cfg.Embedder.OpenAI.Model = "text-embedding-3-small"
		}
		if cfg.Embedder.OpenAI.TimeoutSecs == 0 {
			cfg.Embedder.OpenAI.TimeoutSecs = 30
		}
		if cfg.Embedder.OpenAI.BatchSize == 0 {
			cfg.Embedder.OpenAI.BatchSize = 32
		}
	}
}

package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"semsearch/internal/config"
	"semsearch/internal/domain"
	"semsearch/internal/embedding/openai"
	"semsearch/internal/embedding/tfidf"
	"semsearch/internal/ingest"
	"semsearch/internal/logging"
	"semsearch/internal/service"
	"semsearch/internal/snapshot"
)

// app holds the components assembled from the config for one command run.
type app struct {
	cfg       *config.AppConfig
	logger    *slog.Logger
	snapshots domain.SnapshotStore
	svc       *service.SearchServiceImpl
}

func loadConfig() (*config.AppConfig, error) {
	var (
		cfg  *config.AppConfig
		path string
		err  error
	)
	if configPath == "" {
		cfg, path, err = config.LoadDefault()
	} else {
		path = configPath
		cfg, err = config.Load(configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	slog.SetDefault(logger)

	annCfg, err := cfg.Index.ANN()
	if err != nil {
		return nil, err
	}
	emb, err := newEmbedder(cfg.Embedder)
	if err != nil {
		return nil, err
	}
	snaps, err := openSnapshots(ctx, cfg.Snapshot, logger)
	if err != nil {
		return nil, err
	}
	ing := ingest.New(ingest.Options{
		Fields:            cfg.Ingest.Fields,
		Comma:             cfg.Ingest.Comma(),
		SentencesPerChunk: cfg.Ingest.SentencesPerChunk,
		OverlapSentences:  cfg.Ingest.OverlapSentences,
	})
	svc := service.NewSearchService(ing, emb, snaps, annCfg,
		service.WithLogger(logger),
		service.WithProgress(func(done, total int) {
			logger.Debug("tree built", "done", done, "total", total)
		}))
	return &app{cfg: cfg, logger: logger, snapshots: snaps, svc: svc}, nil
}

// open builds the index from inputs, or from the configured inputs when
// none are given.
func (a *app) open(ctx context.Context, inputs []string, rebuild bool) (string, error) {
	if len(inputs) == 0 {
		inputs = a.cfg.Ingest.Inputs
	}
	return a.svc.Open(ctx, inputs, rebuild)
}

func (a *app) Close() error {
	return a.snapshots.Close()
}

func newEmbedder(cfg config.EmbedderConfig) (domain.Embedder, error) {
	switch cfg.Type {
	case "tfidf", "":
		return tfidf.NewEmbedder(), nil
	case "openai":
		if cfg.OpenAI == nil {
			return nil, fmt.Errorf("openai embedder config missing")
		}
		client, err := openai.NewClient(cfg.OpenAI.Client())
		if err != nil {
			return nil, fmt.Errorf("openai embedder init failed: %w", err)
		}
		return client, nil
	}
	return nil, fmt.Errorf("unknown embedder: %s", cfg.Type)
}

func openSnapshots(ctx context.Context, cfg config.SnapshotConfig, logger *slog.Logger) (domain.SnapshotStore, error) {
	switch cfg.Type {
	case "file", "":
		return snapshot.NewFile(cfg.Path), nil
	case "sqlite":
		return snapshot.OpenSQLite(ctx, cfg.Path)
	case "badger":
		return snapshot.OpenBadger(snapshot.BadgerOptions{Dir: cfg.Path, Logger: logger})
	case "minio":
		if cfg.MinIO == nil {
			return nil, fmt.Errorf("minio snapshot config missing")
		}
		return snapshot.NewMinIO(snapshot.MinIOOptions{
			Endpoint:  cfg.MinIO.Endpoint,
			AccessKey: os.Getenv(cfg.MinIO.AccessKeyEnv),
			SecretKey: os.Getenv(cfg.MinIO.SecretKeyEnv),
			Bucket:    cfg.MinIO.Bucket,
			Object:    cfg.MinIO.Object,
			UseSSL:    cfg.MinIO.UseSSL,
		})
	}
	return nil, fmt.Errorf("unknown snapshot store: %s", cfg.Type)
}

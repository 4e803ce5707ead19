package bootstrap

import (
	"context"
	"fmt"
	"time"

	"docchat/internal/config"
	"docchat/internal/core/ports"
	"docchat/internal/core/usecase"
	"docchat/internal/infrastructure/archive/postgres"
	"docchat/internal/infrastructure/chunking"
	"docchat/internal/infrastructure/extractor/multiformat"
	"docchat/internal/infrastructure/index/memory"
	"docchat/internal/infrastructure/llm/ollama"
	"docchat/internal/infrastructure/queue/nats"
	"docchat/internal/infrastructure/rerank/crossencoder"
	"docchat/internal/infrastructure/rerank/lexical"
	"docchat/internal/infrastructure/resilience"
	"docchat/internal/infrastructure/snapshot"
	"docchat/internal/infrastructure/storage/localfs"
)

type App struct {
	Config config.Config

	Sessions  *usecase.SessionManager
	Storage   *localfs.Storage
	Extractor ports.TextExtractor

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	executor := resilience.NewExecutor(resilience.DefaultConfig())

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaEmbedModel, cfg.OllamaVisionModel, executor)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)
	vision := ollama.NewVision(ollamaClient)

	var reranker ports.Reranker
	if cfg.RerankerURL != "" {
		reranker = crossencoder.New(cfg.RerankerURL, executor)
	} else {
		reranker = lexical.New()
	}

	chunker := chunking.NewSemanticSplitter(embedder, float64(cfg.ChunkPercentile))
	indexer := usecase.NewIndexBuilder(chunker, embedder, memory.NewFactory())
	fuser := usecase.NewFuser(vision)
	reformulator := usecase.NewReformulator(generator)
	retriever := usecase.NewRetriever(embedder, reranker, cfg.RetrievalTopK, cfg.RerankTopN)

	sessions := usecase.NewSessionManager(indexer, fuser, reformulator, retriever, generator, usecase.SessionLimits{
		IdleTTL:     time.Duration(cfg.SessionTTLSeconds) * time.Second,
		MaxSessions: cfg.MaxSessions,
	})

	snapshots, err := snapshot.New(cfg.SnapshotPath)
	if err != nil {
		return nil, fmt.Errorf("init snapshot store: %w", err)
	}
	sessions.WithSnapshots(snapshots)

	closers := make([]func(), 0, 2)

	if cfg.NATSURL != "" {
		publisher, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubjectPrefix, nats.Options{
			ResilienceExecutor: executor,
		})
		if err != nil {
			return nil, fmt.Errorf("init event publisher: %w", err)
		}
		sessions.WithEvents(publisher)
		closers = append(closers, publisher.Close)
	}

	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		turnArchive := postgres.NewTurnArchive(db)
		if err := turnArchive.EnsureSchema(ctx); err != nil {
			return nil, fmt.Errorf("ensure archive schema: %w", err)
		}
		sessions.WithArchive(turnArchive)
		closers = append(closers, func() { _ = db.Close() })
	}

	extractor := multiformat.New(vision)

	sessions.StartJanitor(ctx, time.Minute)

	return &App{
		Config:    cfg,
		Sessions:  sessions,
		Storage:   storage,
		Extractor: extractor,

		closeFn: func() {
			for _, fn := range closers {
				fn()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/markagu-dev/Vectora/internal/config"
	"github.com/markagu-dev/Vectora/internal/core"
	"github.com/markagu-dev/Vectora/internal/core/chunker"
	"github.com/markagu-dev/Vectora/internal/core/extract"
	"github.com/markagu-dev/Vectora/internal/core/history"
	"github.com/markagu-dev/Vectora/internal/core/ingestion_engine"
	"github.com/markagu-dev/Vectora/internal/core/llm"
	objectclient "github.com/markagu-dev/Vectora/internal/core/object-client"
	"github.com/markagu-dev/Vectora/internal/core/vectorstore"
)

// App owns every client the service needs. Clients are constructed once here
// and passed down explicitly; nothing below holds package-level state.
type App struct {
	Server  *Server
	log     *zap.Logger
	closers []func() error
}

func NewApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*App, error) {
	appCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	a := &App{log: log}

	hist, err := a.newHistoryStore(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("history store: %w", err)
	}
	log.Info("history store ready", zap.String("backend", cfg.HistoryBackend))

	vectors, err := a.newVectorStore(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}
	log.Info("vector store ready", zap.String("backend", cfg.VectorBackend))

	embedder, err := a.newEmbedder(appCtx, cfg)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	log.Info("embedder ready",
		zap.String("provider", cfg.EmbedProvider),
		zap.String("model", cfg.EmbedModel),
		zap.Int("dim", cfg.EmbedDim))

	chk, err := chunker.New(cfg.Tokenizer, cfg.TargetTokens, cfg.OverlapTokens)
	if err != nil {
		return nil, fmt.Errorf("chunker: %w", err)
	}

	var archive core.ObjectClient
	if cfg.ArchiveBucket != "" {
		archive, err = objectclient.NewS3Client(appCtx, cfg)
		if err != nil {
			return nil, fmt.Errorf("archive client: %w", err)
		}
		log.Info("raw-upload archive enabled", zap.String("bucket", cfg.ArchiveBucket))
	}

	ingCfg := &ingestion_engine.IngestConfig{
		TargetTokens:    cfg.TargetTokens,
		OverlapTokens:   cfg.OverlapTokens,
		EmbedBatchSize:  cfg.EmbedBatchSize,
		UpsertBatchSize: cfg.UpsertBatchSize,
		EmbedTimeout:    cfg.EmbedTimeout,
		UpsertTimeout:   cfg.UpsertTimeout,
		Concurrency:     cfg.IngestConcurrency,
		CollectionName:  cfg.CollectionName,
		EmbedDim:        cfg.EmbedDim,
		DistanceMetric:  cfg.DistanceMetric,
		ArchiveBucket:   cfg.ArchiveBucket,
	}

	ingestor := ingestion_engine.NewIngestor(
		extract.NewExtractor(), chk, embedder, vectors, hist, archive, ingCfg, log)

	a.Server = NewServer(cfg, ingestor, hist, vectors, log)
	return a, nil
}

func (a *App) newHistoryStore(ctx context.Context, cfg *config.Config) (core.HistoryStore, error) {
	switch cfg.HistoryBackend {
	case "memory", "":
		return history.NewMemoryStore(), nil
	case "postgres":
		st, err := history.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.Close)
		return st, nil
	default:
		return nil, fmt.Errorf("unknown HISTORY_BACKEND %q", cfg.HistoryBackend)
	}
}

func (a *App) newVectorStore(ctx context.Context, cfg *config.Config) (core.VectorStore, error) {
	switch cfg.VectorBackend {
	case "qdrant", "":
		st, err := vectorstore.NewQdrantStore(cfg.QdrantHost, cfg.QdrantPort, cfg.QdrantAPIKey)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.Close)
		return st, nil
	case "pgvector":
		st, err := vectorstore.NewPgVectorStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, st.Close)
		return st, nil
	default:
		return nil, fmt.Errorf("unknown VECTOR_BACKEND %q", cfg.VectorBackend)
	}
}

func (a *App) newEmbedder(ctx context.Context, cfg *config.Config) (core.EmbeddingProvider, error) {
	switch cfg.EmbedProvider {
	case "openai", "":
		return llm.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.EmbedModel)
	case "gemini":
		emb, err := llm.NewGeminiEmbedder(ctx, cfg.GeminiAPIKey, cfg.EmbedModel)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, emb.Close)
		return emb, nil
	default:
		return nil, fmt.Errorf("unknown EMBED_PROVIDER %q", cfg.EmbedProvider)
	}
}

func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			a.log.Warn("close client", zap.Error(err))
		}
	}
}

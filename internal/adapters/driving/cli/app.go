package cli

import (
	"context"
	"fmt"
	"time"

	sqlitecatalog "github.com/meridian-labs/briefing/internal/adapters/driven/catalog/sqlite"
	mockembed "github.com/meridian-labs/briefing/internal/adapters/driven/embedding/mock"
	openaiembed "github.com/meridian-labs/briefing/internal/adapters/driven/embedding/openai"
	openaillm "github.com/meridian-labs/briefing/internal/adapters/driven/llm/openai"
	memorysession "github.com/meridian-labs/briefing/internal/adapters/driven/session/memory"
	redissession "github.com/meridian-labs/briefing/internal/adapters/driven/session/redis"
	memoryvector "github.com/meridian-labs/briefing/internal/adapters/driven/vector/memory"
	pgvectorindex "github.com/meridian-labs/briefing/internal/adapters/driven/vector/pgvector"
	"github.com/meridian-labs/briefing/internal/chunker"
	"github.com/meridian-labs/briefing/internal/config"
	"github.com/meridian-labs/briefing/internal/core/ports/driven"
	"github.com/meridian-labs/briefing/internal/core/services"
	"github.com/meridian-labs/briefing/internal/logger"
)

// app holds the wired object graph for one command invocation.
// Everything is passed explicitly; there are no package-level
// singletons to reach for.
type app struct {
	cfg *config.Config

	conversation *services.ConversationService
	ingestor     *services.IngestService
	scheduler    *services.Scheduler

	closers []func() error
}

// buildApp assembles the service graph from configuration. Callers
// must invoke close when done.
func buildApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg}

	embedder, err := a.buildEmbedder(cfg)
	if err != nil {
		return nil, err
	}
	a.onClose(embedder.Close)

	index, err := a.buildIndex(ctx, cfg, embedder.Dimensions())
	if err != nil {
		a.close()
		return nil, err
	}
	a.onClose(index.Close)

	sessions, err := a.buildSessions(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.onClose(sessions.Close)

	llm, err := openaillm.NewLLMService(openaillm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		a.close()
		return nil, fmt.Errorf("llm: %w", err)
	}
	a.onClose(llm.Close)

	catalog, err := sqlitecatalog.NewStore(cfg.Catalog.DataDir)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("catalog: %w", err)
	}
	a.onClose(catalog.Close)

	var assemblerOpts []services.AssemblerOption
	if cfg.Chat.ScoreThreshold > 0 {
		assemblerOpts = append(assemblerOpts, services.WithScoreThreshold(cfg.Chat.ScoreThreshold))
	}
	if cfg.Chat.HistoryWindow > 0 {
		assemblerOpts = append(assemblerOpts, services.WithHistoryWindow(cfg.Chat.HistoryWindow))
	}
	if cfg.Chat.Persona != "" {
		assemblerOpts = append(assemblerOpts, services.WithPersona(cfg.Chat.Persona))
	}

	var convOpts []services.ConversationOption
	convOpts = append(convOpts, services.WithCatalog(catalog))
	if cfg.Chat.TopK > 0 {
		convOpts = append(convOpts, services.WithTopK(cfg.Chat.TopK))
	}

	a.conversation = services.NewConversationService(
		embedder,
		index,
		sessions,
		services.NewResponder(llm, 0),
		services.NewAssembler(assemblerOpts...),
		convOpts...,
	)

	ck, err := chunker.New()
	if err != nil {
		a.close()
		return nil, err
	}
	a.ingestor = services.NewIngestService(ck, embedder, index, catalog)

	if cfg.Ingest.Dir != "" {
		a.scheduler = services.NewScheduler(a.ingestor, cfg.Ingest.Dir, cfg.Ingest.ScanInterval.Std())
	}

	logger.Debug("wired embedding=%s vector=%s session=%s",
		cfg.Embedding.Provider, cfg.Vector.Provider, cfg.Session.Provider)
	return a, nil
}

func (a *app) buildEmbedder(cfg *config.Config) (driven.EmbeddingService, error) {
	switch cfg.Embedding.Provider {
	case config.EmbeddingMock:
		return mockembed.NewEmbeddingService(cfg.Embedding.Dimensions), nil
	case config.EmbeddingOpenAI:
		svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:    cfg.Embedding.APIKey,
			BaseURL:   cfg.Embedding.BaseURL,
			Model:     cfg.Embedding.Model,
			BatchSize: cfg.Embedding.BatchSize,
		})
		if err != nil {
			return nil, fmt.Errorf("embedding: %w", err)
		}
		return svc, nil
	default:
		return nil, fmt.Errorf("embedding: unknown provider %q", cfg.Embedding.Provider)
	}
}

func (a *app) buildIndex(ctx context.Context, cfg *config.Config, dimensions int) (driven.VectorIndex, error) {
	switch cfg.Vector.Provider {
	case config.VectorMemory:
		return memoryvector.NewIndex(dimensions), nil
	case config.VectorPgvector:
		idx, err := pgvectorindex.NewIndex(ctx, pgvectorindex.Config{
			DatabaseURL: cfg.Vector.DatabaseURL,
			Table:       cfg.Vector.Table,
			Dimensions:  dimensions,
		})
		if err != nil {
			return nil, fmt.Errorf("vector index: %w", err)
		}
		return idx, nil
	default:
		return nil, fmt.Errorf("vector index: unknown provider %q", cfg.Vector.Provider)
	}
}

func (a *app) buildSessions(ctx context.Context, cfg *config.Config) (driven.SessionStore, error) {
	switch cfg.Session.Provider {
	case config.SessionMemory:
		var opts []memorysession.Option
		if cfg.Session.MaxMessages > 0 {
			opts = append(opts, memorysession.WithMaxMessages(cfg.Session.MaxMessages))
		}
		if cfg.Session.TTL.Std() > 0 {
			opts = append(opts, memorysession.WithTTL(cfg.Session.TTL.Std()))
		}
		return memorysession.NewStore(opts...), nil
	case config.SessionRedis:
		store, err := redissession.NewStore(ctx, redissession.Config{
			Addr:        cfg.Session.RedisAddr,
			Password:    cfg.Session.RedisPassword,
			DB:          cfg.Session.RedisDB,
			MaxMessages: cfg.Session.MaxMessages,
			TTL:         cfg.Session.TTL.Std(),
		})
		if err != nil {
			return nil, fmt.Errorf("session store: %w", err)
		}
		return store, nil
	default:
		return nil, fmt.Errorf("session store: unknown provider %q", cfg.Session.Provider)
	}
}

func (a *app) onClose(fn func() error) {
	a.closers = append(a.closers, fn)
}

// close releases resources in reverse construction order.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("closing resource: %v", err)
		}
	}
	a.closers = nil
}

// loadConfig reads the configured file and applies the global flags.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// shutdownTimeout bounds graceful teardown on interrupt.
const shutdownTimeout = 10 * time.Second

package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ekomarov/fundchat/internal/config"
	"github.com/ekomarov/fundchat/internal/core/domain"
	"github.com/ekomarov/fundchat/internal/core/ports"
	"github.com/ekomarov/fundchat/internal/core/usecase"
	"github.com/ekomarov/fundchat/internal/infrastructure/chunking"
	"github.com/ekomarov/fundchat/internal/infrastructure/dataset"
	"github.com/ekomarov/fundchat/internal/infrastructure/llm/gemini"
	"github.com/ekomarov/fundchat/internal/infrastructure/queue/nats"
	"github.com/ekomarov/fundchat/internal/infrastructure/repository/postgres"
	"github.com/ekomarov/fundchat/internal/infrastructure/resilience"
	"github.com/ekomarov/fundchat/internal/infrastructure/vector/pinecone"
)

// App wires configuration, infrastructure and use cases for one process.
// Optional collaborators (query log, reindex queue) stay nil when their
// configuration is absent.
type App struct {
	Config config.Config
	Logger *slog.Logger

	Store    ports.DatasetStore
	Index    ports.VectorIndex
	AnswerUC *usecase.AnswerUseCase
	IndexUC  *usecase.ReindexUseCase
	QueryLog ports.QueryLogStore
	Queue    ports.ReindexQueue

	closeFn func()
}

// New loads the dataset and builds the full dependency graph. A dataset
// that fails validation halts startup: answering over a partial store
// would silently break aggregation completeness.
func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	store, err := dataset.Load(cfg.HoldingsPath, cfg.TradesPath)
	if err != nil {
		return nil, domain.WrapError(domain.ErrNotReady, "load dataset", err)
	}
	logger.Info("dataset_loaded",
		"holdings", len(store.Holdings()),
		"trades", len(store.Trades()),
		"funds", len(store.DistinctFunds()),
	)

	executor := resilience.NewExecutor(resilience.DefaultConfig(), logger)

	llm := gemini.New(
		cfg.GeminiAPIKey,
		cfg.GeminiGenModel,
		cfg.GeminiEmbedModel,
		gemini.WithExecutor(executor),
	)
	index := pinecone.New(cfg.PineconeHost, cfg.PineconeAPIKey, pinecone.WithExecutor(executor))
	chunker := chunking.NewBuilder(cfg.ChunkMaxTokens, cfg.ChunkOverlap)

	var closers []func()

	var queryLog ports.QueryLogStore
	if cfg.PostgresDSN != "" {
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewQueryLogRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		queryLog = repo
		closers = append(closers, func() { _ = db.Close() })
	}

	var queue ports.ReindexQueue
	if cfg.NATSURL != "" {
		natsQueue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
			ResilienceExecutor: executor,
			Logger:             logger,
		})
		if err != nil {
			return nil, fmt.Errorf("init reindex queue: %w", err)
		}
		queue = natsQueue
		closers = append(closers, natsQueue.Close)
	}

	engine := usecase.NewAggregationEngine(store)
	retriever := usecase.NewRetriever(llm, index, usecase.WithTopK(cfg.RetrievalTopK))
	answerUC := usecase.NewAnswerUseCase(engine, retriever, llm, queryLog, logger, cfg.AnswerTimeout())
	indexUC := usecase.NewReindexUseCase(store, chunker, llm, index, logger)

	return &App{
		Config:   cfg,
		Logger:   logger,
		Store:    store,
		Index:    index,
		AnswerUC: answerUC,
		IndexUC:  indexUC,
		QueryLog: queryLog,
		Queue:    queue,
		closeFn: func() {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

package bootstrap

import (
	"context"
	"fmt"

	"github.com/wendkuni/burkina-culture-assistant/internal/config"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/ports"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/usecase"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/corpus/jsonfile"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/embedding/fastembed"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/llm/gemini"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/llm/huggingface"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/llm/template"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/queue/nats"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/repository/postgres"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/resilience"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/vector/chromem"
	"github.com/wendkuni/burkina-culture-assistant/internal/infrastructure/vector/qdrant"
)

// App wires the infrastructure behind the core ports. Both serving processes
// build the same graph; cmd/api consumes the inbound use cases while
// cmd/worker consumes the rebuild side.
type App struct {
	Config config.Config

	Queue      ports.MessageQueue
	Loader     ports.CorpusLoader
	Embedder   ports.Embedder
	Index      ports.VectorIndex
	IndexAdmin ports.IndexAdmin

	AskUC     ports.Asker
	SearchUC  ports.Searcher
	StatsUC   ports.CorpusInspector
	TriggerUC ports.RebuildScheduler
	RebuildUC ports.CorpusRebuilder

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	loader, loaderClose, err := newCorpusSource(ctx, cfg)
	if err != nil {
		return nil, err
	}

	embedder, err := fastembed.New(fastembed.Options{
		Model:     cfg.EmbedModel,
		CacheDir:  cfg.EmbedCacheDir,
		MaxLength: cfg.EmbedMaxLength,
		BatchSize: cfg.EmbedBatchSize,
	})
	if err != nil {
		loaderClose()
		return nil, fmt.Errorf("init embedder: %w", err)
	}

	index, indexAdmin, err := newVectorProvider(cfg, embedder.Dimension())
	if err != nil {
		_ = embedder.Close()
		loaderClose()
		return nil, err
	}

	queue, err := nats.NewWithOptions(cfg.NATSURL, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilience.DefaultConfig()),
	})
	if err != nil {
		_ = embedder.Close()
		loaderClose()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	retrieveUC := usecase.NewRetrieveUseCase(embedder, index, usecase.RetrieveOptions{
		DefaultK:      cfg.RetrievalTopK,
		MaxK:          cfg.RetrievalMaxK,
		MinSimilarity: cfg.RetrievalMinSimilarity,
	})
	assembleUC := usecase.NewAssembleUseCase(usecase.AssembleOptions{
		MaxHistoryTurns: cfg.HistoryMaxTurns,
		TurnMaxChars:    cfg.HistoryTurnMaxChars,
		MaxContextChars: cfg.ContextMaxChars,
		DocMaxChars:     cfg.ContextDocMaxChars,
		MaxDocs:         cfg.ContextMaxDocs,
	})
	generateUC := usecase.NewGenerateUseCase(
		newRemoteTiers(cfg),
		template.New(template.Options{MaxDocs: cfg.ContextMaxDocs}),
		usecase.GenerateOptions{
			TierTimeout:    cfg.GenerationTimeout,
			MinAnswerChars: cfg.GenerationMinChars,
		},
	)

	return &App{
		Config: cfg,

		Queue:      queue,
		Loader:     loader,
		Embedder:   embedder,
		Index:      index,
		IndexAdmin: indexAdmin,

		AskUC: usecase.NewAskUseCase(retrieveUC, assembleUC, generateUC, usecase.AskOptions{
			DefaultResultCount: cfg.RetrievalTopK,
			MaxResultCount:     cfg.RetrievalMaxK,
		}),
		SearchUC:  retrieveUC,
		StatsUC:   usecase.NewStatsUseCase(loader, index, embedder.ModelName()),
		TriggerUC: usecase.NewRebuildTriggerUseCase(queue),
		RebuildUC: usecase.NewRebuildUseCase(loader, embedder, indexAdmin),

		closeFn: func() {
			queue.Close()
			_ = embedder.Close()
			loaderClose()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// newCorpusSource selects the corpus source of truth. The file source is the
// default; Postgres serves deployments where the catalog must be shared.
func newCorpusSource(ctx context.Context, cfg config.Config) (ports.CorpusLoader, func(), error) {
	switch cfg.CorpusSource {
	case "", "file":
		return jsonfile.New(cfg.CorpusPath), func() {}, nil
	case "postgres":
		db, err := postgres.OpenDB(cfg.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("open postgres: %w", err)
		}
		repo := postgres.NewCorpusRepository(db)
		if err := repo.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("ensure schema: %w", err)
		}
		return repo, func() { _ = db.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported corpus source %q", cfg.CorpusSource)
	}
}

func newVectorProvider(cfg config.Config, vectorSize int) (ports.VectorIndex, ports.IndexAdmin, error) {
	switch cfg.VectorProvider {
	case "", "chromem":
		store, err := chromem.New(chromem.Options{
			Path:       cfg.ChromemPath,
			Collection: cfg.ChromemCollection,
			Compress:   cfg.ChromemCompress,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("init chromem index: %w", err)
		}
		return store, store, nil
	case "qdrant":
		store := qdrant.New(qdrant.Options{
			BaseURL:    cfg.QdrantURL,
			Collection: cfg.QdrantCollection,
			VectorSize: vectorSize,
		})
		return store, store, nil
	default:
		return nil, nil, fmt.Errorf("unsupported vector provider %q", cfg.VectorProvider)
	}
}

// newRemoteTiers builds the remote generation tiers in fallthrough order.
// Backends without credentials are left out of the chain instead of burning
// a doomed network attempt per request.
func newRemoteTiers(cfg config.Config) []usecase.RemoteTier {
	var tiers []usecase.RemoteTier
	if cfg.GeminiAPIKey != "" {
		tiers = append(tiers, usecase.RemoteTier{
			Label: domain.BackendPrimaryLLM,
			Backend: gemini.New(gemini.Options{
				BaseURL: cfg.GeminiBaseURL,
				APIKey:  cfg.GeminiAPIKey,
				Model:   cfg.GeminiModel,
				Timeout: cfg.GenerationTimeout,
			}),
		})
	}
	if cfg.HFToken != "" {
		tiers = append(tiers, usecase.RemoteTier{
			Label: domain.BackendSecondaryLLM,
			Backend: huggingface.New(huggingface.Options{
				BaseURL: cfg.HFBaseURL,
				Token:   cfg.HFToken,
				Model:   cfg.HFModel,
				Timeout: cfg.GenerationTimeout,
			}),
		})
	}
	return tiers
}

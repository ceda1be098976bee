package ports

import (
	"context"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

// Asker is the inbound contract for the full question-answering pipeline.
type Asker interface {
	Ask(ctx context.Context, query domain.Query) (*domain.Answer, error)
}

// Searcher exposes raw semantic retrieval without generation.
type Searcher interface {
	Search(ctx context.Context, question string, k int) ([]domain.RetrievedMatch, error)
}

// CorpusInspector serves the health and statistics probes.
type CorpusInspector interface {
	DocumentCount(ctx context.Context) (int, error)
	Stats(ctx context.Context) (*domain.CorpusStats, error)
}

// RebuildScheduler accepts corpus rebuild requests for asynchronous execution.
type RebuildScheduler interface {
	RequestRebuild(ctx context.Context) (*domain.RebuildJob, error)
}

// CorpusRebuilder performs a full corpus rebuild from the source of truth.
type CorpusRebuilder interface {
	Rebuild(ctx context.Context, job domain.RebuildJob) (*domain.RebuildResult, error)
}

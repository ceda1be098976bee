package ports

import (
	"context"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

// Embedder produces vectors in the corpus embedding space. Query and passage
// texts go through the same model so similarities are comparable.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedPassages(ctx context.Context, texts []string) ([][]float32, error)
	ModelName() string
}

// VectorIndex is the read side of the corpus embedding index. Search results
// carry similarity scores in [0,1]; callers apply floor and ordering policy.
type VectorIndex interface {
	Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievedMatch, error)
	Count(ctx context.Context) (int, error)
}

// IndexAdmin manages the index lifecycle around corpus rebuilds. Rebuild
// replaces the indexed corpus wholesale; Reload swaps a serving process onto
// the latest persisted state. Readers never observe a partial index.
type IndexAdmin interface {
	Rebuild(ctx context.Context, docs []domain.Document, vectors [][]float32) error
	Reload(ctx context.Context) error
}

// GenerationBackend produces answer text from an assembled context. Any
// returned error is a fallthrough signal for the tier chain.
type GenerationBackend interface {
	Name() string
	Generate(ctx context.Context, pc domain.PromptContext) (string, error)
}

// Chunker splits cleaned text into indexable passages.
type Chunker interface {
	Split(text string) []string
}

// SegmentExtractor pulls text segments out of one source file.
type SegmentExtractor interface {
	Extract(ctx context.Context, path string) ([]domain.SourceSegment, error)
}

// CorpusLoader loads corpus records from their source of truth.
type CorpusLoader interface {
	LoadCorpus(ctx context.Context) ([]domain.Document, error)
}

// CorpusWriter persists a prepared corpus as the new source of truth.
// Writes are atomic; a concurrent LoadCorpus sees either the old corpus
// or the new one, never a partial file.
type CorpusWriter interface {
	SaveCorpus(ctx context.Context, docs []domain.Document) error
}

// MessageQueue publishes and consumes corpus rebuild events.
type MessageQueue interface {
	PublishRebuildRequested(ctx context.Context, job domain.RebuildJob) error
	SubscribeRebuildRequested(ctx context.Context, handler func(context.Context, domain.RebuildJob) error) error
	PublishRebuilt(ctx context.Context, result domain.RebuildResult) error
	SubscribeRebuilt(ctx context.Context, handler func(context.Context, domain.RebuildResult) error) error
}

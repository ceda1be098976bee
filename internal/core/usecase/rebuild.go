package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/ports"
)

// RebuildUseCase replaces the indexed corpus wholesale from its source of
// truth. Serving processes keep the prior snapshot until the fresh index is
// swapped in.
type RebuildUseCase struct {
	loader   ports.CorpusLoader
	embedder ports.Embedder
	index    ports.IndexAdmin
}

func NewRebuildUseCase(loader ports.CorpusLoader, embedder ports.Embedder, index ports.IndexAdmin) *RebuildUseCase {
	return &RebuildUseCase{
		loader:   loader,
		embedder: embedder,
		index:    index,
	}
}

func (uc *RebuildUseCase) Rebuild(ctx context.Context, job domain.RebuildJob) (*domain.RebuildResult, error) {
	docs, err := uc.loader.LoadCorpus(ctx)
	if err != nil {
		return nil, fmt.Errorf("load corpus: %w", err)
	}
	if err := ValidateCorpus(docs); err != nil {
		return nil, domain.WrapError(domain.ErrInvalidRequest, "validate corpus", err)
	}

	texts := make([]string, len(docs))
	for i, doc := range docs {
		texts[i] = doc.Body
	}
	vectors, err := uc.embedder.EmbedPassages(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed corpus: %w", err)
	}
	if len(vectors) != len(docs) {
		return nil, fmt.Errorf("embed corpus: got %d vectors for %d documents", len(vectors), len(docs))
	}

	if err := uc.index.Rebuild(ctx, docs, vectors); err != nil {
		return nil, fmt.Errorf("rebuild index: %w", err)
	}

	return &domain.RebuildResult{
		JobID:       job.ID,
		Documents:   len(docs),
		CompletedAt: time.Now().UTC(),
	}, nil
}

// ValidateCorpus checks the structural contract of ingested records:
// unique non-empty ids and non-empty bodies. Provenance is not validated.
func ValidateCorpus(docs []domain.Document) error {
	if len(docs) == 0 {
		return fmt.Errorf("corpus is empty")
	}
	seen := make(map[string]struct{}, len(docs))
	for i, doc := range docs {
		if strings.TrimSpace(doc.ID) == "" {
			return fmt.Errorf("document %d: empty id", i)
		}
		if _, dup := seen[doc.ID]; dup {
			return fmt.Errorf("document %q: duplicate id", doc.ID)
		}
		seen[doc.ID] = struct{}{}
		if strings.TrimSpace(doc.Body) == "" {
			return fmt.Errorf("document %q: empty body", doc.ID)
		}
	}
	return nil
}

// RebuildTriggerUseCase publishes rebuild requests for asynchronous
// execution by the worker.
type RebuildTriggerUseCase struct {
	queue ports.MessageQueue
}

func NewRebuildTriggerUseCase(queue ports.MessageQueue) *RebuildTriggerUseCase {
	return &RebuildTriggerUseCase{queue: queue}
}

func (uc *RebuildTriggerUseCase) RequestRebuild(ctx context.Context) (*domain.RebuildJob, error) {
	job := domain.RebuildJob{
		ID:          uuid.NewString(),
		RequestedAt: time.Now().UTC(),
	}
	if err := uc.queue.PublishRebuildRequested(ctx, job); err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "request rebuild", err)
	}
	return &job, nil
}

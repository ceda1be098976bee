package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/ports"
)

// RetrieveOptions bound retrieval behavior.
type RetrieveOptions struct {
	DefaultK      int
	MaxK          int
	MinSimilarity float64
}

type RetrieveUseCase struct {
	embedder ports.Embedder
	index    ports.VectorIndex
	opts     RetrieveOptions
}

func NewRetrieveUseCase(embedder ports.Embedder, index ports.VectorIndex, opts RetrieveOptions) *RetrieveUseCase {
	if opts.DefaultK <= 0 {
		opts.DefaultK = 5
	}
	if opts.MinSimilarity < 0 {
		opts.MinSimilarity = 0
	}
	return &RetrieveUseCase{
		embedder: embedder,
		index:    index,
		opts:     opts,
	}
}

// Search embeds the question and returns the k most similar documents,
// ordered by descending similarity with ingestion order breaking ties.
// Documents under the similarity floor are omitted; an empty result is legal.
func (uc *RetrieveUseCase) Search(ctx context.Context, question string, k int) ([]domain.RetrievedMatch, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidRequest, "search", fmt.Errorf("question is required"))
	}
	if k <= 0 {
		k = uc.opts.DefaultK
	}
	if uc.opts.MaxK > 0 && k > uc.opts.MaxK {
		k = uc.opts.MaxK
	}

	queryVector, err := uc.embedder.EmbedQuery(ctx, question)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "embed question", err)
	}

	candidates, err := uc.index.Search(ctx, queryVector, k)
	if err != nil {
		return nil, domain.WrapError(domain.ErrRetrievalUnavailable, "search index", err)
	}

	matches := make([]domain.RetrievedMatch, 0, len(candidates))
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		if candidate.Similarity < uc.opts.MinSimilarity {
			continue
		}
		if _, dup := seen[candidate.Document.ID]; dup {
			continue
		}
		seen[candidate.Document.ID] = struct{}{}
		matches = append(matches, candidate)
	}

	sort.SliceStable(matches, func(i, j int) bool {
		if matches[i].Similarity != matches[j].Similarity {
			return matches[i].Similarity > matches[j].Similarity
		}
		return matches[i].Document.Seq < matches[j].Document.Seq
	})

	if len(matches) > k {
		matches = matches[:k]
	}
	for i := range matches {
		matches[i].Rank = i + 1
	}
	return matches, nil
}

package usecase

import (
	"context"
	"sort"
	"strings"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/ports"
)

// StatsUseCase serves the health and statistics probes.
type StatsUseCase struct {
	loader ports.CorpusLoader
	index  ports.VectorIndex
	model  string
}

func NewStatsUseCase(loader ports.CorpusLoader, index ports.VectorIndex, model string) *StatsUseCase {
	return &StatsUseCase{
		loader: loader,
		index:  index,
		model:  model,
	}
}

// DocumentCount reports how many documents the serving index holds.
func (uc *StatsUseCase) DocumentCount(ctx context.Context) (int, error) {
	count, err := uc.index.Count(ctx)
	if err != nil {
		return 0, domain.WrapError(domain.ErrRetrievalUnavailable, "count documents", err)
	}
	return count, nil
}

// Stats recomputes corpus statistics from the source of truth so rebuilds
// are reflected without a process restart. Source names are collapsed to
// their part before " - " (page suffixes from PDF-derived records).
func (uc *StatsUseCase) Stats(ctx context.Context) (*domain.CorpusStats, error) {
	docs, err := uc.loader.LoadCorpus(ctx)
	if err != nil {
		return nil, domain.WrapError(domain.ErrTemporary, "load corpus", err)
	}

	categories := make(map[string]int)
	seen := make(map[string]struct{})
	sources := make([]string, 0)
	for _, doc := range docs {
		category := doc.Category
		if category == "" {
			category = "unknown"
		}
		categories[category]++

		source := doc.SourceURL
		if before, _, found := strings.Cut(source, " - "); found {
			source = before
		}
		source = strings.TrimSpace(source)
		if source == "" {
			continue
		}
		if _, dup := seen[source]; dup {
			continue
		}
		seen[source] = struct{}{}
		sources = append(sources, source)
	}
	sort.Strings(sources)

	return &domain.CorpusStats{
		TotalDocuments: len(docs),
		EmbeddingModel: uc.model,
		Categories:     categories,
		Sources:        sources,
	}, nil
}

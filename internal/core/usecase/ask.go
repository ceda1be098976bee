package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

// AskOptions bound per-request result counts.
type AskOptions struct {
	DefaultResultCount int
	MaxResultCount     int
}

// AskUseCase is the pipeline choke point: retrieval strictly precedes
// generation and no two requests share mutable state.
type AskUseCase struct {
	retrieve *RetrieveUseCase
	assemble *AssembleUseCase
	generate *GenerateUseCase
	opts     AskOptions
}

func NewAskUseCase(retrieve *RetrieveUseCase, assemble *AssembleUseCase, generate *GenerateUseCase, opts AskOptions) *AskUseCase {
	if opts.DefaultResultCount <= 0 {
		opts.DefaultResultCount = 5
	}
	if opts.MaxResultCount <= 0 {
		opts.MaxResultCount = 20
	}
	return &AskUseCase{
		retrieve: retrieve,
		assemble: assemble,
		generate: generate,
		opts:     opts,
	}
}

// Ask validates the question, runs retrieval, context assembly and tiered
// generation, and shapes the answer with ordered distinct sources plus
// wall-clock timings. Timings are reported on fallback paths too.
func (uc *AskUseCase) Ask(ctx context.Context, query domain.Query) (*domain.Answer, error) {
	start := time.Now()

	question := strings.TrimSpace(query.Question)
	if question == "" {
		return nil, domain.WrapError(domain.ErrInvalidRequest, "ask", fmt.Errorf("question is required"))
	}

	if IsGreeting(question) {
		return &domain.Answer{
			Text:    greetingAnswer,
			Sources: []domain.Source{},
			Metadata: domain.AnswerMetadata{
				Backend:   domain.BackendTemplate,
				TotalTime: time.Since(start),
			},
		}, nil
	}

	k := query.ResultCount
	if k <= 0 {
		k = uc.opts.DefaultResultCount
	}
	if k > uc.opts.MaxResultCount {
		k = uc.opts.MaxResultCount
	}

	retrievalStart := time.Now()
	matches, err := uc.retrieve.Search(ctx, question, k)
	if err != nil {
		return nil, err
	}
	retrievalTime := time.Since(retrievalStart)

	pc := uc.assemble.Build(question, matches, query.History)

	result, err := uc.generate.Generate(ctx, pc, query.UseGenerator)
	if err != nil {
		return nil, err
	}

	return &domain.Answer{
		Text:    result.AnswerText,
		Sources: collectSources(pc.Matches),
		Metadata: domain.AnswerMetadata{
			Backend:            result.Backend,
			RetrievalTime:      retrievalTime,
			GenerationTime:     result.GenerationTime,
			TotalTime:          time.Since(start),
			Grounded:           pc.Grounded,
			DocumentsRetrieved: len(matches),
		},
	}, nil
}

// collectSources maps the context documents to ordered distinct citations.
func collectSources(matches []domain.RetrievedMatch) []domain.Source {
	sources := make([]domain.Source, 0, len(matches))
	seen := make(map[string]struct{}, len(matches))
	for _, match := range matches {
		if _, dup := seen[match.Document.ID]; dup {
			continue
		}
		seen[match.Document.ID] = struct{}{}
		sources = append(sources, domain.Source{
			Title: match.Document.Title,
			URL:   match.Document.SourceURL,
		})
	}
	return sources
}

package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

type retrieveEmbedderFake struct {
	calls int
	err   error
}

func (f *retrieveEmbedderFake) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2, 0.3}, nil
}

func (f *retrieveEmbedderFake) EmbedPassages(context.Context, []string) ([][]float32, error) {
	return nil, nil
}

func (f *retrieveEmbedderFake) ModelName() string { return "fake-model" }

type retrieveIndexFake struct {
	k          int
	candidates []domain.RetrievedMatch
	err        error
}

func (f *retrieveIndexFake) Search(_ context.Context, _ []float32, k int) ([]domain.RetrievedMatch, error) {
	f.k = k
	if f.err != nil {
		return nil, f.err
	}
	out := make([]domain.RetrievedMatch, len(f.candidates))
	copy(out, f.candidates)
	return out, nil
}

func (f *retrieveIndexFake) Count(context.Context) (int, error) {
	return len(f.candidates), nil
}

func candidate(id string, seq int, similarity float64) domain.RetrievedMatch {
	return domain.RetrievedMatch{
		Document:   domain.Document{ID: id, Title: "t-" + id, Seq: seq},
		Similarity: similarity,
	}
}

func TestRetrieveUseCaseSearchOrdersAndRanks(t *testing.T) {
	index := &retrieveIndexFake{candidates: []domain.RetrievedMatch{
		candidate("b", 2, 0.80),
		candidate("c", 3, 0.80),
		candidate("a", 1, 0.95),
	}}
	uc := NewRetrieveUseCase(&retrieveEmbedderFake{}, index, RetrieveOptions{})

	matches, err := uc.Search(context.Background(), "question", 3)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 3 {
		t.Fatalf("expected 3 matches, got %d", len(matches))
	}
	wantOrder := []string{"a", "b", "c"}
	for i, want := range wantOrder {
		if matches[i].Document.ID != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, matches[i].Document.ID)
		}
		if matches[i].Rank != i+1 {
			t.Fatalf("position %d: expected rank %d, got %d", i, i+1, matches[i].Rank)
		}
	}
	for i := 1; i < len(matches); i++ {
		if matches[i].Similarity > matches[i-1].Similarity {
			t.Fatalf("similarity increased at position %d", i)
		}
	}
}

func TestRetrieveUseCaseSearchAppliesFloor(t *testing.T) {
	index := &retrieveIndexFake{candidates: []domain.RetrievedMatch{
		candidate("a", 1, 0.90),
		candidate("b", 2, 0.10),
	}}
	uc := NewRetrieveUseCase(&retrieveEmbedderFake{}, index, RetrieveOptions{MinSimilarity: 0.30})

	matches, err := uc.Search(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 1 || matches[0].Document.ID != "a" {
		t.Fatalf("expected only document a above floor, got %+v", matches)
	}
}

func TestRetrieveUseCaseSearchEmptyBelowFloorIsLegal(t *testing.T) {
	index := &retrieveIndexFake{candidates: []domain.RetrievedMatch{
		candidate("a", 1, 0.05),
	}}
	uc := NewRetrieveUseCase(&retrieveEmbedderFake{}, index, RetrieveOptions{MinSimilarity: 0.30})

	matches, err := uc.Search(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 0 {
		t.Fatalf("expected empty result, got %d matches", len(matches))
	}
}

func TestRetrieveUseCaseSearchDeduplicates(t *testing.T) {
	index := &retrieveIndexFake{candidates: []domain.RetrievedMatch{
		candidate("a", 1, 0.90),
		candidate("a", 1, 0.85),
		candidate("b", 2, 0.70),
	}}
	uc := NewRetrieveUseCase(&retrieveEmbedderFake{}, index, RetrieveOptions{})

	matches, err := uc.Search(context.Background(), "question", 5)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 distinct documents, got %d", len(matches))
	}
}

func TestRetrieveUseCaseSearchDefaultK(t *testing.T) {
	index := &retrieveIndexFake{}
	uc := NewRetrieveUseCase(&retrieveEmbedderFake{}, index, RetrieveOptions{})

	if _, err := uc.Search(context.Background(), "question", 0); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if index.k != 5 {
		t.Fatalf("expected default k=5, got %d", index.k)
	}
}

func TestRetrieveUseCaseSearchClampsToMaxK(t *testing.T) {
	index := &retrieveIndexFake{}
	uc := NewRetrieveUseCase(&retrieveEmbedderFake{}, index, RetrieveOptions{MaxK: 20})

	if _, err := uc.Search(context.Background(), "question", 100); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if index.k != 20 {
		t.Fatalf("expected k clamped to 20, got %d", index.k)
	}
}

func TestRetrieveUseCaseSearchTruncatesToK(t *testing.T) {
	index := &retrieveIndexFake{candidates: []domain.RetrievedMatch{
		candidate("a", 1, 0.9),
		candidate("b", 2, 0.8),
		candidate("c", 3, 0.7),
	}}
	uc := NewRetrieveUseCase(&retrieveEmbedderFake{}, index, RetrieveOptions{})

	matches, err := uc.Search(context.Background(), "question", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d", len(matches))
	}
}

func TestRetrieveUseCaseSearchIdempotent(t *testing.T) {
	index := &retrieveIndexFake{candidates: []domain.RetrievedMatch{
		candidate("b", 2, 0.8),
		candidate("a", 1, 0.8),
	}}
	uc := NewRetrieveUseCase(&retrieveEmbedderFake{}, index, RetrieveOptions{})

	first, err := uc.Search(context.Background(), "question", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	second, err := uc.Search(context.Background(), "question", 2)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical results, got %+v vs %+v", first, second)
	}
}

func TestRetrieveUseCaseSearchEmptyQuestion(t *testing.T) {
	embedder := &retrieveEmbedderFake{}
	uc := NewRetrieveUseCase(embedder, &retrieveIndexFake{}, RetrieveOptions{})

	_, err := uc.Search(context.Background(), "  ", 3)
	if !domain.IsKind(err, domain.ErrInvalidRequest) {
		t.Fatalf("expected invalid request, got %v", err)
	}
	if embedder.calls != 0 {
		t.Fatalf("expected no embedding calls, got %d", embedder.calls)
	}
}

func TestRetrieveUseCaseSearchIndexError(t *testing.T) {
	uc := NewRetrieveUseCase(&retrieveEmbedderFake{}, &retrieveIndexFake{err: errors.New("index down")}, RetrieveOptions{})

	_, err := uc.Search(context.Background(), "question", 3)
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected retrieval unavailable, got %v", err)
	}
}

func TestRetrieveUseCaseSearchEmbedError(t *testing.T) {
	uc := NewRetrieveUseCase(&retrieveEmbedderFake{err: errors.New("embed fail")}, &retrieveIndexFake{}, RetrieveOptions{})

	_, err := uc.Search(context.Background(), "question", 3)
	if !domain.IsKind(err, domain.ErrRetrievalUnavailable) {
		t.Fatalf("expected retrieval unavailable, got %v", err)
	}
}

package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

type corpusLoaderFake struct {
	docs []domain.Document
	err  error
}

func (f *corpusLoaderFake) LoadCorpus(context.Context) ([]domain.Document, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.docs, nil
}

type passageEmbedderFake struct {
	short bool
	err   error
}

func (f *passageEmbedderFake) EmbedQuery(context.Context, string) ([]float32, error) {
	return []float32{0.1}, nil
}

func (f *passageEmbedderFake) EmbedPassages(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	n := len(texts)
	if f.short {
		n--
	}
	vectors := make([][]float32, n)
	for i := range vectors {
		vectors[i] = []float32{float32(i)}
	}
	return vectors, nil
}

func (f *passageEmbedderFake) ModelName() string { return "fake-model" }

type indexAdminFake struct {
	rebuilds int
	reloads  int
	docs     []domain.Document
	err      error
}

func (f *indexAdminFake) Rebuild(_ context.Context, docs []domain.Document, _ [][]float32) error {
	if f.err != nil {
		return f.err
	}
	f.rebuilds++
	f.docs = docs
	return nil
}

func (f *indexAdminFake) Reload(context.Context) error {
	f.reloads++
	return nil
}

type queueFake struct {
	published []domain.RebuildJob
	err       error
}

func (f *queueFake) PublishRebuildRequested(_ context.Context, job domain.RebuildJob) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, job)
	return nil
}

func (f *queueFake) SubscribeRebuildRequested(context.Context, func(context.Context, domain.RebuildJob) error) error {
	return nil
}

func (f *queueFake) PublishRebuilt(context.Context, domain.RebuildResult) error { return nil }

func (f *queueFake) SubscribeRebuilt(context.Context, func(context.Context, domain.RebuildResult) error) error {
	return nil
}

func corpusDoc(id, body string) domain.Document {
	return domain.Document{ID: id, Title: "t-" + id, Body: body}
}

func TestRebuildUseCaseRebuildsIndex(t *testing.T) {
	loader := &corpusLoaderFake{docs: []domain.Document{
		corpusDoc("a", "premier document"),
		corpusDoc("b", "second document"),
	}}
	index := &indexAdminFake{}
	uc := NewRebuildUseCase(loader, &passageEmbedderFake{}, index)

	job := domain.RebuildJob{ID: "job-1", RequestedAt: time.Now().UTC()}
	result, err := uc.Rebuild(context.Background(), job)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}
	if result.JobID != "job-1" {
		t.Fatalf("expected job id carried through, got %q", result.JobID)
	}
	if result.Documents != 2 {
		t.Fatalf("expected 2 documents, got %d", result.Documents)
	}
	if index.rebuilds != 1 || len(index.docs) != 2 {
		t.Fatalf("index not rebuilt with the corpus")
	}
	if result.CompletedAt.IsZero() {
		t.Fatalf("expected a completion timestamp")
	}
}

func TestRebuildUseCaseRejectsInvalidCorpus(t *testing.T) {
	cases := []struct {
		name string
		docs []domain.Document
	}{
		{"empty corpus", nil},
		{"blank id", []domain.Document{corpusDoc("", "texte")}},
		{"duplicate id", []domain.Document{corpusDoc("a", "un"), corpusDoc("a", "deux")}},
		{"blank body", []domain.Document{corpusDoc("a", "  ")}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			index := &indexAdminFake{}
			uc := NewRebuildUseCase(&corpusLoaderFake{docs: tc.docs}, &passageEmbedderFake{}, index)

			_, err := uc.Rebuild(context.Background(), domain.RebuildJob{ID: "job-1"})
			if !domain.IsKind(err, domain.ErrInvalidRequest) {
				t.Fatalf("expected invalid request, got %v", err)
			}
			if index.rebuilds != 0 {
				t.Fatalf("index must stay untouched when validation fails")
			}
		})
	}
}

func TestRebuildUseCaseChecksVectorCount(t *testing.T) {
	loader := &corpusLoaderFake{docs: []domain.Document{
		corpusDoc("a", "premier"),
		corpusDoc("b", "second"),
	}}
	index := &indexAdminFake{}
	uc := NewRebuildUseCase(loader, &passageEmbedderFake{short: true}, index)

	_, err := uc.Rebuild(context.Background(), domain.RebuildJob{ID: "job-1"})
	if err == nil {
		t.Fatalf("expected a vector count mismatch error")
	}
	if index.rebuilds != 0 {
		t.Fatalf("index must stay untouched on a mismatch")
	}
}

func TestRebuildUseCaseLoaderFailure(t *testing.T) {
	uc := NewRebuildUseCase(&corpusLoaderFake{err: errors.New("disk gone")}, &passageEmbedderFake{}, &indexAdminFake{})

	if _, err := uc.Rebuild(context.Background(), domain.RebuildJob{ID: "job-1"}); err == nil {
		t.Fatalf("expected loader failure to propagate")
	}
}

func TestRebuildTriggerUseCasePublishesJob(t *testing.T) {
	queue := &queueFake{}
	uc := NewRebuildTriggerUseCase(queue)

	job, err := uc.RequestRebuild(context.Background())
	if err != nil {
		t.Fatalf("RequestRebuild() error = %v", err)
	}
	if job.ID == "" {
		t.Fatalf("expected a job id")
	}
	if len(queue.published) != 1 || queue.published[0].ID != job.ID {
		t.Fatalf("job not published, got %+v", queue.published)
	}
}

func TestRebuildTriggerUseCaseQueueFailure(t *testing.T) {
	uc := NewRebuildTriggerUseCase(&queueFake{err: errors.New("nats down")})

	_, err := uc.RequestRebuild(context.Background())
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary failure, got %v", err)
	}
}

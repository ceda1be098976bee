package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

func TestSaveThenLoadRoundTrip(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "corpus.json"))
	docs := []domain.Document{
		{ID: "doc_7", Title: "Thomas Sankara", Body: "Thomas Sankara a dirigé la révolution burkinabè.", Category: "histoire", SourceURL: "histoire.pdf - page 3"},
		{ID: "doc_9", Title: "FESPACO", Body: "Le FESPACO est le festival panafricain du cinéma de Ouagadougou.", Category: "culture", SourceURL: "https://fespaco.bf"},
		{ID: "doc_12", Title: "Balafon", Body: "Le balafon est un instrument de musique traditionnel.", Category: "musique", SourceURL: ""},
	}

	if err := store.SaveCorpus(context.Background(), docs); err != nil {
		t.Fatalf("SaveCorpus() error = %v", err)
	}
	got, err := store.LoadCorpus(context.Background())
	if err != nil {
		t.Fatalf("LoadCorpus() error = %v", err)
	}

	if len(got) != len(docs) {
		t.Fatalf("LoadCorpus() returned %d documents, want %d", len(got), len(docs))
	}
	// Save reassigns sequential ids regardless of the input ids.
	for i, doc := range got {
		wantID := []string{"doc_1", "doc_2", "doc_3"}[i]
		if doc.ID != wantID {
			t.Errorf("document %d id = %q, want %q", i, doc.ID, wantID)
		}
		if doc.Seq != i {
			t.Errorf("document %d seq = %d, want %d", i, doc.Seq, i)
		}
	}
	if got[0].Title != "Thomas Sankara" || got[0].Body != docs[0].Body {
		t.Errorf("document 0 = %+v, want title and body preserved", got[0])
	}
	if got[1].SourceURL != "https://fespaco.bf" || got[1].Category != "culture" {
		t.Errorf("document 1 source = %q category = %q, want original values", got[1].SourceURL, got[1].Category)
	}
}

func TestLoadCorpusReadsIngestionFormat(t *testing.T) {
	// The file as the ingestion tooling writes it, including fields the
	// loader does not use.
	raw := `[
  {"id": 1, "title": "Les masques", "content": "Les masques jouent un rôle central dans les cérémonies.", "source": "traditions.pdf - page 2", "category": "culture", "word_count": 9, "metadata": {"pdf": "traditions.pdf", "page": 2}},
  {"title": "Sans identifiant", "content": "Ce passage n'a pas d'identifiant.", "source": "", "category": "général"}
]`
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	got, err := New(path).LoadCorpus(context.Background())
	if err != nil {
		t.Fatalf("LoadCorpus() error = %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("LoadCorpus() returned %d documents, want 2", len(got))
	}
	if got[0].ID != "doc_1" {
		t.Errorf("document 0 id = %q, want %q", got[0].ID, "doc_1")
	}
	if got[0].Title != "Les masques" || got[0].Category != "culture" {
		t.Errorf("document 0 = %+v, want mapped title and category", got[0])
	}
	if got[0].SourceURL != "traditions.pdf - page 2" {
		t.Errorf("document 0 source = %q, want file source preserved", got[0].SourceURL)
	}
	// A record without an id maps to a blank document id so corpus
	// validation can reject it instead of the loader inventing one.
	if got[1].ID != "" {
		t.Errorf("document 1 id = %q, want blank", got[1].ID)
	}
}

func TestLoadCorpusMissingFile(t *testing.T) {
	store := New(filepath.Join(t.TempDir(), "absent.json"))
	if _, err := store.LoadCorpus(context.Background()); err == nil {
		t.Fatal("LoadCorpus() error = nil, want missing-file error")
	}
}

func TestLoadCorpusRejectsMalformedJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	if err := os.WriteFile(path, []byte(`{"not": "an array"`), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	_, err := New(path).LoadCorpus(context.Background())
	if err == nil {
		t.Fatal("LoadCorpus() error = nil, want parse error")
	}
	if !strings.Contains(err.Error(), path) {
		t.Errorf("LoadCorpus() error = %v, want the corpus path named", err)
	}
}

func TestSaveCorpusCreatesParentDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "data", "corpus.json")
	store := New(path)

	err := store.SaveCorpus(context.Background(), []domain.Document{
		{Title: "Ouagadougou", Body: "Ouagadougou est la capitale du Burkina Faso.", Category: "géographie"},
	})
	if err != nil {
		t.Fatalf("SaveCorpus() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatalf("corpus file not written: %v", err)
	}
}

func TestSaveCorpusWritesWordCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corpus.json")
	err := New(path).SaveCorpus(context.Background(), []domain.Document{
		{Title: "Tô", Body: "Le tô est un plat traditionnel à base de farine de mil."},
	})
	if err != nil {
		t.Fatalf("SaveCorpus() error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read corpus file: %v", err)
	}
	if !strings.Contains(string(data), `"word_count": 12`) {
		t.Errorf("corpus file = %s, want word_count 12", data)
	}
}

func TestNewDefaultsPath(t *testing.T) {
	if got := New("").Path(); got != DefaultPath {
		t.Errorf("Path() = %q, want %q", got, DefaultPath)
	}
}

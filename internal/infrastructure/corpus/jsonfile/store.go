// Package jsonfile reads and writes the canonical corpus file. The corpus
// is a JSON array of passage records produced by the ingestion CLI; it is
// the source of truth every index rebuild starts from.
package jsonfile

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

// DefaultPath is where the ingestion CLI writes the corpus and where the
// worker reads it from.
const DefaultPath = "data/corpus.json"

// record is the on-disk passage shape. IDs are sequential integers assigned
// at ingestion time; unknown fields from older tooling are ignored on load.
type record struct {
	ID        json.Number `json:"id"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Source    string      `json:"source"`
	Category  string      `json:"category"`
	WordCount int         `json:"word_count,omitempty"`
}

// Store loads and saves the corpus file.
type Store struct {
	path string
}

// New returns a store over the given corpus file. The file does not have to
// exist yet; SaveCorpus creates it and its parent directory.
func New(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path}
}

// Path reports the corpus file location.
func (s *Store) Path() string {
	return s.path
}

// LoadCorpus reads the corpus file and maps its records to documents in file
// order. Seq mirrors the position in the file so retrieval ties break by
// ingestion order. Record ids are carried as "doc_<id>"; a record without an
// id yields a blank document id for the caller's validation to reject.
func (s *Store) LoadCorpus(_ context.Context) ([]domain.Document, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("read corpus file: %w", err)
	}

	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse corpus file %s: %w", s.path, err)
	}

	docs := make([]domain.Document, 0, len(records))
	for i, rec := range records {
		id := ""
		if rec.ID.String() != "" {
			id = "doc_" + rec.ID.String()
		}
		docs = append(docs, domain.Document{
			ID:        id,
			Title:     rec.Title,
			Body:      rec.Content,
			Category:  rec.Category,
			SourceURL: rec.Source,
			Seq:       i,
		})
	}
	return docs, nil
}

// SaveCorpus writes the documents as the new corpus file. Ids are reassigned
// sequentially from 1 in slice order. The write goes through a temp file and
// rename so a concurrent LoadCorpus never sees a partial corpus.
func (s *Store) SaveCorpus(_ context.Context, docs []domain.Document) error {
	records := make([]record, 0, len(docs))
	for i, doc := range docs {
		records = append(records, record{
			ID:        json.Number(fmt.Sprintf("%d", i+1)),
			Title:     doc.Title,
			Content:   doc.Body,
			Source:    doc.SourceURL,
			Category:  doc.Category,
			WordCount: len(strings.Fields(doc.Body)),
		})
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encode corpus: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create corpus dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".corpus-*.json")
	if err != nil {
		return fmt.Errorf("create temp corpus file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write corpus file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close corpus file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace corpus file: %w", err)
	}
	return nil
}

// Package chromem persists the corpus embedding index in an embedded
// chromem-go database, so retrieval needs no external vector service.
package chromem

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"

	chromemgo "github.com/philippgille/chromem-go"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

const DefaultCollection = "burkina_culture"

type Options struct {
	Path       string
	Collection string
	Compress   bool
}

// Store serves similarity search from an in-process collection snapshot.
// Rebuild and Reload replace the snapshot atomically; readers keep the
// snapshot they loaded and never observe a partially built index.
type Store struct {
	path       string
	collection string
	compress   bool

	mu      sync.Mutex
	db      *chromemgo.DB
	serving atomic.Pointer[chromemgo.Collection]
}

func New(opts Options) (*Store, error) {
	if opts.Path == "" {
		opts.Path = "data/chromadb"
	}
	if opts.Collection == "" {
		opts.Collection = DefaultCollection
	}

	if err := os.MkdirAll(opts.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create index directory %s: %w", opts.Path, err)
	}
	db, err := chromemgo.NewPersistentDB(opts.Path, opts.Compress)
	if err != nil {
		return nil, fmt.Errorf("open chromem db: %w", err)
	}
	collection, err := db.GetOrCreateCollection(opts.Collection, nil, precomputedOnly)
	if err != nil {
		return nil, fmt.Errorf("open collection %s: %w", opts.Collection, err)
	}

	store := &Store{
		path:       opts.Path,
		collection: opts.Collection,
		compress:   opts.Compress,
		db:         db,
	}
	store.serving.Store(collection)
	return store, nil
}

// precomputedOnly is installed as the collection embedding function. All
// vectors enter through Rebuild and Search, so chromem must never embed.
func precomputedOnly(context.Context, string) ([]float32, error) {
	return nil, fmt.Errorf("chromem: vectors are precomputed, embedding function must not be called")
}

// Search returns up to k nearest documents for the query vector. k is capped
// at the collection size; an empty collection yields an empty result.
func (s *Store) Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievedMatch, error) {
	collection := s.serving.Load()

	count := collection.Count()
	if count == 0 {
		return []domain.RetrievedMatch{}, nil
	}
	if k > count {
		k = count
	}

	results, err := collection.QueryEmbedding(ctx, queryVector, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("query collection %s: %w", s.collection, err)
	}

	matches := make([]domain.RetrievedMatch, 0, len(results))
	for _, result := range results {
		seq, _ := strconv.Atoi(result.Metadata["seq"])
		matches = append(matches, domain.RetrievedMatch{
			Document: domain.Document{
				ID:        result.ID,
				Title:     result.Metadata["title"],
				Body:      result.Content,
				Category:  result.Metadata["category"],
				SourceURL: result.Metadata["source_url"],
				Seq:       seq,
			},
			Similarity: float64(result.Similarity),
		})
	}
	return matches, nil
}

func (s *Store) Count(context.Context) (int, error) {
	return s.serving.Load().Count(), nil
}

// Rebuild replaces the indexed corpus wholesale. The fresh collection is
// filled before the serving pointer moves, so concurrent readers stay on
// the previous snapshot until the swap.
func (s *Store) Rebuild(ctx context.Context, docs []domain.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("rebuild: %d documents with %d vectors", len(docs), len(vectors))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.DeleteCollection(s.collection); err != nil {
		return fmt.Errorf("drop collection %s: %w", s.collection, err)
	}
	collection, err := s.db.GetOrCreateCollection(s.collection, nil, precomputedOnly)
	if err != nil {
		return fmt.Errorf("recreate collection %s: %w", s.collection, err)
	}

	if len(docs) > 0 {
		records := make([]chromemgo.Document, len(docs))
		for i, doc := range docs {
			records[i] = chromemgo.Document{
				ID:        doc.ID,
				Content:   doc.Body,
				Embedding: vectors[i],
				Metadata: map[string]string{
					"title":      doc.Title,
					"category":   doc.Category,
					"source_url": doc.SourceURL,
					"seq":        strconv.Itoa(doc.Seq),
				},
			}
		}
		// Vectors are precomputed, nothing to parallelize.
		if err := collection.AddDocuments(ctx, records, 1); err != nil {
			return fmt.Errorf("fill collection %s: %w", s.collection, err)
		}
	}

	s.serving.Store(collection)
	return nil
}

// Reload reopens the persisted index and swaps the serving snapshot onto it.
// Serving processes call this after another process rebuilt the corpus.
func (s *Store) Reload(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	db, err := chromemgo.NewPersistentDB(s.path, s.compress)
	if err != nil {
		return fmt.Errorf("reopen chromem db: %w", err)
	}
	collection, err := db.GetOrCreateCollection(s.collection, nil, precomputedOnly)
	if err != nil {
		return fmt.Errorf("reopen collection %s: %w", s.collection, err)
	}

	s.db = db
	s.serving.Store(collection)
	return nil
}

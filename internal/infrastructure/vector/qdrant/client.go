// Package qdrant serves the corpus embedding index from an external Qdrant
// instance, for deployments where the index outgrows a single process.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

const upsertBatchSize = 256

type Options struct {
	BaseURL    string
	Collection string
	VectorSize int
	Timeout    time.Duration
}

type Store struct {
	baseURL    string
	collection string
	vectorSize int
	httpClient *http.Client

	ensureMu sync.Mutex
	ensured  bool
}

func New(opts Options) *Store {
	if opts.Collection == "" {
		opts.Collection = "burkina_culture"
	}
	if opts.VectorSize <= 0 {
		opts.VectorSize = 384
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 60 * time.Second
	}
	return &Store{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		collection: opts.Collection,
		vectorSize: opts.VectorSize,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}
}

func (s *Store) Search(ctx context.Context, queryVector []float32, k int) ([]domain.RetrievedMatch, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}

	reqBody := map[string]any{
		"vector":       queryVector,
		"limit":        k,
		"with_payload": true,
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal search body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/search", s.baseURL, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("qdrant search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, formatQdrantHTTPError("search", resp)
	}

	var searchResp struct {
		Result []struct {
			Score   float64        `json:"score"`
			Payload map[string]any `json:"payload"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&searchResp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	matches := make([]domain.RetrievedMatch, 0, len(searchResp.Result))
	for _, r := range searchResp.Result {
		matches = append(matches, domain.RetrievedMatch{
			Document: domain.Document{
				ID:        getStringPayload(r.Payload, "doc_id"),
				Title:     getStringPayload(r.Payload, "title"),
				Body:      getStringPayload(r.Payload, "text"),
				Category:  getStringPayload(r.Payload, "category"),
				SourceURL: getStringPayload(r.Payload, "source_url"),
				Seq:       getIntPayload(r.Payload, "seq"),
			},
			Similarity: r.Score,
		})
	}
	return matches, nil
}

func (s *Store) Count(ctx context.Context) (int, error) {
	if err := s.ensureCollection(ctx); err != nil {
		return 0, err
	}

	body, err := json.Marshal(map[string]any{"exact": true})
	if err != nil {
		return 0, fmt.Errorf("marshal count body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s/points/count", s.baseURL, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create count request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("qdrant count request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return 0, formatQdrantHTTPError("count", resp)
	}

	var countResp struct {
		Result struct {
			Count int `json:"count"`
		} `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&countResp); err != nil {
		return 0, fmt.Errorf("decode count response: %w", err)
	}
	return countResp.Result.Count, nil
}

// Rebuild drops and refills the collection. Queries racing the refill can
// observe the transition; deployments that need snapshot semantics serve
// from the embedded index instead.
func (s *Store) Rebuild(ctx context.Context, docs []domain.Document, vectors [][]float32) error {
	if len(docs) != len(vectors) {
		return fmt.Errorf("rebuild: %d documents with %d vectors", len(docs), len(vectors))
	}

	if err := s.deleteCollection(ctx); err != nil {
		return err
	}
	if err := s.createCollection(ctx); err != nil {
		return err
	}

	type point struct {
		ID      string         `json:"id"`
		Vector  []float32      `json:"vector"`
		Payload map[string]any `json:"payload"`
	}

	for start := 0; start < len(docs); start += upsertBatchSize {
		end := start + upsertBatchSize
		if end > len(docs) {
			end = len(docs)
		}

		points := make([]point, 0, end-start)
		for i := start; i < end; i++ {
			points = append(points, point{
				ID:     uuid.NewString(),
				Vector: vectors[i],
				Payload: map[string]any{
					"doc_id":     docs[i].ID,
					"title":      docs[i].Title,
					"text":       docs[i].Body,
					"category":   docs[i].Category,
					"source_url": docs[i].SourceURL,
					"seq":        docs[i].Seq,
				},
			})
		}

		body, err := json.Marshal(map[string]any{"points": points})
		if err != nil {
			return fmt.Errorf("marshal upsert body: %w", err)
		}

		url := fmt.Sprintf("%s/collections/%s/points?wait=true", s.baseURL, s.collection)
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("create upsert request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("qdrant upsert request: %w", err)
		}
		err = func() error {
			defer resp.Body.Close()
			if resp.StatusCode >= 300 {
				return formatQdrantHTTPError("upsert", resp)
			}
			return nil
		}()
		if err != nil {
			return err
		}
	}
	return nil
}

// Reload is a no-op: Qdrant is shared state, every query already sees the
// latest rebuilt collection.
func (s *Store) Reload(context.Context) error { return nil }

func (s *Store) ensureCollection(ctx context.Context) error {
	s.ensureMu.Lock()
	if s.ensured {
		s.ensureMu.Unlock()
		return nil
	}
	s.ensureMu.Unlock()

	if err := s.createCollection(ctx); err != nil {
		return err
	}
	return nil
}

func (s *Store) createCollection(ctx context.Context) error {
	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     s.vectorSize,
			"distance": "Cosine",
		},
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal create collection body: %w", err)
	}

	url := fmt.Sprintf("%s/collections/%s", s.baseURL, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodPut, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create collection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant create collection request: %w", err)
	}
	defer resp.Body.Close()

	// 200/201 for create, 409 if already exists (depends on version/config).
	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusConflict {
		return formatQdrantHTTPError("create collection", resp)
	}
	s.markEnsured()
	return nil
}

func (s *Store) deleteCollection(ctx context.Context) error {
	url := fmt.Sprintf("%s/collections/%s", s.baseURL, s.collection)
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, url, nil)
	if err != nil {
		return fmt.Errorf("create delete collection request: %w", err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant delete collection request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 && resp.StatusCode != http.StatusNotFound {
		return formatQdrantHTTPError("delete collection", resp)
	}
	return nil
}

func (s *Store) markEnsured() {
	s.ensureMu.Lock()
	defer s.ensureMu.Unlock()
	s.ensured = true
}

func formatQdrantHTTPError(operation string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	if msg := strings.TrimSpace(string(body)); msg != "" {
		return fmt.Errorf("qdrant %s status: %s: %s", operation, resp.Status, msg)
	}
	return fmt.Errorf("qdrant %s status: %s", operation, resp.Status)
}

func getStringPayload(payload map[string]any, key string) string {
	v, ok := payload[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

func getIntPayload(payload map[string]any, key string) int {
	switch v := payload[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	default:
		return 0
	}
}

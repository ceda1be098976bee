package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/wendkuni/burkina-culture-assistant/internal/config"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

type askerFake struct {
	answer   *domain.Answer
	err      error
	gotQuery domain.Query
	calls    int
}

func (f *askerFake) Ask(_ context.Context, query domain.Query) (*domain.Answer, error) {
	f.calls++
	f.gotQuery = query
	if f.err != nil {
		return nil, f.err
	}
	if f.answer != nil {
		return f.answer, nil
	}
	return &domain.Answer{
		Text:    "Thomas Sankara a dirigé la révolution burkinabè.",
		Sources: []domain.Source{{Title: "Histoire du Faso", URL: "histoire.pdf"}},
		Metadata: domain.AnswerMetadata{
			Backend:            domain.BackendTemplate,
			RetrievalTime:      12 * time.Millisecond,
			GenerationTime:     3 * time.Millisecond,
			TotalTime:          16 * time.Millisecond,
			Grounded:           true,
			DocumentsRetrieved: 1,
		},
	}, nil
}

type searcherFake struct {
	matches []domain.RetrievedMatch
	err     error
	gotK    int
}

func (f *searcherFake) Search(_ context.Context, _ string, k int) ([]domain.RetrievedMatch, error) {
	f.gotK = k
	if f.err != nil {
		return nil, f.err
	}
	return f.matches, nil
}

type inspectorFake struct {
	count    int
	countErr error
	stats    *domain.CorpusStats
	statsErr error
}

func (f *inspectorFake) DocumentCount(context.Context) (int, error) {
	if f.countErr != nil {
		return 0, f.countErr
	}
	return f.count, nil
}

func (f *inspectorFake) Stats(context.Context) (*domain.CorpusStats, error) {
	if f.statsErr != nil {
		return nil, f.statsErr
	}
	return f.stats, nil
}

type schedulerFake struct {
	job   *domain.RebuildJob
	err   error
	calls int
}

func (f *schedulerFake) RequestRebuild(context.Context) (*domain.RebuildJob, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.job != nil {
		return f.job, nil
	}
	return &domain.RebuildJob{ID: "job-1", RequestedAt: time.Now().UTC()}, nil
}

type routerDeps struct {
	asker     *askerFake
	searcher  *searcherFake
	inspector *inspectorFake
	scheduler *schedulerFake
}

func newTestRouter(cfg config.Config, deps routerDeps) http.Handler {
	if deps.asker == nil {
		deps.asker = &askerFake{}
	}
	if deps.searcher == nil {
		deps.searcher = &searcherFake{}
	}
	if deps.inspector == nil {
		deps.inspector = &inspectorFake{count: 3}
	}
	if deps.scheduler == nil {
		deps.scheduler = &schedulerFake{}
	}
	return NewRouter(cfg, deps.asker, deps.searcher, deps.inspector, deps.scheduler, nil).Handler()
}

func postJSON(t *testing.T, handler http.Handler, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal request: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	return res
}

func TestChatReturnsAnswerEnvelope(t *testing.T) {
	asker := &askerFake{}
	handler := newTestRouter(config.Config{}, routerDeps{asker: asker})

	res := postJSON(t, handler, "/api/chat", map[string]any{
		"question": "  Qui est Thomas Sankara ?  ",
	})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}

	var resp chatResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Question != "Qui est Thomas Sankara ?" {
		t.Fatalf("expected trimmed question echoed, got %q", resp.Question)
	}
	if resp.Answer == "" {
		t.Fatalf("expected non-empty answer")
	}
	if len(resp.Sources) != 1 || resp.Sources[0].Title != "Histoire du Faso" {
		t.Fatalf("unexpected sources: %+v", resp.Sources)
	}
	if resp.Metadata.BackendUsed != string(domain.BackendTemplate) {
		t.Fatalf("expected backend_used template, got %q", resp.Metadata.BackendUsed)
	}
	if !resp.Metadata.Grounded {
		t.Fatalf("expected grounded metadata")
	}
	if resp.Timestamp == "" {
		t.Fatalf("expected timestamp")
	}

	if asker.gotQuery.Question != "Qui est Thomas Sankara ?" {
		t.Fatalf("expected trimmed question passed to pipeline, got %q", asker.gotQuery.Question)
	}
	if !asker.gotQuery.UseGenerator {
		t.Fatalf("expected use_llm to default to true")
	}
}

func TestChatUseLLMFalsePassedThrough(t *testing.T) {
	asker := &askerFake{}
	handler := newTestRouter(config.Config{}, routerDeps{asker: asker})

	res := postJSON(t, handler, "/api/chat", map[string]any{
		"question":  "Parle-moi du FESPACO",
		"use_llm":   false,
		"n_results": 7,
	})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if asker.gotQuery.UseGenerator {
		t.Fatalf("expected use_llm false passed through")
	}
	if asker.gotQuery.ResultCount != 7 {
		t.Fatalf("expected n_results 7, got %d", asker.gotQuery.ResultCount)
	}
}

func TestChatRejectsShortQuestion(t *testing.T) {
	asker := &askerFake{}
	handler := newTestRouter(config.Config{}, routerDeps{asker: asker})

	res := postJSON(t, handler, "/api/chat", map[string]any{"question": " ab "})

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
	var body errorBody
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Kind != "invalid_request" {
		t.Fatalf("expected invalid_request kind, got %q", body.Error.Kind)
	}
	if asker.calls != 0 {
		t.Fatalf("expected pipeline untouched for short question")
	}
}

func TestChatRejectsInvalidJSON(t *testing.T) {
	handler := newTestRouter(config.Config{}, routerDeps{})

	req := httptest.NewRequest(http.MethodPost, "/api/chat", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestChatMethodNotAllowed(t *testing.T) {
	handler := newTestRouter(config.Config{}, routerDeps{})

	req := httptest.NewRequest(http.MethodGet, "/api/chat", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", res.Code)
	}
}

func TestSearchReturnsMatchesAndCapsK(t *testing.T) {
	searcher := &searcherFake{
		matches: []domain.RetrievedMatch{
			{Document: domain.Document{ID: "doc_1", Title: "FESPACO"}, Similarity: 0.91, Rank: 1},
			{Document: domain.Document{ID: "doc_2", Title: "SIAO"}, Similarity: 0.72, Rank: 2},
		},
	}
	handler := newTestRouter(config.Config{RetrievalMaxK: 20}, routerDeps{searcher: searcher})

	res := postJSON(t, handler, "/api/search", map[string]any{
		"question":  "festival de cinéma",
		"n_results": 50,
	})

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var resp searchResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Count != 2 || len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got count=%d len=%d", resp.Count, len(resp.Results))
	}
	if resp.Results[0].Document.ID != "doc_1" {
		t.Fatalf("expected ranked order preserved, got %+v", resp.Results)
	}
	if searcher.gotK != 20 {
		t.Fatalf("expected k capped to 20, got %d", searcher.gotK)
	}
}

func TestHealthReportsDocumentCount(t *testing.T) {
	handler := newTestRouter(config.Config{}, routerDeps{inspector: &inspectorFake{count: 42}})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "ok" {
		t.Fatalf("expected status ok, got %q", resp.Status)
	}
	if resp.DocumentsCount != 42 {
		t.Fatalf("expected 42 documents, got %d", resp.DocumentsCount)
	}
	if resp.Timestamp == "" {
		t.Fatalf("expected timestamp")
	}
}

func TestHealthReports503WhenIndexUnavailable(t *testing.T) {
	inspector := &inspectorFake{
		countErr: domain.WrapError(domain.ErrRetrievalUnavailable, "count documents", context.DeadlineExceeded),
	}
	handler := newTestRouter(config.Config{}, routerDeps{inspector: inspector})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	var resp healthResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Status != "unavailable" {
		t.Fatalf("expected status unavailable, got %q", resp.Status)
	}
}

func TestStatsEndpoint(t *testing.T) {
	inspector := &inspectorFake{
		stats: &domain.CorpusStats{
			TotalDocuments: 57,
			EmbeddingModel: "sentence-transformers/all-MiniLM-L6-v2",
			Categories:     map[string]int{"culture": 30, "patrimoine-culturel": 27},
			Sources:        []string{"histoire.pdf", "unesco.org"},
		},
	}
	handler := newTestRouter(config.Config{}, routerDeps{inspector: inspector})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var resp domain.CorpusStats
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.TotalDocuments != 57 {
		t.Fatalf("expected 57 documents, got %d", resp.TotalDocuments)
	}
	if resp.Categories["culture"] != 30 {
		t.Fatalf("unexpected categories: %+v", resp.Categories)
	}
	if len(resp.Sources) != 2 {
		t.Fatalf("unexpected sources: %+v", resp.Sources)
	}
}

func TestRebuildAcceptedWithValidToken(t *testing.T) {
	scheduler := &schedulerFake{job: &domain.RebuildJob{ID: "job-7"}}
	handler := newTestRouter(config.Config{APIAuthToken: "admin-token"}, routerDeps{scheduler: scheduler})

	req := httptest.NewRequest(http.MethodPost, "/api/rebuild", nil)
	req.Header.Set("Authorization", "Bearer admin-token")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", res.Code, res.Body.String())
	}
	var resp rebuildResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.JobID != "job-7" {
		t.Fatalf("expected job id job-7, got %q", resp.JobID)
	}
	if resp.Status != "accepted" {
		t.Fatalf("expected status accepted, got %q", resp.Status)
	}
	if scheduler.calls != 1 {
		t.Fatalf("expected one rebuild request, got %d", scheduler.calls)
	}
}

func TestRebuildRejectsInvalidToken(t *testing.T) {
	scheduler := &schedulerFake{}
	handler := newTestRouter(config.Config{APIAuthToken: "admin-token"}, routerDeps{scheduler: scheduler})

	req := httptest.NewRequest(http.MethodPost, "/api/rebuild", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
	if scheduler.calls != 0 {
		t.Fatalf("expected no rebuild request on auth failure")
	}
}

func TestRebuildOpenWhenNoTokenConfigured(t *testing.T) {
	handler := newTestRouter(config.Config{}, routerDeps{})

	req := httptest.NewRequest(http.MethodPost, "/api/rebuild", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202 without configured token, got %d", res.Code)
	}
}

func TestUnknownPathReturns404(t *testing.T) {
	handler := newTestRouter(config.Config{}, routerDeps{})

	req := httptest.NewRequest(http.MethodGet, "/api/unknown", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", res.Code)
	}
}

func TestIndexServiceCard(t *testing.T) {
	handler := newTestRouter(config.Config{}, routerDeps{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	if res.Header().Get(requestIDHeader) == "" {
		t.Fatalf("expected generated request id header")
	}
	var resp map[string]any
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp["service"] != "burkina-culture-assistant" {
		t.Fatalf("unexpected service card: %+v", resp)
	}
}

func TestRequestIDHeaderIsEchoed(t *testing.T) {
	handler := newTestRouter(config.Config{}, routerDeps{})

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	req.Header.Set(requestIDHeader, "req-abc123")
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if got := res.Header().Get(requestIDHeader); got != "req-abc123" {
		t.Fatalf("expected caller request id echoed, got %q", got)
	}
}

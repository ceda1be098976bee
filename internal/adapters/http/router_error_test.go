package httpadapter

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/wendkuni/burkina-culture-assistant/internal/config"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
)

func TestChatMapsInvalidRequestTo400(t *testing.T) {
	asker := &askerFake{
		err: domain.WrapError(domain.ErrInvalidRequest, "ask", errors.New("question is required")),
	}
	handler := newTestRouter(config.Config{}, routerDeps{asker: asker})

	res := postJSON(t, handler, "/api/chat", map[string]any{"question": "???"})

	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestChatMapsRetrievalUnavailableTo503(t *testing.T) {
	asker := &askerFake{
		err: domain.WrapError(domain.ErrRetrievalUnavailable, "embed question", errors.New("model not loaded")),
	}
	handler := newTestRouter(config.Config{}, routerDeps{asker: asker})

	res := postJSON(t, handler, "/api/chat", map[string]any{"question": "Parle-moi du FESPACO"})

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	var body errorBody
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Kind != "retrieval_unavailable" {
		t.Fatalf("expected retrieval_unavailable kind, got %q", body.Error.Kind)
	}
	if body.Error.Message == "" {
		t.Fatalf("expected human-readable message")
	}
}

func TestChatMapsUnknownErrorTo500(t *testing.T) {
	asker := &askerFake{err: errors.New("boom")}
	handler := newTestRouter(config.Config{}, routerDeps{asker: asker})

	res := postJSON(t, handler, "/api/chat", map[string]any{"question": "Parle-moi du FESPACO"})

	if res.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", res.Code)
	}
	var body errorBody
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Kind != "internal" {
		t.Fatalf("expected internal kind, got %q", body.Error.Kind)
	}
}

func TestSearchMapsRetrievalUnavailableTo503(t *testing.T) {
	searcher := &searcherFake{
		err: domain.WrapError(domain.ErrRetrievalUnavailable, "search index", errors.New("collection missing")),
	}
	handler := newTestRouter(config.Config{}, routerDeps{searcher: searcher})

	res := postJSON(t, handler, "/api/search", map[string]any{"question": "masques de Pouni"})

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestRebuildMapsTemporaryTo503(t *testing.T) {
	scheduler := &schedulerFake{
		err: domain.WrapError(domain.ErrTemporary, "request rebuild", errors.New("nats unreachable")),
	}
	handler := newTestRouter(config.Config{}, routerDeps{scheduler: scheduler})

	req := httptest.NewRequest(http.MethodPost, "/api/rebuild", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	var body errorBody
	if err := json.NewDecoder(res.Body).Decode(&body); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if body.Error.Kind != "temporary" {
		t.Fatalf("expected temporary kind, got %q", body.Error.Kind)
	}
}

func TestStatsMapsTemporaryTo503(t *testing.T) {
	inspector := &inspectorFake{
		statsErr: domain.WrapError(domain.ErrTemporary, "load corpus", errors.New("corpus file missing")),
	}
	handler := newTestRouter(config.Config{}, routerDeps{inspector: inspector})

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

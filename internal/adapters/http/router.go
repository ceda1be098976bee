package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/wendkuni/burkina-culture-assistant/internal/config"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/ports"
	"github.com/wendkuni/burkina-culture-assistant/internal/observability/metrics"
)

const serviceName = "api"

// minQuestionRunes rejects one- and two-character questions before any
// retrieval work runs.
const minQuestionRunes = 3

// backpressureWait bounds how long a request may queue for an in-flight
// slot before being shed.
const backpressureWait = time.Second

type Router struct {
	cfg       config.Config
	asker     ports.Asker
	searcher  ports.Searcher
	inspector ports.CorpusInspector
	scheduler ports.RebuildScheduler
	metrics   *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	asker ports.Asker,
	searcher ports.Searcher,
	inspector ports.CorpusInspector,
	scheduler ports.RebuildScheduler,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:       cfg,
		asker:     asker,
		searcher:  searcher,
		inspector: inspector,
		scheduler: scheduler,
		metrics:   m,
	}
}

// Handler assembles the route table and the middleware chain. Traffic
// control sits innermost so shed requests still reach the access log and
// the request metrics.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", rt.index)
	mux.HandleFunc("/api/chat", rt.chat)
	mux.HandleFunc("/api/search", rt.search)
	mux.HandleFunc("/api/health", rt.health)
	mux.HandleFunc("/api/stats", rt.stats)
	mux.HandleFunc("/api/rebuild", rt.rebuild)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxInFlight, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		writeError(w, http.StatusNotFound, "not_found", "no such endpoint")
		return
	}
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"service":     "burkina-culture-assistant",
		"description": "Assistant culturel sur le Burkina Faso",
		"endpoints": map[string]string{
			"chat":    "POST /api/chat",
			"search":  "POST /api/search",
			"health":  "GET /api/health",
			"stats":   "GET /api/stats",
			"rebuild": "POST /api/rebuild",
			"metrics": "GET /metrics",
		},
	})
}

type chatRequest struct {
	Question    string        `json:"question"`
	UseLLM      *bool         `json:"use_llm"`
	ResultCount int           `json:"n_results"`
	History     []domain.Turn `json:"conversation_history"`
}

type chatMetadata struct {
	BackendUsed        string `json:"backend_used"`
	RetrievalTimeMs    int64  `json:"retrieval_time_ms"`
	GenerationTimeMs   int64  `json:"generation_time_ms"`
	TotalTimeMs        int64  `json:"total_time_ms"`
	Grounded           bool   `json:"grounded"`
	DocumentsRetrieved int    `json:"documents_retrieved"`
}

type chatResponse struct {
	Question  string          `json:"question"`
	Answer    string          `json:"answer"`
	Sources   []domain.Source `json:"sources"`
	Metadata  chatMetadata    `json:"metadata"`
	Timestamp string          `json:"timestamp"`
}

func (rt *Router) chat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed")
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if utf8.RuneCountInString(question) < minQuestionRunes {
		writeError(w, http.StatusBadRequest, "invalid_request", "question must be at least 3 characters")
		return
	}

	// Absent use_llm means the caller wants generation, matching the
	// request schema default.
	useLLM := true
	if req.UseLLM != nil {
		useLLM = *req.UseLLM
	}

	answer, err := rt.asker.Ask(r.Context(), domain.Query{
		Question:     question,
		History:      req.History,
		ResultCount:  req.ResultCount,
		UseGenerator: useLLM,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(serviceName, "chat", answer.Metadata.DocumentsRetrieved, answer.Metadata.TotalTime)
		rt.metrics.RecordGenerationBackend(serviceName, string(answer.Metadata.Backend))
	}

	writeJSON(w, http.StatusOK, chatResponse{
		Question: question,
		Answer:   answer.Text,
		Sources:  answer.Sources,
		Metadata: chatMetadata{
			BackendUsed:        string(answer.Metadata.Backend),
			RetrievalTimeMs:    answer.Metadata.RetrievalTime.Milliseconds(),
			GenerationTimeMs:   answer.Metadata.GenerationTime.Milliseconds(),
			TotalTimeMs:        answer.Metadata.TotalTime.Milliseconds(),
			Grounded:           answer.Metadata.Grounded,
			DocumentsRetrieved: answer.Metadata.DocumentsRetrieved,
		},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type searchRequest struct {
	Question    string `json:"question"`
	ResultCount int    `json:"n_results"`
}

type searchResponse struct {
	Question  string                  `json:"question"`
	Results   []domain.RetrievedMatch `json:"results"`
	Count     int                     `json:"count"`
	Timestamp string                  `json:"timestamp"`
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed")
		return
	}

	var req searchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid json body")
		return
	}

	question := strings.TrimSpace(req.Question)
	if utf8.RuneCountInString(question) < minQuestionRunes {
		writeError(w, http.StatusBadRequest, "invalid_request", "question must be at least 3 characters")
		return
	}

	k := req.ResultCount
	if maxK := rt.cfg.RetrievalMaxK; maxK > 0 && k > maxK {
		k = maxK
	}

	matches, err := rt.searcher.Search(r.Context(), question, k)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordRAGObservation(serviceName, "search", len(matches), 0)
	}

	writeJSON(w, http.StatusOK, searchResponse{
		Question:  question,
		Results:   matches,
		Count:     len(matches),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

type healthResponse struct {
	Status         string `json:"status"`
	DocumentsCount int    `json:"documents_count"`
	Timestamp      string `json:"timestamp"`
}

func (rt *Router) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed")
		return
	}

	now := time.Now().UTC().Format(time.RFC3339)
	count, err := rt.inspector.DocumentCount(r.Context())
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, healthResponse{
			Status:    "unavailable",
			Timestamp: now,
		})
		return
	}

	writeJSON(w, http.StatusOK, healthResponse{
		Status:         "ok",
		DocumentsCount: count,
		Timestamp:      now,
	})
}

func (rt *Router) stats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed")
		return
	}

	stats, err := rt.inspector.Stats(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

type rebuildResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

func (rt *Router) rebuild(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "invalid_request", "method not allowed")
		return
	}
	if rt.cfg.APIAuthToken != "" && !isAuthorizedBearerHeader(r.Header.Get("Authorization"), rt.cfg.APIAuthToken) {
		writeError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid bearer token")
		return
	}

	job, err := rt.scheduler.RequestRebuild(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusAccepted, rebuildResponse{
		JobID:  job.ID,
		Status: "accepted",
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package httpadapter

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/ekomarov/fundchat/internal/core/domain"
	"github.com/ekomarov/fundchat/internal/core/ports"
	"github.com/ekomarov/fundchat/internal/observability/metrics"
)

const serviceName = "fundchat-api"

// Router exposes the query API over HTTP. The answering pipeline stays
// behind the QueryAnswerer port; reindexing is only triggered here, never
// executed in-process.
type Router struct {
	answerer ports.QueryAnswerer
	queue    ports.ReindexQueue
	queryLog ports.QueryLogStore
	metrics  *metrics.APIMetrics
	logger   *slog.Logger

	rateLimitRPS     float64
	rateLimitBurst   int
	maxInFlight      int
	backpressureWait time.Duration
}

type RouterOption func(*Router)

// WithReindexQueue enables POST /api/reindex publishing. Without it the
// endpoint answers 503.
func WithReindexQueue(queue ports.ReindexQueue) RouterOption {
	return func(rt *Router) { rt.queue = queue }
}

// WithQueryLog enables GET /api/queries over the persisted query log.
func WithQueryLog(store ports.QueryLogStore) RouterOption {
	return func(rt *Router) { rt.queryLog = store }
}

func WithRateLimit(rps float64, burst int) RouterOption {
	return func(rt *Router) {
		rt.rateLimitRPS = rps
		rt.rateLimitBurst = burst
	}
}

// WithBackpressure caps concurrent in-flight requests; callers over the
// cap wait up to the given duration before a 503.
func WithBackpressure(maxInFlight int, wait time.Duration) RouterOption {
	return func(rt *Router) {
		rt.maxInFlight = maxInFlight
		rt.backpressureWait = wait
	}
}

func NewRouter(
	answerer ports.QueryAnswerer,
	apiMetrics *metrics.APIMetrics,
	logger *slog.Logger,
	options ...RouterOption,
) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	rt := &Router{
		answerer: answerer,
		metrics:  apiMetrics,
		logger:   logger,
	}
	for _, option := range options {
		option(rt)
	}
	return rt
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/api/query", rt.answerQuery)
	mux.HandleFunc("/api/reindex", rt.requestReindex)
	mux.HandleFunc("/api/queries", rt.listQueries)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.maxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.maxInFlight, rt.backpressureWait)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) answerQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string               `json:"question"`
		History  []domain.ChatMessage `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	start := time.Now()
	answer, err := rt.answerer.Answer(r.Context(), req.Question, req.History)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		rt.logger.Error("query_failed",
			"request_id", requestIDFromContext(r.Context()),
			"status", status,
			"error", err,
		)
		writeJSON(w, status, map[string]string{"error": publicErrorMessage(err, status)})
		return
	}

	if rt.metrics != nil {
		rt.metrics.RecordAnswer(serviceName, string(answer.Route), time.Since(start))
		if answer.Route == domain.RouteSpecific {
			rt.metrics.RecordRetrievedChunks(serviceName, answer.ChunkHits)
		}
		if answer.Template == domain.TemplateInsufficientEvidence {
			rt.metrics.RecordNoEvidence(serviceName)
		}
	}

	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) requestReindex(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.queue == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "reindex queue is not configured"})
		return
	}

	var req struct {
		Reason string `json:"reason"`
	}
	// Body is optional; a bare POST means a manual trigger.
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.Reason == "" {
		req.Reason = "manual"
	}

	if err := rt.queue.PublishReindexRequested(r.Context(), req.Reason); err != nil {
		status := mapErrorToHTTPStatus(err)
		rt.logger.Error("reindex_publish_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		writeJSON(w, status, map[string]string{"error": publicErrorMessage(err, status)})
		return
	}

	writeJSON(w, http.StatusAccepted, map[string]string{"status": "reindex requested"})
}

func (rt *Router) listQueries(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}
	if rt.queryLog == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "query log is not configured"})
		return
	}

	entries, err := rt.queryLog.ListRecent(r.Context(), 50)
	if err != nil {
		rt.logger.Error("query_log_list_failed",
			"request_id", requestIDFromContext(r.Context()),
			"error", err,
		)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "failed to list queries"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"queries": entries})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

package httpadapter

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/chaiyut/docintake/internal/core/ports"
	"github.com/chaiyut/docintake/internal/observability/metrics"
)

const serviceName = "docintake-api"

type Router struct {
	ingestor  ports.BatchIngestor
	query     ports.FileQueryService
	content   ports.FileContentService
	assistant ports.Assistant
	metrics   *metrics.HTTPServerMetrics
	options   Options
}

// Options carries the traffic-control knobs for the outer middleware chain.
type Options struct {
	CORSOrigin      string
	RateLimitRPS    float64
	RateLimitBurst  int
	MaxInFlight     int
	MaxInFlightWait time.Duration
}

func NewRouter(
	ingestor ports.BatchIngestor,
	query ports.FileQueryService,
	content ports.FileContentService,
	assistant ports.Assistant,
	httpMetrics *metrics.HTTPServerMetrics,
	options Options,
) *Router {
	if options.MaxInFlightWait <= 0 {
		options.MaxInFlightWait = 100 * time.Millisecond
	}
	return &Router{
		ingestor:  ingestor,
		query:     query,
		content:   content,
		assistant: assistant,
		metrics:   httpMetrics,
		options:   options,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", rt.health)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}
	mux.HandleFunc("/api/files", rt.listFiles)
	mux.HandleFunc("/api/files/upload", rt.uploadFiles)
	mux.HandleFunc("/api/files/statistics", rt.statistics)
	mux.HandleFunc("/api/files/", rt.dispatchFileByID)
	mux.HandleFunc("/api/ai/chat", rt.assistantChat)
	mux.HandleFunc("/api/ai/suspicious-files", rt.suspiciousFiles)

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.options.MaxInFlight, rt.options.MaxInFlightWait)
	handler = rateLimitMiddleware(handler, rt.options.RateLimitRPS, rt.options.RateLimitBurst)
	handler = corsMiddleware(handler, rt.options.CORSOrigin)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	return requestIDMiddleware(handler)
}

func (rt *Router) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), map[string]any{
		"success": false,
		"message": errorMessage(err),
	})
}

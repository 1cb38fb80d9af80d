package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type HTTPServerMetrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	filesAcceptedTotal     *prometheus.CounterVec
	filesRejectedTotal     *prometheus.CounterVec
	bytesStoredTotal       *prometheus.CounterVec
	assistantRepliesTotal  *prometheus.CounterVec
	batchAcceptedFileCount *prometheus.HistogramVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintake",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "docintake",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	filesAcceptedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "intake",
			Name:      "files_accepted_total",
			Help:      "Total uploaded files accepted into storage.",
		},
		[]string{"service"},
	)
	filesRejectedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "intake",
			Name:      "files_rejected_total",
			Help:      "Total uploaded files rejected during intake.",
		},
		[]string{"service"},
	)
	bytesStoredTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "intake",
			Name:      "bytes_stored_total",
			Help:      "Total bytes of accepted upload payloads.",
		},
		[]string{"service"},
	)
	assistantRepliesTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "docintake",
			Subsystem: "assistant",
			Name:      "replies_total",
			Help:      "Total assistant replies by provider.",
		},
		[]string{"service", "provider"},
	)
	batchAcceptedFileCount := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "docintake",
			Subsystem: "intake",
			Name:      "batch_accepted_files",
			Help:      "Distribution of accepted files per upload batch.",
			Buckets:   []float64{0, 1, 2, 5, 10, 25, 50, 100, 200},
		},
		[]string{"service"},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		filesAcceptedTotal,
		filesRejectedTotal,
		bytesStoredTotal,
		assistantRepliesTotal,
		batchAcceptedFileCount,
	)

	return &HTTPServerMetrics{
		registry:               registry,
		requestTotal:           requestTotal,
		requestDuration:        requestDuration,
		requestInFlight:        requestInFlight,
		filesAcceptedTotal:     filesAcceptedTotal,
		filesRejectedTotal:     filesRejectedTotal,
		bytesStoredTotal:       bytesStoredTotal,
		assistantRepliesTotal:  assistantRepliesTotal,
		batchAcceptedFileCount: batchAcceptedFileCount,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath collapses id-bearing paths so label cardinality stays flat.
func normalizePath(path string) string {
	if !strings.HasPrefix(path, "/api/files/") {
		return path
	}
	rest := strings.TrimPrefix(path, "/api/files/")
	if rest == "" || rest == "upload" || rest == "statistics" {
		return path
	}
	if strings.HasSuffix(rest, "/view") {
		return "/api/files/{id}/view"
	}
	if strings.HasSuffix(rest, "/download") {
		return "/api/files/{id}/download"
	}
	return "/api/files/{id}"
}

func (m *HTTPServerMetrics) RecordBatchResult(service string, accepted, rejected int, acceptedBytes int64) {
	if accepted > 0 {
		m.filesAcceptedTotal.WithLabelValues(service).Add(float64(accepted))
	}
	if rejected > 0 {
		m.filesRejectedTotal.WithLabelValues(service).Add(float64(rejected))
	}
	if acceptedBytes > 0 {
		m.bytesStoredTotal.WithLabelValues(service).Add(float64(acceptedBytes))
	}
	m.batchAcceptedFileCount.WithLabelValues(service).Observe(float64(accepted))
}

func (m *HTTPServerMetrics) RecordAssistantReply(service, provider string) {
	if provider == "" {
		provider = "unknown"
	}
	m.assistantRepliesTotal.WithLabelValues(service, provider).Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}

func (w *statusRecorder) Push(target string, opts *http.PushOptions) error {
	pusher, ok := w.ResponseWriter.(http.Pusher)
	if !ok {
		return http.ErrNotSupported
	}
	return pusher.Push(target, opts)
}

package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/chaiyut/docintake/internal/bootstrap"
	"github.com/chaiyut/docintake/internal/config"
	"github.com/chaiyut/docintake/internal/observability/logging"
	"github.com/chaiyut/docintake/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(logging.NewJSONLogger("docintake-worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	workerMetrics := metrics.NewWorkerMetrics("docintake-worker")
	go serveMetrics(cfg.WorkerMetricsPort, workerMetrics)

	timeout := time.Duration(cfg.WorkerTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 5 * time.Minute
	}

	slog.Info("worker_subscribed", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeFileIngested(ctx, func(handlerCtx context.Context, fileID int64) error {
		enrichCtx, cancel := context.WithTimeout(handlerCtx, timeout)
		defer cancel()

		workerMetrics.StartFile()
		start := time.Now()
		enrichErr := app.EnrichUC.EnrichByID(enrichCtx, fileID)
		workerMetrics.FinishFile("docintake-worker", time.Since(start), enrichErr)
		return enrichErr
	})
	if err != nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func serveMetrics(port string, workerMetrics *metrics.WorkerMetrics) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	if err := http.ListenAndServe(":"+port, mux); err != nil && err != http.ErrServerClosed {
		slog.Error("worker_metrics_server", "error", err)
	}
}

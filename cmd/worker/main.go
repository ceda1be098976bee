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

	"github.com/wendkuni/burkina-culture-assistant/internal/bootstrap"
	"github.com/wendkuni/burkina-culture-assistant/internal/config"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/observability/logging"
	"github.com/wendkuni/burkina-culture-assistant/internal/observability/metrics"
)

// rebuildTimeout bounds one full corpus rebuild, embedding included.
const rebuildTimeout = 10 * time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLogger("worker", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	wm := metrics.NewWorkerMetrics("worker")
	metricsServer := startMetricsServer(cfg.WorkerMetricsAddr, wm)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("metrics server shutdown error", "error", err)
		}
	}()

	slog.Info("worker subscribed", "subject", "corpus.rebuild.requested")
	err = app.Queue.SubscribeRebuildRequested(ctx, func(handlerCtx context.Context, job domain.RebuildJob) error {
		wm.ObserveQueueLag("worker", time.Since(job.RequestedAt))
		wm.StartRebuild()
		started := time.Now()

		rebuildCtx, cancel := context.WithTimeout(handlerCtx, rebuildTimeout)
		defer cancel()
		result, err := app.RebuildUC.Rebuild(rebuildCtx, job)

		wm.FinishRebuild("worker", time.Since(started), err)
		if err != nil {
			slog.Error("corpus rebuild failed",
				"job_id", job.ID,
				"duration_ms", time.Since(started).Milliseconds(),
				"error", err,
			)
			return err
		}

		wm.SetCorpusDocuments(result.Documents)
		slog.Info("corpus rebuilt",
			"job_id", result.JobID,
			"documents", result.Documents,
			"duration_ms", time.Since(started).Milliseconds(),
		)
		return app.Queue.PublishRebuilt(handlerCtx, *result)
	})
	if err != nil && ctx.Err() == nil {
		log.Fatalf("worker subscribe error: %v", err)
	}
}

func startMetricsServer(addr string, wm *metrics.WorkerMetrics) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", wm.Handler())
	server := &http.Server{
		Addr:         addr,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	go func() {
		slog.Info("worker metrics listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("worker metrics server error", "error", err)
		}
	}()
	return server
}

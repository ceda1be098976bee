package main

import (
	"context"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/netutil"

	httpadapter "github.com/wendkuni/burkina-culture-assistant/internal/adapters/http"
	"github.com/wendkuni/burkina-culture-assistant/internal/bootstrap"
	"github.com/wendkuni/burkina-culture-assistant/internal/config"
	"github.com/wendkuni/burkina-culture-assistant/internal/core/domain"
	"github.com/wendkuni/burkina-culture-assistant/internal/observability/logging"
	"github.com/wendkuni/burkina-culture-assistant/internal/observability/metrics"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	slog.SetDefault(logging.NewJSONLogger("api", cfg.LogLevel))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg)
	if err != nil {
		log.Fatalf("bootstrap error: %v", err)
	}
	defer app.Close()

	m := metrics.NewHTTPServerMetrics("api")
	router := httpadapter.NewRouter(cfg, app.AskUC, app.SearchUC, app.StatsUC, app.TriggerUC, m).Handler()

	server := &http.Server{
		Handler:     router,
		ReadTimeout: 30 * time.Second,
		// The write timeout must outlast a full two-tier generation chain.
		WriteTimeout: 2*cfg.GenerationTimeout + 30*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	listener, err := net.Listen("tcp", cfg.HTTPAddr)
	if err != nil {
		log.Fatalf("listen on %s: %v", cfg.HTTPAddr, err)
	}
	listener = netutil.LimitListener(listener, cfg.APIMaxConns)

	// Each serving replica swaps its index snapshot when a rebuild lands.
	go func() {
		err := app.Queue.SubscribeRebuilt(ctx, func(handlerCtx context.Context, result domain.RebuildResult) error {
			if err := app.IndexAdmin.Reload(handlerCtx); err != nil {
				return err
			}
			slog.Info("index snapshot swapped",
				"job_id", result.JobID,
				"documents", result.Documents,
			)
			return nil
		})
		if err != nil && ctx.Err() == nil {
			slog.Error("rebuilt subscription failed", "error", err)
		}
	}()

	go func() {
		slog.Info("api listening", "addr", cfg.HTTPAddr)
		if err := server.Serve(listener); err != nil && err != http.ErrServerClosed {
			log.Fatalf("api server error: %v", err)
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("api shutdown error", "error", err)
	}
}

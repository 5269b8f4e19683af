package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ekomarov/fundchat/internal/bootstrap"
	"github.com/ekomarov/fundchat/internal/config"
	"github.com/ekomarov/fundchat/internal/core/ports"
	"github.com/ekomarov/fundchat/internal/observability/logging"
	"github.com/ekomarov/fundchat/internal/observability/metrics"
)

// indexStatser is the optional verification hook exposed by the vector
// index adapter; the core port stays narrow.
type indexStatser interface {
	Stats(ctx context.Context) (map[string]int, error)
}

func main() {
	watch := flag.Bool("watch", false, "keep running and reindex on queue messages")
	flag.Parse()

	cfg := config.Load()
	logger := logging.NewJSONLogger("fundchat-indexer", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	indexerMetrics := metrics.NewIndexerMetrics("fundchat-indexer")
	metricsServer := serveMetrics(cfg.IndexerMetricsPort, indexerMetrics, logger)
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := metricsServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("indexer_metrics_shutdown_failed", "error", err)
		}
	}()

	runReindex := func(runCtx context.Context, reason string) error {
		logger.Info("reindex_started", "reason", reason)
		indexerMetrics.StartReindex()
		start := time.Now()
		err := app.IndexUC.Reindex(runCtx)
		indexerMetrics.FinishReindex("fundchat-indexer", time.Since(start), err)
		if err != nil {
			logger.Error("reindex_failed", "reason", reason, "error", err)
			return err
		}
		logger.Info("reindex_finished", "reason", reason, "duration_ms", time.Since(start).Milliseconds())
		reportIndexStats(runCtx, app.Index, indexerMetrics, logger)
		return nil
	}

	if err := runReindex(ctx, "startup"); err != nil {
		os.Exit(1)
	}

	if !*watch {
		return
	}
	if app.Queue == nil {
		logger.Error("watch_requires_queue", "hint", "set NATS_URL to enable watch mode")
		os.Exit(1)
	}

	logger.Info("indexer_watching", "subject", cfg.NATSSubject)
	err = app.Queue.SubscribeReindexRequested(ctx, func(handlerCtx context.Context, reason string) error {
		runCtx, cancel := context.WithTimeout(handlerCtx, 10*time.Minute)
		defer cancel()
		return runReindex(runCtx, reason)
	})
	if err != nil {
		logger.Error("indexer_subscribe_failed", "error", err)
		os.Exit(1)
	}
}

func serveMetrics(port string, indexerMetrics *metrics.IndexerMetrics, logger *slog.Logger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", indexerMetrics.Handler())
	server := &http.Server{Addr: ":" + port, Handler: mux}

	go func() {
		logger.Info("indexer_metrics_listening", "port", port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("indexer_metrics_failed", "error", err)
		}
	}()
	return server
}

func reportIndexStats(ctx context.Context, index ports.VectorIndex, indexerMetrics *metrics.IndexerMetrics, logger *slog.Logger) {
	statser, ok := index.(indexStatser)
	if !ok {
		return
	}
	stats, err := statser.Stats(ctx)
	if err != nil {
		logger.Warn("index_stats_failed", "error", err)
		return
	}
	for namespace, count := range stats {
		logger.Info("index_namespace_stats", "namespace", namespace, "vectors", count)
		indexerMetrics.AddChunksIndexed("fundchat-indexer", namespace, count)
	}
}

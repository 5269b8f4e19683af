package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/ekomarov/fundchat/internal/adapters/http"
	"github.com/ekomarov/fundchat/internal/bootstrap"
	"github.com/ekomarov/fundchat/internal/config"
	"github.com/ekomarov/fundchat/internal/observability/logging"
	"github.com/ekomarov/fundchat/internal/observability/metrics"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("fundchat-api", cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_failed", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	apiMetrics := metrics.NewAPIMetrics("fundchat-api")
	options := []httpadapter.RouterOption{
		httpadapter.WithRateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
		httpadapter.WithBackpressure(cfg.MaxInFlight, cfg.BackpressureWait()),
	}
	if app.QueryLog != nil {
		options = append(options, httpadapter.WithQueryLog(app.QueryLog))
	}
	if app.Queue != nil {
		options = append(options, httpadapter.WithReindexQueue(app.Queue))
	}

	router := httpadapter.NewRouter(app.AnswerUC, apiMetrics, logger, options...)
	server := &http.Server{
		Addr:         ":" + cfg.APIPort,
		Handler:      router.Handler(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 90 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_failed", "error", err)
	}
}

package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/social-support-ai/internal/adapters/http"
	"github.com/kirillkom/social-support-ai/internal/bootstrap"
	"github.com/kirillkom/social-support-ai/internal/config"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/social-support-ai/internal/observability/logging"
	"github.com/kirillkom/social-support-ai/internal/observability/metrics"
)

const serviceName = "eligibility-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	docs, err := localfs.NewRootedReader(cfg.EvaluationDocsDir)
	if err != nil {
		logger.Error("documents_root_error", "error", err)
		os.Exit(1)
	}
	logger.Info("documents_root", "path", docs.Root())

	httpMetrics := metrics.NewHTTPServerMetrics(serviceName)
	router, err := httpadapter.NewRouter(cfg, httpadapter.Services{
		Evaluator:    app.Evaluator(docs, httpMetrics.Evaluation()),
		Intake:       app.IntakeUC,
		Applications: app.IntakeUC,
		Reports:      app.Reports,
		Advisor:      app.Advisor,
		Documents:    docs,
	}, httpMetrics)
	if err != nil {
		logger.Error("router_error", "error", err)
		os.Exit(1)
	}

	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      cfg.EvaluationTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api_server_error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api_shutdown_error", "error", err)
	}
}

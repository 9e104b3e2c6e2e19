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

	"github.com/kirillkom/social-support-ai/internal/bootstrap"
	"github.com/kirillkom/social-support-ai/internal/config"
	"github.com/kirillkom/social-support-ai/internal/core/ports"
	"github.com/kirillkom/social-support-ai/internal/observability/logging"
	"github.com/kirillkom/social-support-ai/internal/observability/metrics"
)

const serviceName = "eligibility-worker"

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

	workerMetrics := metrics.NewWorkerMetrics(serviceName)
	processUC := app.ProcessUseCase(workerMetrics.Evaluation()).WithQueueLag(func(lag time.Duration) {
		workerMetrics.ObserveQueueLag(serviceName, lag)
	})

	mux := http.NewServeMux()
	mux.Handle("/metrics", workerMetrics.Handler())
	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("worker_metrics_server_error", "error", err)
		}
	}()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = metricsServer.Shutdown(shutdownCtx)
	}()

	logger.Info("worker_subscribed", "subject", cfg.NATSSubject, "concurrency", cfg.WorkerConcurrency)
	err = app.Queue.SubscribeApplicationSubmitted(ctx, newHandler(processUC, workerMetrics, cfg.EvaluationTimeout, logger))
	if err != nil {
		logger.Error("worker_subscribe_error", "error", err)
	}
}

func newHandler(processor ports.ApplicationProcessor, workerMetrics *metrics.WorkerMetrics, timeout time.Duration, logger *slog.Logger) func(context.Context, string) error {
	return func(ctx context.Context, applicationID string) error {
		processCtx, cancel := context.WithTimeout(ctx, timeout)
		defer cancel()

		start := time.Now()
		workerMetrics.StartApplication()
		err := processor.ProcessByID(processCtx, applicationID)
		workerMetrics.FinishApplication(serviceName, time.Since(start), err)
		if err == nil {
			logger.Info("application_processed", "application_id", applicationID, "duration_ms", time.Since(start).Milliseconds())
		}
		return err
	}
}

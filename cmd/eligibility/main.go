package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirillkom/social-support-ai/internal/adapters/cli"
	"github.com/kirillkom/social-support-ai/internal/bootstrap"
	"github.com/kirillkom/social-support-ai/internal/config"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/social-support-ai/internal/observability/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := cli.NewRootCommand(newServices).ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// newServices logs to stderr so that stdout carries only command output.
func newServices(ctx context.Context, configFile string) (*cli.Services, error) {
	if configFile != "" {
		if err := os.Setenv("CONFIG_FILE", configFile); err != nil {
			return nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := logging.NewJSONLoggerTo(os.Stderr, "eligibility-cli", cfg.LogLevel)
	slog.SetDefault(logger)

	core, err := bootstrap.NewCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	evaluator := core.Evaluator(localfs.NewPathReader(), nil)
	return &cli.Services{
		Evaluator:            evaluator,
		EvaluatorNoReasoning: evaluator.WithoutReasoning(),
		Advisor:              core.Advisor,
		Close:                core.Close,
	}, nil
}

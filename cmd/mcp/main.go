package main

import (
	"context"
	"log/slog"
	"os"

	mcpadapter "github.com/kirillkom/social-support-ai/internal/adapters/mcp"
	"github.com/kirillkom/social-support-ai/internal/bootstrap"
	"github.com/kirillkom/social-support-ai/internal/config"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/social-support-ai/internal/observability/logging"
)

const serviceName = "eligibility-mcp"

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config_error", "error", err)
		os.Exit(1)
	}
	// stdout carries the MCP protocol.
	logger := logging.NewJSONLoggerTo(os.Stderr, serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	core, err := bootstrap.NewCore(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("bootstrap_error", "error", err)
		os.Exit(1)
	}
	defer core.Close()

	docs, err := localfs.NewRootedReader(cfg.EvaluationDocsDir)
	if err != nil {
		logger.Error("documents_root_error", "error", err)
		os.Exit(1)
	}

	server := mcpadapter.NewServer(core.Evaluator(docs, nil), core.Advisor, logger)
	if err := server.ServeStdio(); err != nil {
		logger.Error("mcp_server_error", "error", err)
	}
}

// Package bootstrap assembles the eligibility pipeline and its adapters from configuration.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirillkom/social-support-ai/internal/config"
	"github.com/kirillkom/social-support-ai/internal/core/eligibility"
	"github.com/kirillkom/social-support-ai/internal/core/features"
	"github.com/kirillkom/social-support-ai/internal/core/ports"
	"github.com/kirillkom/social-support-ai/internal/core/usecase"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/extractor/docx"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/extractor/plaintext"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/extractor/spreadsheet"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/ingestion"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/llm/gemini"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/model/forest"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/queue/nats"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/resilience"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/storage/localfs"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/trace"
	kafkatrace "github.com/kirillkom/social-support-ai/internal/infrastructure/trace/kafka"
)

// Core is the pipeline without persistence or messaging. The CLI and MCP server run on it alone.
type Core struct {
	Config  config.Config
	Logger  *slog.Logger
	Model   *forest.Model
	Advisor *usecase.AdviseUseCase
	Reports *localfs.ReportStore

	classifier *eligibility.Classifier
	extractor  *features.Extractor
	readers    ingestion.Readers
	reasoner   ports.ReasoningProvider
	review     ports.ManualReviewLog
	trace      ports.TraceSink
	closers    []func()
}

func NewCore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Core, error) {
	if logger == nil {
		logger = slog.Default()
	}

	model, err := forest.LoadFile(cfg.ModelPath)
	if err != nil {
		return nil, fmt.Errorf("load eligibility model: %w", err)
	}
	logger.Info("model_loaded", "path", cfg.ModelPath, "version", model.Version())

	reports, err := localfs.NewReportStore(cfg.ReportsDir)
	if err != nil {
		return nil, fmt.Errorf("init report store: %w", err)
	}
	review, err := localfs.NewManualReviewLog(cfg.ManualReviewLogPath)
	if err != nil {
		return nil, fmt.Errorf("init manual review log: %w", err)
	}

	executor := resilience.NewExecutor(resilienceConfig(cfg), logger)
	providers, err := newProviders(ctx, cfg, executor)
	if err != nil {
		return nil, err
	}

	core := &Core{
		Config:     cfg,
		Logger:     logger,
		Model:      model,
		Reports:    reports,
		classifier: eligibility.NewClassifier(model),
		extractor:  features.NewExtractor(features.WithLogger(logger)),
		readers: ingestion.Readers{
			Assets:    spreadsheet.NewReader(),
			Bank:      pdftext.NewReader(),
			Resume:    docx.NewReader(),
			PlainText: plaintext.NewReader(),
			OCR:       providers.ocr,
		},
		reasoner: providers.reasoner,
		review:   review,
		trace:    trace.Noop{},
	}
	core.Advisor = usecase.NewAdviseUseCase(core.classifier)

	if len(cfg.KafkaBrokers) > 0 {
		sink := kafkatrace.NewSink(cfg.KafkaBrokers, cfg.KafkaTopic, executor)
		core.trace = sink
		core.closers = append(core.closers, func() { _ = sink.Close() })
		logger.Info("trace_sink_enabled", "topic", cfg.KafkaTopic)
	}
	return core, nil
}

// Evaluator builds the pipeline over a document source. The API and CLI read local paths, the
// worker reads object storage.
func (c *Core) Evaluator(source ports.DocumentSource, observer ports.EvaluationObserver) *usecase.EvaluateUseCase {
	return usecase.NewEvaluateUseCase(
		ingestion.NewAdapter(source, c.readers, c.Logger),
		c.extractor,
		c.classifier,
		c.reasoner,
		c.Reports,
		c.review,
		c.trace,
		observer,
		usecase.EvaluateOptions{
			ReasoningTimeout: c.Config.ReasoningTimeout,
			Logger:           c.Logger,
		},
	)
}

func (c *Core) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}

// App adds application storage and the submission queue to Core.
type App struct {
	*Core

	Queue    *nats.Queue
	Repo     ports.ApplicationRepository
	Storage  *localfs.Storage
	IntakeUC *usecase.IntakeUseCase
}

func New(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	core, err := NewCore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	db, err := postgres.OpenDB(ctx, cfg.PostgresDSN)
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	core.closers = append(core.closers, func() { _ = db.Close() })

	repo := postgres.NewApplicationRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		core.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	storage, err := localfs.New(cfg.StoragePath)
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("init object storage: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: resilience.NewExecutor(resilienceConfig(cfg), core.Logger),
		Logger:             core.Logger,
		Concurrency:        cfg.WorkerConcurrency,
	})
	if err != nil {
		core.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}
	core.closers = append(core.closers, queue.Close)

	return &App{
		Core:     core,
		Queue:    queue,
		Repo:     repo,
		Storage:  storage,
		IntakeUC: usecase.NewIntakeUseCase(repo, storage, queue),
	}, nil
}

// ProcessUseCase evaluates queued applications from object storage.
func (a *App) ProcessUseCase(observer ports.EvaluationObserver) *usecase.ProcessUseCase {
	return usecase.NewProcessUseCase(a.Repo, a.Evaluator(a.Storage, observer))
}

type providers struct {
	reasoner ports.ReasoningProvider
	ocr      ports.TextRecognizer
}

func newProviders(ctx context.Context, cfg config.Config, executor *resilience.Executor) (providers, error) {
	var out providers

	var ollamaClient *ollama.Client
	if cfg.ReasoningProvider == config.ProviderOllama || cfg.OCRProvider == config.ProviderOllama {
		ollamaClient = ollama.New(cfg.OllamaURL, cfg.OllamaChatModel, cfg.OllamaVisionModel, ollama.Options{
			Timeout:  cfg.OllamaTimeout,
			Executor: executor,
		})
	}

	var geminiClient *gemini.Client
	if cfg.ReasoningProvider == config.ProviderGemini || cfg.OCRProvider == config.ProviderGemini {
		client, err := gemini.New(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, executor)
		if err != nil {
			return providers{}, fmt.Errorf("init gemini client: %w", err)
		}
		geminiClient = client
	}

	switch cfg.ReasoningProvider {
	case config.ProviderOllama:
		out.reasoner = ollama.NewReasoner(ollamaClient)
	case config.ProviderGemini:
		out.reasoner = gemini.NewReasoner(geminiClient)
	}
	switch cfg.OCRProvider {
	case config.ProviderOllama:
		out.ocr = ollama.NewRecognizer(ollamaClient)
	case config.ProviderGemini:
		out.ocr = gemini.NewRecognizer(geminiClient)
	}
	return out, nil
}

func resilienceConfig(cfg config.Config) resilience.Config {
	out := resilience.DefaultConfig()
	if cfg.RetryMaxAttempts > 0 {
		out.RetryMaxAttempts = cfg.RetryMaxAttempts
	}
	out.BreakerEnabled = cfg.BreakerEnabled
	return out
}

package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
	"github.com/kirillkom/social-support-ai/internal/core/eligibility"
	"github.com/kirillkom/social-support-ai/internal/core/ports"
)

const (
	StepIngestion       = "ingestion"
	StepFeatures        = "eligibility_features"
	StepDecision        = "decision"
	StepReasoning       = "reasoning"
	StepRecommendations = "recommendations"
)

const maxPromptPayload = 4000

// EvaluateOptions tunes the pipeline; zero values fall back to defaults.
type EvaluateOptions struct {
	ReasoningTimeout time.Duration
	Logger           *slog.Logger
	Clock            func() time.Time
}

// EvaluateUseCase runs ingest, extract, classify, explain, reason and recommend for one applicant.
type EvaluateUseCase struct {
	ingestor   ports.Ingestor
	extractor  ports.FeatureExtractor
	classifier *eligibility.Classifier
	reasoner   ports.ReasoningProvider
	reports    ports.ReportStore
	review     ports.ManualReviewLog
	trace      ports.TraceSink
	observer   ports.EvaluationObserver
	opts       EvaluateOptions
}

func NewEvaluateUseCase(
	ingestor ports.Ingestor,
	extractor ports.FeatureExtractor,
	classifier *eligibility.Classifier,
	reasoner ports.ReasoningProvider,
	reports ports.ReportStore,
	review ports.ManualReviewLog,
	trace ports.TraceSink,
	observer ports.EvaluationObserver,
	opts EvaluateOptions,
) *EvaluateUseCase {
	if opts.ReasoningTimeout <= 0 {
		opts.ReasoningTimeout = 120 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Clock == nil {
		opts.Clock = func() time.Time { return time.Now().UTC() }
	}
	return &EvaluateUseCase{
		ingestor:   ingestor,
		extractor:  extractor,
		classifier: classifier,
		reasoner:   reasoner,
		reports:    reports,
		review:     review,
		trace:      trace,
		observer:   observer,
		opts:       opts,
	}
}

// WithoutReasoning returns a copy that skips the reasoning provider.
func (uc *EvaluateUseCase) WithoutReasoning() *EvaluateUseCase {
	clone := *uc
	clone.reasoner = nil
	return &clone
}

func (uc *EvaluateUseCase) Evaluate(ctx context.Context, userID string, docs domain.DocumentSet) (*domain.Evaluation, error) {
	started := uc.opts.Clock()
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = uuid.NewString()
	}
	logger := uc.opts.Logger.With("user_id", userID)

	payload := uc.ingestor.Ingest(ctx, docs)
	uc.record(ctx, logger, userID, StepIngestion, payload)

	fv := uc.extractor.Extract(payload)
	uc.record(ctx, logger, userID, StepFeatures, fv)

	decision, err := uc.classifier.Predict(fv)
	if err != nil {
		return nil, fmt.Errorf("classify applicant: %w", err)
	}
	decisionText := decision.String()
	uc.record(ctx, logger, userID, StepDecision, map[string]any{
		"decision":      decision,
		"decision_text": decisionText,
	})

	var report *domain.ExplainabilityReport
	if decision.Outcome != domain.OutcomeInvalid {
		explained, err := eligibility.Explain(uc.classifier.Model(), fv)
		if err != nil {
			return nil, fmt.Errorf("explain decision: %w", err)
		}
		report = &explained
	}

	reasoning := uc.reason(ctx, logger, payload, decisionText)
	uc.record(ctx, logger, userID, StepReasoning, reasoning)

	recommendations := eligibility.RecommendFor(decision)
	uc.record(ctx, logger, userID, StepRecommendations, recommendations)

	if uc.reports != nil {
		path, err := uc.reports.Save(ctx, domain.EvaluationRecord{
			Timestamp:      uc.opts.Clock(),
			UserID:         userID,
			Features:       fv,
			Decision:       decisionText,
			Explainability: report,
		})
		if err != nil {
			return nil, fmt.Errorf("save evaluation report: %w", err)
		}
		logger.DebugContext(ctx, "report_saved", "path", path)
	}

	elapsed := uc.opts.Clock().Sub(started)
	if uc.observer != nil {
		uc.observer.ObserveEvaluation(decision.Outcome, elapsed)
	}
	logger.InfoContext(ctx, "evaluation_completed",
		"outcome", decision.Outcome,
		"duration_ms", elapsed.Milliseconds(),
	)

	return &domain.Evaluation{
		UserID:          userID,
		Data:            payload,
		Features:        fv,
		Decision:        decision,
		DecisionText:    decisionText,
		Explainability:  report,
		Reasoning:       reasoning,
		Recommendations: recommendations,
	}, nil
}

// reason never fails: provider problems become marked narrative and a manual review entry.
func (uc *EvaluateUseCase) reason(ctx context.Context, logger *slog.Logger, payload domain.RawPayload, decisionText string) string {
	if uc.reasoner == nil {
		return domain.ReasoningError("reasoning provider disabled")
	}
	name := uc.reasoner.Name()

	reasonCtx, cancel := context.WithTimeout(ctx, uc.opts.ReasoningTimeout)
	defer cancel()

	if !uc.reasoner.Available(reasonCtx) {
		issue := fmt.Sprintf("%s server not running", name)
		uc.flagForReview(ctx, logger, name, issue)
		return domain.ReasoningError(issue)
	}

	narrative, err := uc.reasoner.Reason(reasonCtx, buildReasoningPrompt(payload, decisionText))
	if err != nil {
		uc.flagForReview(ctx, logger, name, fmt.Sprintf("%s error: %v", name, err))
		return domain.ReasoningError(err.Error())
	}
	return narrative
}

func (uc *EvaluateUseCase) flagForReview(ctx context.Context, logger *slog.Logger, provider, issue string) {
	logger.WarnContext(ctx, "reasoning_failed", "provider", provider, "issue", issue)
	if uc.observer != nil {
		uc.observer.ObserveReasoningFailure(provider)
	}
	if uc.review == nil {
		return
	}
	if err := uc.review.Append(ctx, issue); err != nil {
		logger.ErrorContext(ctx, "manual_review_append_failed", "error", err)
	}
}

func (uc *EvaluateUseCase) record(ctx context.Context, logger *slog.Logger, userID, step string, payload any) {
	if uc.trace == nil {
		return
	}
	if err := uc.trace.Record(ctx, userID, step, payload); err != nil {
		logger.WarnContext(ctx, "trace_record_failed", "step", step, "error", err)
	}
}

func buildReasoningPrompt(payload domain.RawPayload, decisionText string) string {
	data, err := json.Marshal(payload)
	if err != nil {
		data = []byte("{}")
	}
	if len(data) > maxPromptPayload {
		cut := maxPromptPayload
		for cut > 0 && !utf8.RuneStart(data[cut]) {
			cut--
		}
		data = data[:cut]
	}
	snippet := string(data)
	return fmt.Sprintf("User data: %s. System decision: %s. Explain briefly why.", snippet, decisionText)
}

package ports

import (
	"context"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

// Evaluator is the inbound contract for the document-to-decision pipeline.
type Evaluator interface {
	Evaluate(ctx context.Context, userID string, docs domain.DocumentSet) (*domain.Evaluation, error)
}

// ApplicationIntake stores uploaded documents and queues them for evaluation.
type ApplicationIntake interface {
	Submit(ctx context.Context, userID string, docs map[string]domain.UploadedDocument) (*domain.Application, error)
}

// ApplicationReader is the inbound read model for application state.
type ApplicationReader interface {
	GetByID(ctx context.Context, id string) (*domain.Application, error)
}

// ApplicationProcessor evaluates a queued application.
type ApplicationProcessor interface {
	ProcessByID(ctx context.Context, applicationID string) error
}

// ReportReader returns the persisted evaluation record for a user.
type ReportReader interface {
	Load(ctx context.Context, userID string) (*domain.EvaluationRecord, error)
}

// Advisor explains and recommends without running ingestion.
type Advisor interface {
	Explain(ctx context.Context, fv domain.FeatureVector) (*domain.ExplainabilityReport, error)
	Recommend(ctx context.Context, decisionText string) []string
	ModelInfo() domain.ModelInfo
}

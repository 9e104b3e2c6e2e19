package ports

import (
	"context"
	"io"
	"time"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

// ApplicationRepository persists and reads application state.
type ApplicationRepository interface {
	Create(ctx context.Context, app *domain.Application) error
	GetByID(ctx context.Context, id string) (*domain.Application, error)
	UpdateStatus(ctx context.Context, id string, status domain.ApplicationStatus, errMessage string) error
	SaveResult(ctx context.Context, id string, result *domain.Evaluation) error
}

// DocumentSource opens applicant documents by key.
type DocumentSource interface {
	Open(ctx context.Context, key string) (io.ReadCloser, error)
}

// ObjectStorage stores uploaded applicant documents.
type ObjectStorage interface {
	DocumentSource
	Save(ctx context.Context, key string, data io.Reader) error
}

// MessageQueue publishes/consumes application submission events.
type MessageQueue interface {
	PublishApplicationSubmitted(ctx context.Context, applicationID string) error
	SubscribeApplicationSubmitted(ctx context.Context, handler func(context.Context, string) error) error
}

// Ingestor converts a document set into a raw payload. Reader failures are flagged in the
// payload instead of being returned.
type Ingestor interface {
	Ingest(ctx context.Context, docs domain.DocumentSet) domain.RawPayload
}

// AssetSheetReader reads the assets and liabilities spreadsheet.
type AssetSheetReader interface {
	ReadAssets(ctx context.Context, data []byte) ([]domain.AssetRecord, error)
}

// TextReader extracts plain text from a document body.
type TextReader interface {
	ReadText(ctx context.Context, data []byte) (string, error)
}

// TextRecognizer runs OCR on an image.
type TextRecognizer interface {
	RecognizeText(ctx context.Context, image []byte, mimeType string) (string, error)
}

// ReasoningProvider produces supplementary narrative. Its output never affects a decision.
type ReasoningProvider interface {
	Name() string
	Available(ctx context.Context) bool
	Reason(ctx context.Context, prompt string) (string, error)
}

// ReportStore keeps one evaluation record per user, overwritten on repeat writes.
type ReportStore interface {
	Save(ctx context.Context, record domain.EvaluationRecord) (string, error)
	Load(ctx context.Context, userID string) (*domain.EvaluationRecord, error)
}

// ManualReviewLog records issues that need an administrator's attention.
type ManualReviewLog interface {
	Append(ctx context.Context, issue string) error
}

// TraceSink receives pipeline step snapshots for audit.
type TraceSink interface {
	Record(ctx context.Context, userID, step string, payload any) error
}

// EvaluationObserver receives pipeline telemetry.
type EvaluationObserver interface {
	ObserveEvaluation(outcome domain.Outcome, duration time.Duration)
	ObserveReasoningFailure(provider string)
}

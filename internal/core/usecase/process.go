package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
	"github.com/kirillkom/social-support-ai/internal/core/ports"
)

// ProcessUseCase evaluates a queued application and records the outcome.
type ProcessUseCase struct {
	repo      ports.ApplicationRepository
	evaluator ports.Evaluator
	queueLag  func(time.Duration)
	now       func() time.Time
}

func NewProcessUseCase(repo ports.ApplicationRepository, evaluator ports.Evaluator) *ProcessUseCase {
	return &ProcessUseCase{
		repo:      repo,
		evaluator: evaluator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// WithQueueLag reports the delay between submission and the start of processing.
func (uc *ProcessUseCase) WithQueueLag(observe func(time.Duration)) *ProcessUseCase {
	uc.queueLag = observe
	return uc
}

// ProcessByID is safe to call again for redelivered messages: evaluated applications are skipped.
func (uc *ProcessUseCase) ProcessByID(ctx context.Context, applicationID string) error {
	app, err := uc.repo.GetByID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("fetch application by id: %w", err)
	}
	if app.Status == domain.StatusEvaluated {
		return nil
	}
	if uc.queueLag != nil && !app.CreatedAt.IsZero() {
		uc.queueLag(uc.now().Sub(app.CreatedAt))
	}

	if err := uc.markStatus(ctx, applicationID, domain.StatusProcessing, ""); err != nil {
		return fmt.Errorf("set status=processing: %w", err)
	}

	result, err := uc.evaluator.Evaluate(ctx, app.UserID, app.Documents)
	if err != nil {
		return uc.fail(ctx, applicationID, fmt.Errorf("evaluate application: %w", err))
	}

	if err := uc.repo.SaveResult(ctx, applicationID, result); err != nil {
		return uc.fail(ctx, applicationID, fmt.Errorf("save result: %w", err))
	}
	return nil
}

func (uc *ProcessUseCase) markStatus(ctx context.Context, applicationID string, status domain.ApplicationStatus, errMessage string) error {
	return uc.repo.UpdateStatus(ctx, applicationID, status, errMessage)
}

func (uc *ProcessUseCase) fail(ctx context.Context, applicationID string, processErr error) error {
	if failErr := uc.markStatus(ctx, applicationID, domain.StatusFailed, processErr.Error()); failErr != nil {
		return fmt.Errorf("%w; mark failed status: %v", processErr, failErr)
	}
	return processErr
}

package usecase

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
	"github.com/kirillkom/social-support-ai/internal/core/ports"
)

// Upload field names accepted for applicant documents.
const (
	DocumentAssets        = "assets"
	DocumentBankStatement = "bank_statement"
	DocumentIDCard        = "id_card"
	DocumentResume        = "resume"
)

var documentKinds = []string{DocumentAssets, DocumentBankStatement, DocumentIDCard, DocumentResume}

// IntakeUseCase stores uploaded documents, records the application and queues it.
type IntakeUseCase struct {
	repo    ports.ApplicationRepository
	storage ports.ObjectStorage
	queue   ports.MessageQueue
	now     func() time.Time
}

func NewIntakeUseCase(
	repo ports.ApplicationRepository,
	storage ports.ObjectStorage,
	queue ports.MessageQueue,
) *IntakeUseCase {
	return &IntakeUseCase{
		repo:    repo,
		storage: storage,
		queue:   queue,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

func (uc *IntakeUseCase) Submit(
	ctx context.Context,
	userID string,
	docs map[string]domain.UploadedDocument,
) (*domain.Application, error) {
	if len(docs) == 0 {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit application", errors.New("no documents uploaded"))
	}
	for kind := range docs {
		if !isDocumentKind(kind) {
			return nil, domain.WrapError(domain.ErrInvalidInput, "submit application", fmt.Errorf("unknown document %q", kind))
		}
	}

	id := uuid.NewString()
	userID = strings.TrimSpace(userID)
	if userID == "" {
		userID = uuid.NewString()
	}

	var set domain.DocumentSet
	for _, kind := range documentKinds {
		upload, ok := docs[kind]
		if !ok || upload.Body == nil {
			continue
		}
		key := fmt.Sprintf("%s/%s_%s", id, kind, sanitizeFilename(upload.Filename))
		if err := uc.storage.Save(ctx, key, upload.Body); err != nil {
			return nil, fmt.Errorf("save %s to object storage: %w", kind, err)
		}
		assignDocument(&set, kind, key)
	}
	if set.Empty() {
		return nil, domain.WrapError(domain.ErrInvalidInput, "submit application", errors.New("no readable documents"))
	}

	now := uc.now()
	app := &domain.Application{
		ID:        id,
		UserID:    userID,
		Documents: set,
		Status:    domain.StatusSubmitted,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("create application: %w", err)
	}

	if err := uc.queue.PublishApplicationSubmitted(ctx, app.ID); err != nil {
		_ = uc.repo.UpdateStatus(ctx, app.ID, domain.StatusFailed, "queue unavailable")
		return nil, fmt.Errorf("publish application event: %w", err)
	}
	return app, nil
}

func (uc *IntakeUseCase) GetByID(ctx context.Context, id string) (*domain.Application, error) {
	if strings.TrimSpace(id) == "" {
		return nil, domain.WrapError(domain.ErrInvalidInput, "get application", errors.New("id is required"))
	}
	return uc.repo.GetByID(ctx, id)
}

func isDocumentKind(kind string) bool {
	for _, known := range documentKinds {
		if kind == known {
			return true
		}
	}
	return false
}

func assignDocument(set *domain.DocumentSet, kind, key string) {
	switch kind {
	case DocumentAssets:
		set.Assets = key
	case DocumentBankStatement:
		set.BankStatement = key
	case DocumentIDCard:
		set.IDCard = key
	case DocumentResume:
		set.Resume = key
	}
}

func sanitizeFilename(name string) string {
	base := filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if base == "." || base == "/" {
		base = ""
	}
	base = strings.ReplaceAll(base, " ", "_")
	base = strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z':
			return r
		case r >= 'A' && r <= 'Z':
			return r
		case r >= '0' && r <= '9':
			return r
		case r == '.', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, base)
	if base == "" || strings.Trim(base, ".") == "" {
		return "document.bin"
	}
	return base
}

package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

func uploads(pairs ...string) map[string]domain.UploadedDocument {
	out := map[string]domain.UploadedDocument{}
	for i := 0; i+2 < len(pairs); i += 3 {
		out[pairs[i]] = domain.UploadedDocument{Filename: pairs[i+1], Body: strings.NewReader(pairs[i+2])}
	}
	return out
}

func TestSubmitSuccess(t *testing.T) {
	repo := &applicationRepoFake{}
	storage := &storageFake{}
	queue := &queueFake{}
	uc := NewIntakeUseCase(repo, storage, queue)

	app, err := uc.Submit(context.Background(), "user-1", uploads(
		DocumentBankStatement, "bank statement.pdf", "Salary 8500",
		DocumentIDCard, "../id.png", "png",
	))
	if err != nil {
		t.Fatalf("Submit() error = %v", err)
	}
	if app.ID == "" || app.UserID != "user-1" || app.Status != domain.StatusSubmitted {
		t.Fatalf("unexpected application %+v", app)
	}
	if repo.created == nil || queue.applicationID != app.ID {
		t.Fatalf("expected application stored and queued")
	}
	if app.Documents.BankStatement != app.ID+"/bank_statement_bank_statement.pdf" {
		t.Fatalf("unexpected bank key %q", app.Documents.BankStatement)
	}
	if app.Documents.IDCard != app.ID+"/id_card_id.png" {
		t.Fatalf("unexpected id key %q", app.Documents.IDCard)
	}
	if app.Documents.Assets != "" || app.Documents.Resume != "" {
		t.Fatalf("absent documents must stay empty: %+v", app.Documents)
	}
	if storage.saved[app.Documents.BankStatement] != "Salary 8500" {
		t.Fatalf("unexpected stored body %q", storage.saved[app.Documents.BankStatement])
	}
}

func TestSubmitRejectsEmptyAndUnknown(t *testing.T) {
	uc := NewIntakeUseCase(&applicationRepoFake{}, &storageFake{}, &queueFake{})

	if _, err := uc.Submit(context.Background(), "u", nil); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for no documents, got %v", err)
	}
	if _, err := uc.Submit(context.Background(), "u", uploads("passport", "p.png", "x")); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input for unknown document, got %v", err)
	}
}

func TestSubmitQueueErrorMarksFailed(t *testing.T) {
	repo := &applicationRepoFake{}
	uc := NewIntakeUseCase(repo, &storageFake{}, &queueFake{err: errors.New("queue down")})

	_, err := uc.Submit(context.Background(), "u", uploads(DocumentResume, "cv.docx", "Experience 3 years"))
	if err == nil || !strings.Contains(err.Error(), "publish application event") {
		t.Fatalf("expected publish error, got %v", err)
	}
	if len(repo.statusCalls) != 1 || repo.statusCalls[0].status != domain.StatusFailed {
		t.Fatalf("expected failed status, got %+v", repo.statusCalls)
	}
}

func TestSubmitStorageError(t *testing.T) {
	repo := &applicationRepoFake{}
	uc := NewIntakeUseCase(repo, &storageFake{err: errors.New("disk full")}, &queueFake{})

	if _, err := uc.Submit(context.Background(), "u", uploads(DocumentAssets, "a.xlsx", "x")); err == nil {
		t.Fatal("expected error")
	}
	if repo.created != nil {
		t.Fatal("application must not be created when storage fails")
	}
}

func TestGetByIDRequiresID(t *testing.T) {
	uc := NewIntakeUseCase(&applicationRepoFake{}, &storageFake{}, &queueFake{})
	if _, err := uc.GetByID(context.Background(), " "); !domain.IsKind(err, domain.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	cases := map[string]string{
		"report 1.pdf":       "report_1.pdf",
		`C:\Users\me\id.png`: "id.png",
		"../../etc/passwd":   "passwd",
		"":                   "document.bin",
		"..":                 "document.bin",
		"résumé.docx":        "r_sum_.docx",
	}
	for in, want := range cases {
		if got := sanitizeFilename(in); got != want {
			t.Fatalf("sanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

// Package ingestion reads the four applicant documents and assembles the raw payload.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
	"github.com/kirillkom/social-support-ai/internal/core/ports"
)

// MaxDocumentBytes bounds a single document read.
const MaxDocumentBytes = 32 << 20

const (
	docAssets        = "assets"
	docBankStatement = "bank_statement"
	docIDCard        = "id_card"
	docResume        = "resume"
)

var errNoRecognizer = errors.New("no OCR provider configured")

// Readers groups the per-format document readers. OCR may be nil when only text ID cards are used.
type Readers struct {
	Assets    ports.AssetSheetReader
	Bank      ports.TextReader
	Resume    ports.TextReader
	PlainText ports.TextReader
	OCR       ports.TextRecognizer
}

type Adapter struct {
	source  ports.DocumentSource
	readers Readers
	logger  *slog.Logger
}

func NewAdapter(source ports.DocumentSource, readers Readers, logger *slog.Logger) *Adapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Adapter{source: source, readers: readers, logger: logger}
}

// Ingest never fails: unreadable documents are recorded as error-flagged payload parts.
func (a *Adapter) Ingest(ctx context.Context, docs domain.DocumentSet) domain.RawPayload {
	var payload domain.RawPayload

	if key := strings.TrimSpace(docs.Assets); key != "" {
		records, err := a.readAssets(ctx, key)
		if err != nil {
			a.logFailure(ctx, docAssets, key, err)
			payload.AssetsError = docAssets + ": " + err.Error()
		} else {
			payload.Assets = records
		}
	}
	if key := strings.TrimSpace(docs.BankStatement); key != "" {
		payload.BankText = a.readText(ctx, docBankStatement, key, a.readers.Bank)
	}
	if key := strings.TrimSpace(docs.IDCard); key != "" {
		text, err := a.readIDCard(ctx, key)
		payload.IDText = a.textOrError(ctx, docIDCard, key, text, err)
	}
	if key := strings.TrimSpace(docs.Resume); key != "" {
		payload.ResumeText = a.readText(ctx, docResume, key, a.readers.Resume)
	}
	return payload
}

func (a *Adapter) readAssets(ctx context.Context, key string) ([]domain.AssetRecord, error) {
	if a.readers.Assets == nil {
		return nil, fmt.Errorf("no spreadsheet reader configured")
	}
	data, err := a.load(ctx, key)
	if err != nil {
		return nil, err
	}
	return a.readers.Assets.ReadAssets(ctx, data)
}

func (a *Adapter) readText(ctx context.Context, document, key string, reader ports.TextReader) string {
	if reader == nil {
		return a.textOrError(ctx, document, key, "", fmt.Errorf("no reader configured"))
	}
	data, err := a.load(ctx, key)
	if err != nil {
		return a.textOrError(ctx, document, key, "", err)
	}
	text, err := reader.ReadText(ctx, data)
	return a.textOrError(ctx, document, key, text, err)
}

func (a *Adapter) readIDCard(ctx context.Context, key string) (string, error) {
	data, err := a.load(ctx, key)
	if err != nil {
		return "", err
	}
	if strings.EqualFold(filepath.Ext(key), ".txt") {
		if a.readers.PlainText == nil {
			return "", fmt.Errorf("no plain text reader configured")
		}
		return a.readers.PlainText.ReadText(ctx, data)
	}

	mimeType := imageMIMEType(key, data)
	if !strings.HasPrefix(mimeType, "image/") {
		return "", fmt.Errorf("unsupported id card format %q", mimeType)
	}
	if a.readers.OCR == nil {
		return "", errNoRecognizer
	}
	text, err := a.readers.OCR.RecognizeText(ctx, data, mimeType)
	if err != nil {
		return "", fmt.Errorf("ocr: %w", err)
	}
	return strings.TrimSpace(text), nil
}

func (a *Adapter) textOrError(ctx context.Context, document, key, text string, err error) string {
	if err != nil {
		a.logFailure(ctx, document, key, err)
		return domain.IngestionError(document, err)
	}
	return text
}

func (a *Adapter) load(ctx context.Context, key string) ([]byte, error) {
	if a.source == nil {
		return nil, fmt.Errorf("no document source configured")
	}
	rc, err := a.source.Open(ctx, key)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxDocumentBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}
	if len(data) > MaxDocumentBytes {
		return nil, fmt.Errorf("document exceeds %d bytes", MaxDocumentBytes)
	}
	return data, nil
}

func (a *Adapter) logFailure(ctx context.Context, document, key string, err error) {
	a.logger.WarnContext(ctx, "ingestion_failed", "document", document, "key", key, "error", err)
}

func imageMIMEType(key string, data []byte) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".webp":
		return "image/webp"
	}
	return http.DetectContentType(data)
}

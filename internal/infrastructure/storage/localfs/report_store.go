package localfs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

const reportSuffix = "_log.json"

// ReportStore writes one indented JSON record per user, replacing any earlier one.
type ReportStore struct {
	dir string
}

func NewReportStore(dir string) (*ReportStore, error) {
	if dir == "" {
		dir = "./data/logs"
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create reports dir: %w", err)
	}
	return &ReportStore{dir: dir}, nil
}

func (s *ReportStore) Save(_ context.Context, record domain.EvaluationRecord) (string, error) {
	path, err := s.path(record.UserID)
	if err != nil {
		return "", err
	}
	body, err := json.MarshalIndent(record, "", "    ")
	if err != nil {
		return "", fmt.Errorf("marshal report: %w", err)
	}

	// Readers never observe a partial record.
	tmp, err := os.CreateTemp(s.dir, ".report-*")
	if err != nil {
		return "", fmt.Errorf("create temp report: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write report: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close report: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("publish report: %w", err)
	}
	return path, nil
}

func (s *ReportStore) Load(_ context.Context, userID string) (*domain.EvaluationRecord, error) {
	path, err := s.path(userID)
	if err != nil {
		return nil, err
	}
	body, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.WrapError(domain.ErrNotFound, "load report", fmt.Errorf("no report for user %s", userID))
		}
		return nil, fmt.Errorf("read report: %w", err)
	}
	var record domain.EvaluationRecord
	if err := json.Unmarshal(body, &record); err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &record, nil
}

func (s *ReportStore) path(userID string) (string, error) {
	id := strings.TrimSpace(userID)
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", domain.WrapError(domain.ErrInvalidInput, "report path", fmt.Errorf("invalid user id %q", userID))
	}
	return filepath.Join(s.dir, id+reportSuffix), nil
}

package localfs

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// ManualReviewLog appends "<timestamp> - <issue>" lines for administrators.
type ManualReviewLog struct {
	path string
	now  func() time.Time

	mu sync.Mutex
}

func NewManualReviewLog(path string) (*ManualReviewLog, error) {
	if path == "" {
		path = "./data/manual_checks.log"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create manual review dir: %w", err)
	}
	return &ManualReviewLog{path: path, now: time.Now}, nil
}

func (l *ManualReviewLog) Append(_ context.Context, issue string) error {
	issue = strings.Join(strings.Fields(issue), " ")
	line := fmt.Sprintf("%s - %s\n", l.now().Format(time.RFC3339), issue)

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open manual review log: %w", err)
	}
	defer f.Close()
	if _, err := f.WriteString(line); err != nil {
		return fmt.Errorf("append manual review log: %w", err)
	}
	return nil
}

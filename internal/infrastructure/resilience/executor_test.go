package resilience

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}, quietLogger())

	attempts := 0
	errTemp := errors.New("temporary")
	err := exec.Execute(context.Background(), "ollama.reason", func(context.Context) error {
		attempts++
		if attempts < 3 {
			return errTemp
		}
		return nil
	}, func(err error) ErrorClassification {
		return ErrorClassification{
			Retryable:     errors.Is(err, errTemp),
			RecordFailure: true,
		}
	})
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: 1 * time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	}, quietLogger())

	attempts := 0
	errPermanent := errors.New("bad request")
	err := exec.Execute(context.Background(), "gemini.ocr", func(context.Context) error {
		attempts++
		return errPermanent
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	})
	if !errors.Is(err, errPermanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if attempts != 1 {
		t.Fatalf("expected 1 attempt, got %d", attempts)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	exec := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     1 * time.Millisecond,
		RetryMaxBackoff:         1 * time.Millisecond,
		RetryMultiplier:         2,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	}, quietLogger())

	errDown := errors.New("connection refused")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	}

	for i := 0; i < 2; i++ {
		err := exec.Execute(context.Background(), "ollama.reason", func(context.Context) error {
			return errDown
		}, classifier)
		if !errors.Is(err, errDown) {
			t.Fatalf("expected failure on iteration %d, got %v", i, err)
		}
	}
	if !exec.Open("ollama.reason") {
		t.Fatal("expected breaker to report open")
	}
	if exec.Open("gemini.reason") {
		t.Fatal("unrelated operation must not be open")
	}

	err := exec.Execute(context.Background(), "ollama.reason", func(context.Context) error {
		t.Fatalf("circuit should be open and must not call operation")
		return nil
	}, classifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open state error, got %v", err)
	}
}

func TestNilExecutorRunsOnce(t *testing.T) {
	var exec *Executor
	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	}, nil)
	if err != nil || calls != 1 {
		t.Fatalf("expected a single successful call, got calls=%d err=%v", calls, err)
	}
	if exec.Open("op") {
		t.Fatal("nil executor has no open breakers")
	}
}

func TestExecuteStopsOnCancelledContext(t *testing.T) {
	exec := NewExecutor(Config{BreakerEnabled: false}, quietLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := exec.Execute(ctx, "op", func(context.Context) error {
		t.Fatal("operation must not run on cancelled context")
		return nil
	}, nil)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWrapTemporary(t *testing.T) {
	retryable := func(error) ErrorClassification { return ErrorClassification{Retryable: true} }
	permanent := func(error) ErrorClassification { return ErrorClassification{} }

	err := WrapTemporary("ollama reason", errors.New("502"), retryable)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary kind, got %v", err)
	}
	err = WrapTemporary("ollama reason", errors.New("400"), permanent)
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("permanent error must not be tagged temporary: %v", err)
	}
	err = WrapTemporary("ollama reason", gobreaker.ErrOpenState, permanent)
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("open breaker must be temporary, got %v", err)
	}
	if WrapTemporary("op", nil, retryable) != nil {
		t.Fatal("nil error must stay nil")
	}
}

func TestClassifyCommon(t *testing.T) {
	class, ok := ClassifyCommon(context.DeadlineExceeded)
	if !ok || class.Retryable || class.RecordFailure {
		t.Fatalf("unexpected classification for deadline: %+v ok=%v", class, ok)
	}
	class, ok = ClassifyCommon(gobreaker.ErrTooManyRequests)
	if !ok || !class.Retryable {
		t.Fatalf("unexpected classification for half-open rejection: %+v ok=%v", class, ok)
	}
	if _, ok := ClassifyCommon(errors.New("other")); ok {
		t.Fatal("unknown errors must fall through")
	}
}

func TestNormalizeFillsUnsetFields(t *testing.T) {
	got := Config{
		RetryMaxAttempts:    5,
		RetryInitialBackoff: 2 * time.Second,
		RetryMaxBackoff:     time.Second,
		RetryMultiplier:     0.5,
		BreakerFailureRatio: 1.5,
	}.normalize()

	def := DefaultConfig()
	if got.RetryMaxAttempts != 5 || got.RetryInitialBackoff != 2*time.Second {
		t.Fatalf("explicit values must be kept, got %+v", got)
	}
	if got.RetryMaxBackoff != 2*time.Second {
		t.Fatalf("expected max backoff raised to initial backoff, got %v", got.RetryMaxBackoff)
	}
	if got.RetryMultiplier != def.RetryMultiplier || got.BreakerFailureRatio != def.BreakerFailureRatio {
		t.Fatalf("expected invalid values replaced by defaults, got %+v", got)
	}
	if got.BreakerMinRequests != def.BreakerMinRequests || got.BreakerOpenTimeout != def.BreakerOpenTimeout || got.BreakerHalfOpenMaxCalls != def.BreakerHalfOpenMaxCalls {
		t.Fatalf("expected breaker defaults, got %+v", got)
	}
}

func TestDefaultConfigLeavesRoomForModelServerRestart(t *testing.T) {
	def := DefaultConfig()
	if def.RetryInitialBackoff < 250*time.Millisecond || def.RetryMaxBackoff < def.RetryInitialBackoff {
		t.Fatalf("unexpected retry backoff %v..%v", def.RetryInitialBackoff, def.RetryMaxBackoff)
	}
	if def.BreakerOpenTimeout < 30*time.Second {
		t.Fatalf("breaker reopens too soon: %v", def.BreakerOpenTimeout)
	}
}

package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kirillkom/social-support-ai/internal/core/domain"
	"github.com/kirillkom/social-support-ai/internal/infrastructure/resilience"
)

type fakeWriter struct {
	messages []kafka.Message
	errs     []error
	closed   bool
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if len(w.errs) > 0 {
		err := w.errs[0]
		w.errs = w.errs[1:]
		if err != nil {
			return err
		}
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) Close() error {
	w.closed = true
	return nil
}

func TestRecordPublishesKeyedEvent(t *testing.T) {
	writer := &fakeWriter{}
	sink := newSink(writer, nil)
	sink.now = func() time.Time { return time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC) }

	err := sink.Record(context.Background(), "user-7", "decision", map[string]string{"decision": "Approved"})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("expected 1 message, got %d", len(writer.messages))
	}
	msg := writer.messages[0]
	if string(msg.Key) != "user-7" {
		t.Fatalf("unexpected key %q", msg.Key)
	}
	var event struct {
		Project string            `json:"project"`
		Step    string            `json:"step"`
		State   map[string]string `json:"state"`
	}
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		t.Fatalf("decode value: %v", err)
	}
	if event.Project != "social-support-ai" || event.Step != "decision" || event.State["decision"] != "Approved" {
		t.Fatalf("unexpected event %+v", event)
	}

	if err := sink.Close(); err != nil || !writer.closed {
		t.Fatalf("expected writer closed, err=%v", err)
	}
}

func TestRecordRetriesTemporaryBrokerErrors(t *testing.T) {
	writer := &fakeWriter{errs: []error{kafka.LeaderNotAvailable, nil}}
	exec := resilience.NewExecutor(resilience.Config{
		RetryMaxAttempts:    2,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     time.Millisecond,
		BreakerEnabled:      false,
	}, nil)

	if err := newSink(writer, exec).Record(context.Background(), "u", "ingestion", nil); err != nil {
		t.Fatalf("Record() error = %v", err)
	}
	if len(writer.messages) != 1 {
		t.Fatalf("expected delivery after retry, got %d messages", len(writer.messages))
	}
}

func TestRecordSurfacesPermanentErrors(t *testing.T) {
	writer := &fakeWriter{errs: []error{errors.New("message too large")}}
	err := newSink(writer, nil).Record(context.Background(), "u", "ingestion", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("unexpected temporary kind: %v", err)
	}
}

func TestNewWriterFlushesSingleMessagesQuickly(t *testing.T) {
	w := newWriter([]string{"kafka-1:9092"}, "eligibility-trace")
	defer w.Close()

	if w.BatchTimeout <= 0 || w.BatchTimeout > 50*time.Millisecond {
		t.Fatalf("expected a short batch timeout, got %v", w.BatchTimeout)
	}
	if w.Async {
		t.Fatal("writes must stay synchronous so failures reach the caller")
	}
	if w.Topic != "eligibility-trace" {
		t.Fatalf("unexpected topic %q", w.Topic)
	}
}

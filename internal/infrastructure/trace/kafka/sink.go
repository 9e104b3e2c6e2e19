// Package kafka publishes pipeline step snapshots to a Kafka topic for audit.
package kafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/kirillkom/social-support-ai/internal/infrastructure/resilience"
)

const (
	projectName     = "social-support-ai"
	pipelineName    = "EligibilityPipeline"
	operationRecord = "kafka.trace"

	// Steps are written one message at a time.
	writeBatchTimeout = 10 * time.Millisecond
)

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// Event is the JSON value of one trace message. The message key is the user id.
type Event struct {
	Name      string    `json:"name"`
	Project   string    `json:"project"`
	UserID    string    `json:"user_id"`
	Step      string    `json:"step"`
	Timestamp time.Time `json:"timestamp"`
	State     any       `json:"state"`
}

type Sink struct {
	writer   messageWriter
	executor *resilience.Executor
	now      func() time.Time
}

func NewSink(brokers []string, topic string, executor *resilience.Executor) *Sink {
	return newSink(newWriter(brokers, topic), executor)
}

func newWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{},
		BatchTimeout:           writeBatchTimeout,
		RequiredAcks:           kafka.RequireOne,
		AllowAutoTopicCreation: true,
	}
}

func newSink(writer messageWriter, executor *resilience.Executor) *Sink {
	return &Sink{writer: writer, executor: executor, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Sink) Record(ctx context.Context, userID, step string, payload any) error {
	data, err := json.Marshal(Event{
		Name:      pipelineName,
		Project:   projectName,
		UserID:    userID,
		Step:      step,
		Timestamp: s.now(),
		State:     payload,
	})
	if err != nil {
		return fmt.Errorf("marshal trace event: %w", err)
	}
	msg := kafka.Message{Key: []byte(userID), Value: data}

	err = s.executor.Execute(ctx, operationRecord, func(ctx context.Context) error {
		return s.writer.WriteMessages(ctx, msg)
	}, classifyKafkaError)
	if err != nil {
		return resilience.WrapTemporary("kafka trace", err, classifyKafkaError)
	}
	return nil
}

func (s *Sink) Close() error {
	return s.writer.Close()
}

func classifyKafkaError(err error) resilience.ErrorClassification {
	if class, ok := resilience.ClassifyCommon(err); ok {
		return class
	}
	var kafkaErr kafka.Error
	if errors.As(err, &kafkaErr) {
		return resilience.ErrorClassification{
			Retryable:     kafkaErr.Temporary(),
			RecordFailure: true,
		}
	}
	return resilience.ErrorClassification{
		Retryable:     false,
		RecordFailure: true,
	}
}

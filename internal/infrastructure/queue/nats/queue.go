// Package nats carries application-submitted events from the API to the worker pool.
package nats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/social-support-ai/internal/infrastructure/resilience"
)

const (
	clientName       = "social-support-ai"
	workerQueueGroup = "eligibility-workers"
	operationPublish = "nats.publish"
)

type Queue struct {
	conn        *nats.Conn
	subject     string
	concurrency int
	executor    *resilience.Executor
	logger      *slog.Logger
}

type Options struct {
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger

	// Concurrency is the number of queue-group subscriptions; each delivers messages serially.
	Concurrency int
}

func New(url, subject string, options Options) (*Queue, error) {
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}
	concurrency := options.Concurrency
	if concurrency <= 0 {
		concurrency = 1
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}

	conn, err := nats.Connect(
		url,
		nats.Name(clientName),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats_disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats_reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:        conn,
		subject:     subject,
		concurrency: concurrency,
		executor:    options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

func (q *Queue) PublishApplicationSubmitted(ctx context.Context, applicationID string) error {
	err := q.executor.Execute(ctx, operationPublish, func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, []byte(applicationID)); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}, classifyNATSError)
	if err != nil {
		return resilience.WrapTemporary("nats publish", err, classifyNATSError)
	}
	return nil
}

// SubscribeApplicationSubmitted blocks until ctx is done, then drains in-flight handlers.
func (q *Queue) SubscribeApplicationSubmitted(ctx context.Context, handler func(context.Context, string) error) error {
	callback := func(msg *nats.Msg) {
		if errors.Is(ctx.Err(), context.Canceled) {
			return
		}

		applicationID := string(msg.Data)
		handlerCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
		defer cancel()
		if err := handler(handlerCtx, applicationID); err != nil {
			q.logger.Error("worker_handler_failed", "application_id", applicationID, "error", err)
		}
	}

	subs := make([]*nats.Subscription, 0, q.concurrency)
	for range q.concurrency {
		sub, err := q.conn.QueueSubscribe(q.subject, workerQueueGroup, callback)
		if err != nil {
			for _, s := range subs {
				_ = s.Unsubscribe()
			}
			return fmt.Errorf("nats subscribe: %w", err)
		}
		subs = append(subs, sub)
	}

	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	var drainErr error
	for _, sub := range subs {
		if err := sub.Drain(); err != nil {
			drainErr = errors.Join(drainErr, err)
		}
	}
	if drainErr != nil {
		return fmt.Errorf("nats drain subscription: %w", drainErr)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

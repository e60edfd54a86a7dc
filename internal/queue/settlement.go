// Package queue implements the settlement-queue handle sync-live-scores
// uses to notify an external settlement consumer that an Event finished.
// Grounded on the aws-sdk-go-v2/service/sqs dependency surfaced by the
// pack's Lambda-oriented scraper manifests; falls back to a no-op when no
// queue URL is configured, matching spec §6's "handle is injected"
// phrasing (absence of SETTLEMENT_QUEUE_URL must not be a startup error).
package queue

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SettlementQueue is the handle spec §4.G's sync-live-scores job holds.
type SettlementQueue interface {
	Send(ctx context.Context, eventID string) error
}

// SQSQueue sends one message per finished event, body set to the raw
// event id, matching the minimal contract spec §4.G describes.
type SQSQueue struct {
	client   *sqs.Client
	queueURL string
	logger   *slog.Logger
}

// NewSQSQueue builds a client against the configured queue URL.
func NewSQSQueue(ctx context.Context, queueURL string, logger *slog.Logger) (*SQSQueue, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return &SQSQueue{
		client:   sqs.NewFromConfig(cfg),
		queueURL: queueURL,
		logger:   logger.With("component", "settlement_queue"),
	}, nil
}

// Send enqueues a settlement message for eventID.
func (q *SQSQueue) Send(ctx context.Context, eventID string) error {
	_, err := q.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(q.queueURL),
		MessageBody: aws.String(eventID),
	})
	if err != nil {
		return fmt.Errorf("send settlement message: %w", err)
	}
	return nil
}

// NoopQueue is used when SETTLEMENT_QUEUE_URL is unset; sync-live-scores
// still runs, it just doesn't notify anyone downstream.
type NoopQueue struct {
	logger *slog.Logger
}

// NewNoopQueue builds a queue that logs and discards.
func NewNoopQueue(logger *slog.Logger) *NoopQueue {
	return &NoopQueue{logger: logger.With("component", "settlement_queue")}
}

// Send logs the event id at debug level and returns nil.
func (q *NoopQueue) Send(_ context.Context, eventID string) error {
	q.logger.Debug("settlement queue disabled, dropping message", "event_id", eventID)
	return nil
}

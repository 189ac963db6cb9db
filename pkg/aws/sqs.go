package aws

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"go.uber.org/zap"
)

// SQSAPI is the subset of the SQS client the queue uses.
type SQSAPI interface {
	SendMessage(ctx context.Context, in *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
	ReceiveMessage(ctx context.Context, in *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, in *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// MessageHandler processes one message body. A returned error leaves the
// message on the queue for redelivery after the visibility timeout.
type MessageHandler func(ctx context.Context, body []byte) error

const (
	minReceiveBackoff = time.Second
	maxReceiveBackoff = 30 * time.Second
)

// SQSQueue sends to and long-polls a single queue.
type SQSQueue struct {
	api      SQSAPI
	queueURL string
	logger   *zap.Logger

	// delay after a failed receive, doubled per consecutive failure
	minBackoff time.Duration
	maxBackoff time.Duration
}

func NewSQSQueue(cfg sdkaws.Config, queueURL string, logger *zap.Logger) *SQSQueue {
	return NewSQSQueueWithAPI(sqs.NewFromConfig(cfg), queueURL, logger)
}

func NewSQSQueueWithAPI(api SQSAPI, queueURL string, logger *zap.Logger) *SQSQueue {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SQSQueue{
		api:        api,
		queueURL:   queueURL,
		logger:     logger,
		minBackoff: minReceiveBackoff,
		maxBackoff: maxReceiveBackoff,
	}
}

// Send enqueues one message.
func (q *SQSQueue) Send(ctx context.Context, body []byte) error {
	_, err := q.api.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    sdkaws.String(q.queueURL),
		MessageBody: sdkaws.String(string(body)),
	})
	if err != nil {
		return fmt.Errorf("sqs send to %s: %w", q.queueURL, err)
	}
	return nil
}

// Poll receives messages until ctx is cancelled. Messages are deleted
// once handler succeeds. Failed receives back off exponentially up to
// maxBackoff; the delay resets after the next successful receive.
func (q *SQSQueue) Poll(ctx context.Context, handler MessageHandler) error {
	var backoff time.Duration
	for {
		err := q.pollOnce(ctx, handler)
		if ctx.Err() != nil {
			return nil
		}
		if err == nil {
			backoff = 0
			continue
		}

		backoff = q.nextBackoff(backoff)
		q.logger.Warn("sqs receive failed",
			zap.String("queue", q.queueURL),
			zap.Duration("retry_in", backoff),
			zap.Error(err))

		timer := time.NewTimer(backoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func (q *SQSQueue) nextBackoff(prev time.Duration) time.Duration {
	if prev <= 0 {
		return q.minBackoff
	}
	return min(prev*2, q.maxBackoff)
}

func (q *SQSQueue) pollOnce(ctx context.Context, handler MessageHandler) error {
	out, err := q.api.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            sdkaws.String(q.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20, // long polling
		VisibilityTimeout:   30,
	})
	if err != nil {
		return err
	}

	var errs []error
	for _, msg := range out.Messages {
		if msg.Body == nil {
			continue
		}
		if err := handler(ctx, []byte(*msg.Body)); err != nil {
			q.logger.Warn("sqs message left for redelivery",
				zap.String("message_id", sdkaws.ToString(msg.MessageId)),
				zap.Error(err))
			continue
		}
		if _, err := q.api.DeleteMessage(ctx, &sqs.DeleteMessageInput{
			QueueUrl:      sdkaws.String(q.queueURL),
			ReceiptHandle: msg.ReceiptHandle,
		}); err != nil {
			errs = append(errs, fmt.Errorf("delete %s: %w", sdkaws.ToString(msg.MessageId), err))
		}
	}
	return errors.Join(errs...)
}

// Package events fans checkout events out to the configured sink.
package events

import (
	"context"
	"encoding/json"
	"fmt"

	"straphub-service/models"
	awspkg "straphub-service/pkg/aws"
)

// SNSPublisher sends checkout events to an SNS topic as JSON.
type SNSPublisher struct {
	client   awspkg.SNSPublisher
	topicARN string
}

func NewSNSPublisher(client awspkg.SNSPublisher, topicARN string) *SNSPublisher {
	return &SNSPublisher{client: client, topicARN: topicARN}
}

func (p *SNSPublisher) PublishCheckout(ctx context.Context, event models.CheckoutEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	err = p.client.Publish(ctx, awspkg.SNSMessage{
		TopicARN:  p.topicARN,
		EventType: event.Event,
		GroupID:   event.SessionID,
		Body:      data,
	})
	if err != nil {
		return fmt.Errorf("sns publish: %w", err)
	}
	return nil
}

// QueueSender enqueues one message.
type QueueSender interface {
	Send(ctx context.Context, body []byte) error
}

// SQSPublisher sends checkout events to an SQS queue as JSON.
type SQSPublisher struct {
	queue QueueSender
}

func NewSQSPublisher(queue QueueSender) *SQSPublisher {
	return &SQSPublisher{queue: queue}
}

func (p *SQSPublisher) PublishCheckout(ctx context.Context, event models.CheckoutEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return p.queue.Send(ctx, data)
}

package aws

import (
	"context"
	"errors"
	"fmt"
	"strings"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSMessage is one notification. EventType becomes the "event" message
// attribute so subscribers can filter on it. GroupID orders messages on
// FIFO topics (which must have content-based deduplication enabled) and
// is ignored on standard topics.
type SNSMessage struct {
	TopicARN  string
	EventType string
	GroupID   string
	Body      []byte
}

// SNSPublisher publishes notifications.
type SNSPublisher interface {
	Publish(ctx context.Context, msg SNSMessage) error
}

// SNSAPI is the subset of the SNS client used here.
type SNSAPI interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type SNSClient struct {
	api SNSAPI
}

func NewSNSClient(cfg sdkaws.Config) *SNSClient {
	return NewSNSClientWithAPI(sns.NewFromConfig(cfg))
}

func NewSNSClientWithAPI(api SNSAPI) *SNSClient {
	return &SNSClient{api: api}
}

func (s *SNSClient) Publish(ctx context.Context, msg SNSMessage) error {
	if msg.TopicARN == "" {
		return errors.New("sns: empty topic ARN")
	}

	in := &sns.PublishInput{
		TopicArn: sdkaws.String(msg.TopicARN),
		Message:  sdkaws.String(string(msg.Body)),
	}
	if msg.EventType != "" {
		in.MessageAttributes = map[string]types.MessageAttributeValue{
			"event": {DataType: sdkaws.String("String"), StringValue: sdkaws.String(msg.EventType)},
		}
	}
	if strings.HasSuffix(msg.TopicARN, ".fifo") && msg.GroupID != "" {
		in.MessageGroupId = sdkaws.String(msg.GroupID)
	}

	if _, err := s.api.Publish(ctx, in); err != nil {
		return fmt.Errorf("sns publish to %s: %w", msg.TopicARN, err)
	}
	return nil
}

package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"straphub-service/models"
	awspkg "straphub-service/pkg/aws"
)

type fakeSNS struct {
	msg awspkg.SNSMessage
	err error
}

func (f *fakeSNS) Publish(_ context.Context, msg awspkg.SNSMessage) error {
	f.msg = msg
	return f.err
}

func TestSNSPublisher(t *testing.T) {
	sns := &fakeSNS{}
	p := NewSNSPublisher(sns, "arn:aws:sns:eu-west-2:123:checkout")

	err := p.PublishCheckout(context.Background(), models.CheckoutEvent{Event: "checkout.session_created", SessionID: "s1"})
	require.NoError(t, err)
	assert.Equal(t, "arn:aws:sns:eu-west-2:123:checkout", sns.msg.TopicARN)
	assert.Equal(t, "checkout.session_created", sns.msg.EventType)
	assert.Equal(t, "s1", sns.msg.GroupID)

	var got map[string]any
	require.NoError(t, json.Unmarshal(sns.msg.Body, &got))
	assert.Equal(t, "s1", got["session_id"])
}

func TestSNSPublisher_Error(t *testing.T) {
	cause := errors.New("throttled")
	p := NewSNSPublisher(&fakeSNS{err: cause}, "arn")
	assert.ErrorIs(t, p.PublishCheckout(context.Background(), models.CheckoutEvent{}), cause)
}

type fakeQueue struct{ bodies [][]byte }

func (f *fakeQueue) Send(_ context.Context, body []byte) error {
	f.bodies = append(f.bodies, body)
	return nil
}

func TestSQSPublisher(t *testing.T) {
	q := &fakeQueue{}
	p := NewSQSPublisher(q)

	lines := []models.CheckoutLine{{VariantID: "A", Quantity: 2}}
	require.NoError(t, p.PublishCheckout(context.Background(), models.CheckoutEvent{SessionID: "s1", Lines: lines}))
	require.Len(t, q.bodies, 1)

	var got models.CheckoutEvent
	require.NoError(t, json.Unmarshal(q.bodies[0], &got))
	assert.Equal(t, lines, got.Lines)
}

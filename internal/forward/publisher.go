// Package forward publishes best-effort copies of inbound mail toward the
// fallback mailbox relay.
package forward

import (
	"context"
	"encoding/json"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// Publisher publishes fallback-forward requests to an async queue.
type Publisher interface {
	PublishForward(ctx context.Context, fallbackAddress string, raw []byte) error
}

// SQSSender abstracts SQS send operations for dependency inversion.
type SQSSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// Message is the forward request placed on the queue. RawContent is the
// unmodified RFC 5322 message, so the fallback mailbox receives the
// original even when the chat notification had to truncate.
type Message struct {
	FallbackAddress string `json:"fallbackAddress"`
	RawContent      []byte `json:"rawContent"`
}

// SQSPublisher publishes forward requests to an SQS queue.
type SQSPublisher struct {
	client   SQSSender
	queueURL string
}

// NewSQSPublisher creates a new SQSPublisher.
func NewSQSPublisher(client SQSSender, queueURL string) *SQSPublisher {
	return &SQSPublisher{
		client:   client,
		queueURL: queueURL,
	}
}

// PublishForward sends a forward request to SQS.
func (p *SQSPublisher) PublishForward(ctx context.Context, fallbackAddress string, raw []byte) error {
	msg := Message{
		FallbackAddress: fallbackAddress,
		RawContent:      raw,
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	bodyStr := string(body)
	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &p.queueURL,
		MessageBody: &bodyStr,
	})
	return err
}

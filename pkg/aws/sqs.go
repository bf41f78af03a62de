package aws

import (
	"context"
	"fmt"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
)

// SQSClient sends to and long-polls one queue.
type SQSClient struct {
	client            *sqs.Client
	queueURL          string
	visibilityTimeout int32
}

// NewSQSClient creates a client for queueURL. visibilityTimeout (seconds) should
// exceed the time needed to process one message.
func NewSQSClient(cfg sdkaws.Config, queueURL string, visibilityTimeout int32) *SQSClient {
	return &SQSClient{
		client:            sqs.NewFromConfig(cfg),
		queueURL:          queueURL,
		visibilityTimeout: visibilityTimeout,
	}
}

// Message is a received message and the handle needed to delete it.
type Message struct {
	Body          string
	ReceiptHandle string
}

// Receive long-polls for at most one message. It returns nil when the wait elapses empty.
func (c *SQSClient) Receive(ctx context.Context) (*Message, error) {
	result, err := c.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            &c.queueURL,
		MaxNumberOfMessages: 1,
		WaitTimeSeconds:     20,
		VisibilityTimeout:   c.visibilityTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to receive messages: %w", err)
	}
	for _, msg := range result.Messages {
		if msg.Body == nil || msg.ReceiptHandle == nil {
			continue
		}
		return &Message{Body: *msg.Body, ReceiptHandle: *msg.ReceiptHandle}, nil
	}
	return nil, nil
}

func (c *SQSClient) Delete(ctx context.Context, receiptHandle string) error {
	_, err := c.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      &c.queueURL,
		ReceiptHandle: sdkaws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

func (c *SQSClient) SendMessage(ctx context.Context, body string) error {
	_, err := c.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    &c.queueURL,
		MessageBody: &body,
	})
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

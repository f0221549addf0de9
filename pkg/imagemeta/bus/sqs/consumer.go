// Package sqs provides a long-polling queue consumer with an explicit
// redrive policy, used by the standalone worker where no managed event
// source mapping exists.
package sqs

import (
	"context"
	"log/slog"
	"strconv"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/google/uuid"

	"github.com/imageflow/imagemeta/pkg/imagemeta"
)

// Client is the subset of the SQS API the consumer uses.
type Client interface {
	ReceiveMessage(ctx context.Context, input *awssqs.ReceiveMessageInput, opts ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, input *awssqs.DeleteMessageInput, opts ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error)
	SendMessage(ctx context.Context, input *awssqs.SendMessageInput, opts ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error)
}

// Handler processes one message body. A nil return acknowledges the message;
// a retryable error leaves it for redelivery under the consumer's budget.
type Handler func(ctx context.Context, body []byte) error

// Consumer long-polls one queue and applies the per-consumer retry and
// dead-letter policy: a message whose receive count has reached the budget
// when it fails again is moved to the dead-letter queue instead of being
// released for another redelivery. Backoff between attempts is the
// transport's visibility timeout, not the consumer's concern.
type Consumer struct {
	client        Client
	queueURL      string
	deadLetterURL string
	handler       Handler
	maxReceive    int32
	batchSize     int32
	waitSeconds   int32
	logger        *slog.Logger
}

// ConsumerOption represents a functional option for configuring a consumer
type ConsumerOption func(*Consumer)

// WithDeadLetterQueue sets the terminal queue for messages that exhaust the
// retry budget. Without it, failing messages are released for redelivery
// indefinitely (the transport's own redrive policy is assumed to apply).
func WithDeadLetterQueue(url string) ConsumerOption {
	return func(c *Consumer) {
		c.deadLetterURL = url
	}
}

// WithMaxReceive sets the redelivery budget (default 3)
func WithMaxReceive(n int32) ConsumerOption {
	return func(c *Consumer) {
		c.maxReceive = n
	}
}

// WithBatchSize sets the receive batch size (default 5)
func WithBatchSize(n int32) ConsumerOption {
	return func(c *Consumer) {
		c.batchSize = n
	}
}

// WithWaitSeconds sets the long-poll wait (default 10)
func WithWaitSeconds(n int32) ConsumerOption {
	return func(c *Consumer) {
		c.waitSeconds = n
	}
}

// WithLogger sets the consumer logger
func WithLogger(logger *slog.Logger) ConsumerOption {
	return func(c *Consumer) {
		c.logger = logger
	}
}

// NewConsumer creates a consumer for queueURL that feeds each message body
// to handler.
func NewConsumer(client Client, queueURL string, handler Handler, options ...ConsumerOption) *Consumer {
	c := &Consumer{
		client:      client,
		queueURL:    queueURL,
		handler:     handler,
		maxReceive:  3,
		batchSize:   5,
		waitSeconds: 10,
		logger:      slog.Default(),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// Run polls until ctx is cancelled. Receive errors are logged and polling
// continues; only context cancellation stops the loop.
func (c *Consumer) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		out, err := c.client.ReceiveMessage(ctx, &awssqs.ReceiveMessageInput{
			QueueUrl:              aws.String(c.queueURL),
			MaxNumberOfMessages:   c.batchSize,
			WaitTimeSeconds:       c.waitSeconds,
			MessageSystemAttributeNames: []types.MessageSystemAttributeName{
				types.MessageSystemAttributeNameApproximateReceiveCount,
			},
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			c.logger.Error("receive failed", "queue", c.queueURL, "error", err)
			continue
		}

		for _, msg := range out.Messages {
			c.process(ctx, msg)
		}
	}
}

// process handles one delivery. Messages are independent: a failure here
// never affects the rest of the batch.
func (c *Consumer) process(ctx context.Context, msg types.Message) {
	err := c.handler(ctx, []byte(aws.ToString(msg.Body)))
	if err == nil {
		c.ack(ctx, msg)
		return
	}

	receiveCount := receiveCount(msg)
	c.logger.Error("message processing failed",
		"queue", c.queueURL, "receive_count", receiveCount, "error", err)

	if !imagemeta.Retryable(err) {
		// Terminal-local failure: acknowledge so the transport does not
		// redeliver something a retry cannot fix.
		c.ack(ctx, msg)
		return
	}

	if c.deadLetterURL != "" && receiveCount >= c.maxReceive {
		c.deadLetter(ctx, msg)
		return
	}
	// Leave the message; visibility timeout expiry redelivers it.
}

func (c *Consumer) ack(ctx context.Context, msg types.Message) {
	_, err := c.client.DeleteMessage(ctx, &awssqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: msg.ReceiptHandle,
	})
	if err != nil {
		c.logger.Error("delete failed", "queue", c.queueURL, "error", err)
	}
}

// deadLetter durably preserves the message on the failure queue before
// removing it from the source queue. Order matters: losing the message is
// worse than seeing it twice.
func (c *Consumer) deadLetter(ctx context.Context, msg types.Message) {
	failureID := uuid.NewString()
	_, err := c.client.SendMessage(ctx, &awssqs.SendMessageInput{
		QueueUrl:    aws.String(c.deadLetterURL),
		MessageBody: msg.Body,
		MessageAttributes: map[string]types.MessageAttributeValue{
			"FailureID": {
				DataType:    aws.String("String"),
				StringValue: aws.String(failureID),
			},
		},
	})
	if err != nil {
		c.logger.Error("dead-letter send failed", "queue", c.deadLetterURL, "error", err)
		return
	}
	c.ack(ctx, msg)
	c.logger.Warn("message moved to dead-letter queue", "queue", c.deadLetterURL, "failure_id", failureID)
}

func receiveCount(msg types.Message) int32 {
	v, ok := msg.Attributes[string(types.MessageSystemAttributeNameApproximateReceiveCount)]
	if !ok {
		return 1
	}
	n, err := strconv.ParseInt(v, 10, 32)
	if err != nil {
		return 1
	}
	return int32(n)
}

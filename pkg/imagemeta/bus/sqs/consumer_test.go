package sqs_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awssqs "github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imageflow/imagemeta/pkg/imagemeta"
	"github.com/imageflow/imagemeta/pkg/imagemeta/bus/sqs"
	objectmemory "github.com/imageflow/imagemeta/pkg/imagemeta/objectstore/memory"
	storememory "github.com/imageflow/imagemeta/pkg/imagemeta/store/memory"
)

// fakeClient serves one canned batch, then cancels the poll loop so Run
// returns. It records deletes and dead-letter sends.
type fakeClient struct {
	mu       sync.Mutex
	messages []types.Message
	served   bool
	cancel   context.CancelFunc

	deleted []string
	sent    []awssqs.SendMessageInput
}

func (f *fakeClient) ReceiveMessage(ctx context.Context, input *awssqs.ReceiveMessageInput, _ ...func(*awssqs.Options)) (*awssqs.ReceiveMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.served {
		f.cancel()
		return &awssqs.ReceiveMessageOutput{}, nil
	}
	f.served = true
	return &awssqs.ReceiveMessageOutput{Messages: f.messages}, nil
}

func (f *fakeClient) DeleteMessage(ctx context.Context, input *awssqs.DeleteMessageInput, _ ...func(*awssqs.Options)) (*awssqs.DeleteMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, aws.ToString(input.ReceiptHandle))
	return &awssqs.DeleteMessageOutput{}, nil
}

func (f *fakeClient) SendMessage(ctx context.Context, input *awssqs.SendMessageInput, _ ...func(*awssqs.Options)) (*awssqs.SendMessageOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, *input)
	return &awssqs.SendMessageOutput{}, nil
}

func message(body, handle, receiveCount string) types.Message {
	return types.Message{
		Body:          aws.String(body),
		ReceiptHandle: aws.String(handle),
		Attributes: map[string]string{
			string(types.MessageSystemAttributeNameApproximateReceiveCount): receiveCount,
		},
	}
}

func runConsumer(t *testing.T, client *fakeClient, handler sqs.Handler, options ...sqs.ConsumerOption) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	client.cancel = cancel

	consumer := sqs.NewConsumer(client, "https://queue/main", handler, options...)
	err := consumer.Run(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestConsumerAcksSuccess(t *testing.T) {
	client := &fakeClient{messages: []types.Message{message("ok", "h1", "1")}}

	runConsumer(t, client, func(ctx context.Context, body []byte) error { return nil },
		sqs.WithDeadLetterQueue("https://queue/dlq"))

	assert.Equal(t, []string{"h1"}, client.deleted)
	assert.Empty(t, client.sent)
}

func TestConsumerLeavesFailureUnderBudget(t *testing.T) {
	client := &fakeClient{messages: []types.Message{message("bad", "h1", "2")}}

	runConsumer(t, client, func(ctx context.Context, body []byte) error { return errors.New("boom") },
		sqs.WithDeadLetterQueue("https://queue/dlq"), sqs.WithMaxReceive(3))

	// Not deleted and not dead-lettered: the transport redelivers it.
	assert.Empty(t, client.deleted)
	assert.Empty(t, client.sent)
}

func TestConsumerDeadLettersAtBudget(t *testing.T) {
	client := &fakeClient{messages: []types.Message{message("bad", "h1", "3")}}

	runConsumer(t, client, func(ctx context.Context, body []byte) error { return errors.New("boom") },
		sqs.WithDeadLetterQueue("https://queue/dlq"), sqs.WithMaxReceive(3))

	require.Len(t, client.sent, 1)
	assert.Equal(t, "https://queue/dlq", aws.ToString(client.sent[0].QueueUrl))
	assert.Equal(t, "bad", aws.ToString(client.sent[0].MessageBody))
	// Durably preserved, then removed from the source queue.
	assert.Equal(t, []string{"h1"}, client.deleted)
}

func TestConsumerAcksTerminalLocalFailure(t *testing.T) {
	client := &fakeClient{messages: []types.Message{message("gone", "h1", "1")}}

	runConsumer(t, client, func(ctx context.Context, body []byte) error { return imagemeta.ErrRecordNotFound },
		sqs.WithDeadLetterQueue("https://queue/dlq"))

	assert.Equal(t, []string{"h1"}, client.deleted)
	assert.Empty(t, client.sent)
}

func TestConsumerProcessesBatchIndependently(t *testing.T) {
	client := &fakeClient{messages: []types.Message{
		message("bad", "h1", "3"),
		message("ok", "h2", "1"),
	}}

	runConsumer(t, client, func(ctx context.Context, body []byte) error {
		if string(body) == "bad" {
			return errors.New("boom")
		}
		return nil
	}, sqs.WithDeadLetterQueue("https://queue/dlq"), sqs.WithMaxReceive(3))

	// The failing sibling is dead-lettered; the healthy one is acked.
	require.Len(t, client.sent, 1)
	assert.ElementsMatch(t, []string{"h1", "h2"}, client.deleted)
}

// End-to-end shape of the rejection path: a creation event for a disallowed
// file type fails ingestion, and on its final allowed receive the envelope
// lands on the dead-letter queue intact.
func TestInvalidFileTypeReachesDeadLetter(t *testing.T) {
	svc, err := imagemeta.New(
		imagemeta.WithRecordStore(storememory.New()),
		imagemeta.WithObjectStore(objectmemory.New()),
	)
	require.NoError(t, err)

	inner, err := json.Marshal(map[string]interface{}{
		"Records": []map[string]interface{}{{
			"eventName": "ObjectCreated:Put",
			"s3": map[string]interface{}{
				"bucket": map[string]interface{}{"name": "images"},
				"object": map[string]interface{}{"key": "notes.pdf"},
			},
		}},
	})
	require.NoError(t, err)
	outer, err := json.Marshal(map[string]interface{}{"Type": "Notification", "Message": string(inner)})
	require.NoError(t, err)

	client := &fakeClient{messages: []types.Message{message(string(outer), "h1", "3")}}

	runConsumer(t, client, svc.HandleStoreEvent,
		sqs.WithDeadLetterQueue("https://queue/dlq"), sqs.WithMaxReceive(3))

	require.Len(t, client.sent, 1)
	assert.Equal(t, string(outer), aws.ToString(client.sent[0].MessageBody))
	assert.Equal(t, []string{"h1"}, client.deleted)
}

// Package handler adapts the pipeline service to Lambda event payloads.
//
// Each adapter is the body of one Lambda function. Errors returned from an
// adapter fail the invocation, which is what hands the message back to the
// transport for redelivery under the queue's redrive policy.
package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/aws/aws-lambda-go/events"

	"github.com/imageflow/imagemeta/pkg/imagemeta"
)

// ProcessImage returns the handler for the ingestion queue: each queue
// record body is one nested store-event envelope.
func ProcessImage(svc imagemeta.Service) func(ctx context.Context, event events.SQSEvent) error {
	return func(ctx context.Context, event events.SQSEvent) error {
		for _, record := range event.Records {
			if err := svc.HandleStoreEvent(ctx, []byte(record.Body)); err != nil {
				return err
			}
		}
		return nil
	}
}

// Mailer returns the handler for the mailer queue, which receives the same
// fan-out envelopes and sends one success notification per creation.
func Mailer(svc imagemeta.Service) func(ctx context.Context, event events.SQSEvent) error {
	return func(ctx context.Context, event events.SQSEvent) error {
		for _, record := range event.Records {
			if err := svc.HandleMailEvent(ctx, []byte(record.Body)); err != nil {
				return err
			}
		}
		return nil
	}
}

// RejectionMailer returns the handler for the dead-letter queue. Each
// message there exhausted its retry budget upstream; the handler recovers
// the offending key and a failure summary and dispatches the rejection
// notification.
func RejectionMailer(svc imagemeta.Service, extensions []string, logger *slog.Logger) func(ctx context.Context, event events.SQSEvent) error {
	body := Rejection(svc, extensions, logger)
	return func(ctx context.Context, event events.SQSEvent) error {
		for _, record := range event.Records {
			if err := body(ctx, []byte(record.Body)); err != nil {
				return err
			}
		}
		return nil
	}
}

// Rejection returns the per-message-body rejection handler, shared between
// the Lambda adapter above and the standalone worker's queue consumer.
func Rejection(svc imagemeta.Service, extensions []string, logger *slog.Logger) func(ctx context.Context, body []byte) error {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, body []byte) error {
		key, reason := summarizeFailure(body, extensions)
		if key == "" {
			// Nothing object-shaped to report on; the message is still
			// consumed so the failure queue drains.
			logger.Warn("dead-letter message carries no object records")
			return nil
		}
		return svc.NotifyRejected(ctx, key, reason)
	}
}

// summarizeFailure re-runs the cheap classification steps against a
// dead-lettered envelope to name the key and a probable cause. The original
// failure is not serialized with the message, so validation is re-derived;
// anything else reports as a generic processing failure.
func summarizeFailure(body []byte, extensions []string) (key, reason string) {
	records, err := imagemeta.NormalizeMessage(body)
	if err != nil || len(records) == 0 {
		return "", ""
	}

	rec := records[0]
	event, err := imagemeta.Classify(rec)
	if err != nil || event == nil {
		return rec.Key, "the event could not be processed"
	}

	if _, err := imagemeta.ValidateExtension(event.Key, extensions); err != nil {
		return event.Key, err.Error()
	}
	return event.Key, "processing failed after repeated attempts"
}

// updateBody is the wire shape of an enrichment instruction.
type updateBody struct {
	ID    string `json:"id"`
	Value string `json:"value"`
}

// UpdateTable returns the handler for the enrichment notification channel.
// The target field travels as the metadata_type message attribute; the body
// carries the record id and the value.
func UpdateTable(svc imagemeta.Service) func(ctx context.Context, event events.SNSEvent) error {
	return func(ctx context.Context, event events.SNSEvent) error {
		for _, record := range event.Records {
			var body updateBody
			if err := json.Unmarshal([]byte(record.SNS.Message), &body); err != nil {
				return fmt.Errorf("%w: update message: %v", imagemeta.ErrMalformedEvent, err)
			}

			msg := imagemeta.MetadataUpdateMessage{
				ImageName: body.ID,
				Field:     imagemeta.MetadataField(attributeValue(record.SNS.MessageAttributes, "metadata_type")),
				Value:     body.Value,
			}
			if err := svc.ApplyUpdate(ctx, msg); err != nil {
				return err
			}
		}
		return nil
	}
}

// attributeValue digs the string value out of an SNS message attribute,
// which arrives as {"Type": "String", "Value": "..."}.
func attributeValue(attributes map[string]interface{}, name string) string {
	attr, ok := attributes[name].(map[string]interface{})
	if !ok {
		return ""
	}
	value, _ := attr["Value"].(string)
	return value
}

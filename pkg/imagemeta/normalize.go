package imagemeta

import (
	"encoding/json"
	"fmt"
)

// RawObjectRecord is one store-level event record, unwrapped from its
// transport envelopes but not yet classified or decoded.
type RawObjectRecord struct {
	Bucket    string
	Key       string
	EventName string
}

// notificationEnvelope is the outer delivery wrapper: the queue message body
// carries the bus notification, whose Message field is itself a JSON document.
type notificationEnvelope struct {
	Type      string `json:"Type"`
	MessageID string `json:"MessageId"`
	TopicArn  string `json:"TopicArn"`
	Message   string `json:"Message"`
}

// storeEvent is the inner payload: the content store's own event document.
type storeEvent struct {
	Records []storeEventRecord `json:"Records"`
}

type storeEventRecord struct {
	EventSource string         `json:"eventSource"`
	EventName   string         `json:"eventName"`
	S3          storeEventData `json:"s3"`
}

type storeEventData struct {
	Bucket struct {
		Name string `json:"name"`
	} `json:"bucket"`
	Object struct {
		Key  string `json:"key"`
		Size int64  `json:"size"`
	} `json:"object"`
}

// NormalizeMessage unwraps one transport message body into its store-level
// event records, preserving record order. A body whose outer or inner layer
// is not parseable JSON fails with ErrMalformedEvent; a parseable payload
// with no Records yields an empty slice (the bus emits such messages, e.g.
// subscription test events, and they carry no object events).
func NormalizeMessage(body []byte) ([]RawObjectRecord, error) {
	var envelope notificationEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("%w: outer envelope: %v", ErrMalformedEvent, err)
	}

	var event storeEvent
	if err := json.Unmarshal([]byte(envelope.Message), &event); err != nil {
		return nil, fmt.Errorf("%w: inner payload: %v", ErrMalformedEvent, err)
	}

	records := make([]RawObjectRecord, 0, len(event.Records))
	for _, rec := range event.Records {
		records = append(records, RawObjectRecord{
			Bucket:    rec.S3.Bucket.Name,
			Key:       rec.S3.Object.Key,
			EventName: rec.EventName,
		})
	}
	return records, nil
}

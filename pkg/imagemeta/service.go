package imagemeta

import (
	"context"
	"log/slog"
)

// Service defines the main interface for the image metadata pipeline.
//
// HandleStoreEvent and HandleMailEvent are the per-message entry points for
// the two consumers fed from the lifecycle fan-out; ApplyUpdate is the entry
// point for the enrichment channel. Errors returned from any of them are
// "fatal for that message": the caller leaves the message for redelivery
// under the transport's retry budget.
type Service interface {
	// HandleStoreEvent processes one transport message from the ingestion
	// queue: normalize, classify, then ingest or remove per record.
	HandleStoreEvent(ctx context.Context, body []byte) error

	// HandleMailEvent processes one transport message from the mailer queue,
	// sending one success notification per creation record.
	HandleMailEvent(ctx context.Context, body []byte) error

	// Ingest validates a creation event, fetches the object's byte size from
	// the content store, and upserts its metadata record.
	Ingest(ctx context.Context, event ObjectEvent) error

	// Remove deletes the metadata record for imageName. Removing an absent
	// record succeeds.
	Remove(ctx context.Context, imageName string) error

	// ApplyUpdate applies one enrichment field update. Unrecognized fields
	// and absent records are absorbed locally; neither returns an error.
	ApplyUpdate(ctx context.Context, msg MetadataUpdateMessage) error

	// NotifyRejected sends a rejection notification naming the offending key
	// and a summary of why processing failed.
	NotifyRejected(ctx context.Context, key, reason string) error

	// GetRecord returns the metadata record for imageName, or
	// ErrRecordNotFound.
	GetRecord(ctx context.Context, imageName string) (*ImageRecord, error)
}

// Option represents a functional option for configuring the service
type Option func(*service)

// WithRecordStore sets the record store for the service
func WithRecordStore(store RecordStore) Option {
	return func(s *service) {
		s.records = store
	}
}

// WithObjectStore sets the content store the pipeline fetches objects from
func WithObjectStore(store ObjectStore) Option {
	return func(s *service) {
		s.objects = store
	}
}

// WithNotifier sets the notification transport
func WithNotifier(n Notifier) Option {
	return func(s *service) {
		s.notifier = n
	}
}

// WithExtensions overrides the allowed-extension policy
func WithExtensions(extensions []string) Option {
	return func(s *service) {
		s.extensions = extensions
	}
}

// WithRecipients sets the notification recipient addresses
func WithRecipients(recipients []string) Option {
	return func(s *service) {
		s.recipients = recipients
	}
}

// WithLogger sets the logger used for absorbed failures and progress lines
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) {
		s.logger = logger
	}
}

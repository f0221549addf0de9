package imagemeta

import (
	"context"
	"io"
)

// ObjectStore defines the interface for the content store holding the
// objects whose lifecycle events drive the pipeline.
type ObjectStore interface {
	// GetObject returns the object body for streaming. The caller owns the
	// returned reader and must close it.
	GetObject(ctx context.Context, bucket, key string) (io.ReadCloser, error)
}

// RecordStore defines the interface for durable ImageRecord persistence.
//
// All three mutations are contracts the pipeline's correctness rests on:
// Put only touches the fields ingestion owns, UpdateField requires the record
// to exist, and Delete of an absent record succeeds.
type RecordStore interface {
	// Put upserts the record keyed by ImageName, writing only FileSize and
	// FileExtension. Enrichment fields present from a prior run are left
	// untouched. Re-putting identical values is a no-op.
	Put(ctx context.Context, record ImageRecord) error

	// Get returns the record for imageName, or ErrRecordNotFound.
	Get(ctx context.Context, imageName string) (*ImageRecord, error)

	// UpdateField sets exactly one enrichment field on an existing record.
	// Returns ErrRecordNotFound when no record exists for imageName.
	UpdateField(ctx context.Context, imageName string, field MetadataField, value string) error

	// Delete removes the record if present. Deleting an absent record is a
	// silent no-op.
	Delete(ctx context.Context, imageName string) error
}

// Notifier defines the interface for the notification transport used by the
// success and rejection mail paths.
type Notifier interface {
	// Publish sends one HTML notification to the given recipients. A
	// transport failure is returned, never swallowed.
	Publish(ctx context.Context, subject, htmlBody string, recipients []string) error
}

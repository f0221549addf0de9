package imagemeta

import (
	"context"
	"fmt"
	"io"
	"log/slog"
)

// service implements the Service interface
type service struct {
	records    RecordStore
	objects    ObjectStore
	notifier   Notifier
	extensions []string
	recipients []string
	logger     *slog.Logger
}

// New creates a new pipeline service with the given options. A record store
// is required; the object store and notifier are required only by the
// operations that use them.
func New(options ...Option) (Service, error) {
	s := &service{
		extensions: DefaultExtensions,
		logger:     slog.Default(),
	}

	for _, option := range options {
		option(s)
	}

	if s.records == nil {
		return nil, fmt.Errorf("record store is required")
	}

	return s, nil
}

func (s *service) HandleStoreEvent(ctx context.Context, body []byte) error {
	records, err := NormalizeMessage(body)
	if err != nil {
		return err
	}

	for _, rec := range records {
		event, err := Classify(rec)
		if err != nil {
			return err
		}
		if event == nil {
			s.logger.Info("skipping unhandled event", "event_name", rec.EventName, "key", rec.Key)
			continue
		}

		switch event.Kind {
		case EventKindCreated:
			if err := s.Ingest(ctx, *event); err != nil {
				return err
			}
		case EventKindRemoved:
			if err := s.Remove(ctx, event.Key); err != nil {
				return err
			}
		}
	}
	return nil
}

func (s *service) HandleMailEvent(ctx context.Context, body []byte) error {
	records, err := NormalizeMessage(body)
	if err != nil {
		return err
	}

	for _, rec := range records {
		event, err := Classify(rec)
		if err != nil {
			return err
		}
		if event == nil || event.Kind != EventKindCreated {
			continue
		}

		subject, html := successMail(event.Bucket, event.Key)
		if err := s.publish(ctx, subject, html); err != nil {
			return &EventError{Key: event.Key, Op: "notify_ingested", Err: err}
		}
		s.logger.Info("sent ingestion notification", "bucket", event.Bucket, "key", event.Key)
	}
	return nil
}

func (s *service) Ingest(ctx context.Context, event ObjectEvent) error {
	ext, err := ValidateExtension(event.Key, s.extensions)
	if err != nil {
		return err
	}

	size, err := s.fetchSize(ctx, event.Bucket, event.Key)
	if err != nil {
		return &EventError{Key: event.Key, Op: "fetch", Err: err}
	}

	record := ImageRecord{
		ImageName:     event.Key,
		FileSize:      size,
		FileExtension: ext,
	}
	if err := s.records.Put(ctx, record); err != nil {
		return &EventError{Key: event.Key, Op: "ingest", Err: err}
	}

	s.logger.Info("ingested image metadata", "key", event.Key, "size", size, "extension", ext)
	return nil
}

func (s *service) Remove(ctx context.Context, imageName string) error {
	if err := s.records.Delete(ctx, imageName); err != nil {
		return &EventError{Key: imageName, Op: "remove", Err: err}
	}
	s.logger.Info("removed image metadata", "key", imageName)
	return nil
}

func (s *service) ApplyUpdate(ctx context.Context, msg MetadataUpdateMessage) error {
	if !msg.Field.Valid() {
		// Contract: unrecognized field names produce no store call and no
		// error to the caller.
		s.logger.Warn("skipping update with unrecognized field", "key", msg.ImageName, "field", string(msg.Field))
		return nil
	}

	err := s.records.UpdateField(ctx, msg.ImageName, msg.Field, msg.Value)
	if err != nil {
		if !Retryable(err) {
			// Best effort: an update for a record that does not exist is
			// logged and absorbed, never redelivered.
			s.logger.Warn("update targets missing record", "key", msg.ImageName, "field", string(msg.Field))
			return nil
		}
		return &EventError{Key: msg.ImageName, Op: "update", Err: err}
	}

	s.logger.Info("applied metadata update", "key", msg.ImageName, "field", string(msg.Field))
	return nil
}

func (s *service) NotifyRejected(ctx context.Context, key, reason string) error {
	subject, html := rejectionMail(key, reason)
	if err := s.publish(ctx, subject, html); err != nil {
		return &EventError{Key: key, Op: "notify_rejected", Err: err}
	}
	s.logger.Info("sent rejection notification", "key", key, "reason", reason)
	return nil
}

func (s *service) GetRecord(ctx context.Context, imageName string) (*ImageRecord, error) {
	return s.records.Get(ctx, imageName)
}

// fetchSize streams the object body and accumulates its length. Any failure
// to open or drain the stream reports as ErrFetchFailed.
func (s *service) fetchSize(ctx context.Context, bucket, key string) (int64, error) {
	if s.objects == nil {
		return 0, fmt.Errorf("object store is not configured")
	}

	body, err := s.objects.GetObject(ctx, bucket, key)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrFetchFailed, err)
	}
	defer body.Close()

	size, err := io.Copy(io.Discard, body)
	if err != nil {
		return 0, fmt.Errorf("%w: reading body: %v", ErrFetchFailed, err)
	}
	return size, nil
}

func (s *service) publish(ctx context.Context, subject, html string) error {
	if s.notifier == nil {
		return fmt.Errorf("notifier is not configured")
	}
	if err := s.notifier.Publish(ctx, subject, html, s.recipients); err != nil {
		return fmt.Errorf("%w: %v", ErrDispatchFailed, err)
	}
	return nil
}

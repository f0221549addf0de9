// Package memory provides an in-memory RecordStore. It honors the same
// operation contracts as the durable backends and is the default for tests
// and local runs.
package memory

import (
	"context"
	"sync"

	"github.com/imageflow/imagemeta/pkg/imagemeta"
)

// Store implements imagemeta.RecordStore using an in-memory map
type Store struct {
	mu      sync.RWMutex
	records map[string]*imagemeta.ImageRecord
}

// New creates a new in-memory record store
func New() *Store {
	return &Store{
		records: make(map[string]*imagemeta.ImageRecord),
	}
}

func (s *Store) Put(ctx context.Context, record imagemeta.ImageRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.ImageName]; ok {
		// Only the owned fields are overwritten; enrichment fields from a
		// prior run survive re-ingestion.
		existing.FileSize = record.FileSize
		existing.FileExtension = record.FileExtension
		return nil
	}

	recordCopy := record
	s.records[record.ImageName] = &recordCopy
	return nil
}

func (s *Store) Get(ctx context.Context, imageName string) (*imagemeta.ImageRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, ok := s.records[imageName]
	if !ok {
		return nil, imagemeta.ErrRecordNotFound
	}
	recordCopy := *record
	return &recordCopy, nil
}

func (s *Store) UpdateField(ctx context.Context, imageName string, field imagemeta.MetadataField, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[imageName]
	if !ok {
		return imagemeta.ErrRecordNotFound
	}

	switch field {
	case imagemeta.FieldDate:
		record.Date = value
	case imagemeta.FieldCaption:
		record.Caption = value
	case imagemeta.FieldPhotographer:
		record.Photographer = value
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, imageName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.records, imageName)
	return nil
}

// Len returns the number of stored records. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Package postgres provides a RecordStore backed by a Postgres table, for
// deployments that keep metadata next to an existing relational database
// instead of DynamoDB.
package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imageflow/imagemeta/pkg/imagemeta"
)

// DBTX is an interface that allows us to use either a database connection or a transaction
type DBTX interface {
	Exec(context.Context, string, ...interface{}) (pgconn.CommandTag, error)
	QueryRow(context.Context, string, ...interface{}) pgx.Row
}

// Store implements imagemeta.RecordStore using PostgreSQL
type Store struct {
	db DBTX
}

// New creates a new PostgreSQL record store
func New(db DBTX) *Store {
	return &Store{db: db}
}

// NewWithPool creates a new PostgreSQL record store with a connection pool
func NewWithPool(pool *pgxpool.Pool) *Store {
	return &Store{db: pool}
}

// columnFor maps an enrichment field to its column. "date" is quoted in the
// statements below since it collides with the SQL type name.
func columnFor(field imagemeta.MetadataField) (string, error) {
	switch field {
	case imagemeta.FieldDate:
		return `"date"`, nil
	case imagemeta.FieldCaption:
		return "caption", nil
	case imagemeta.FieldPhotographer:
		return "photographer", nil
	}
	return "", fmt.Errorf("unrecognized metadata field: %s", field)
}

func (s *Store) Put(ctx context.Context, record imagemeta.ImageRecord) error {
	query := `
		INSERT INTO image_records (image_name, file_size, file_extension)
		VALUES ($1, $2, $3)
		ON CONFLICT (image_name)
		DO UPDATE SET file_size = EXCLUDED.file_size, file_extension = EXCLUDED.file_extension`

	_, err := s.db.Exec(ctx, query, record.ImageName, record.FileSize, record.FileExtension)
	if err != nil {
		return &imagemeta.StoreError{Store: "postgres", Key: record.ImageName, Op: "put", Err: err}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, imageName string) (*imagemeta.ImageRecord, error) {
	query := `
		SELECT image_name, file_size, file_extension,
		       COALESCE("date", ''), COALESCE(caption, ''), COALESCE(photographer, '')
		FROM image_records
		WHERE image_name = $1`

	var record imagemeta.ImageRecord
	err := s.db.QueryRow(ctx, query, imageName).Scan(
		&record.ImageName,
		&record.FileSize,
		&record.FileExtension,
		&record.Date,
		&record.Caption,
		&record.Photographer,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, imagemeta.ErrRecordNotFound
		}
		return nil, &imagemeta.StoreError{Store: "postgres", Key: imageName, Op: "get", Err: err}
	}
	return &record, nil
}

func (s *Store) UpdateField(ctx context.Context, imageName string, field imagemeta.MetadataField, value string) error {
	column, err := columnFor(field)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`UPDATE image_records SET %s = $2 WHERE image_name = $1`, column)
	tag, err := s.db.Exec(ctx, query, imageName, value)
	if err != nil {
		return &imagemeta.StoreError{Store: "postgres", Key: imageName, Op: "update_field", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return imagemeta.ErrRecordNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, imageName string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM image_records WHERE image_name = $1`, imageName)
	if err != nil {
		return &imagemeta.StoreError{Store: "postgres", Key: imageName, Op: "delete", Err: err}
	}
	return nil
}

// Package config loads pipeline configuration from the environment and
// builds a wired service from it.
package config

import (
	"context"
	"errors"
	"fmt"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/imageflow/imagemeta/pkg/imagemeta"
	sesnotify "github.com/imageflow/imagemeta/pkg/imagemeta/notify/ses"
	s3store "github.com/imageflow/imagemeta/pkg/imagemeta/objectstore/s3"
	dynamostore "github.com/imageflow/imagemeta/pkg/imagemeta/store/dynamodb"
	memorystore "github.com/imageflow/imagemeta/pkg/imagemeta/store/memory"
	pgstore "github.com/imageflow/imagemeta/pkg/imagemeta/store/postgres"
)

// Config represents pipeline configuration read from the environment.
// Validation is fatal at process start; a consumer must not come up with a
// half-wired pipeline.
type Config struct {
	Region string `env:"AWS_REGION" env-default:"us-east-1"`

	// Record store selection
	RecordStore string `env:"RECORD_STORE" env-default:"dynamodb"` // "dynamodb", "postgres", "memory"
	TableName   string `env:"TABLE_NAME"`
	DatabaseURL string `env:"DATABASE_URL"`

	// Policy
	ValidExtensions []string `env:"VALID_EXTENSIONS" env-default:"jpeg,png"`
	MaxReceiveCount int32    `env:"MAX_RECEIVE_COUNT" env-default:"3"`

	// Notification transport
	EmailFrom string   `env:"SES_EMAIL_FROM"`
	EmailTo   []string `env:"SES_EMAIL_TO"`

	// Queue topology (standalone worker)
	ProcessQueueURL    string `env:"PROCESS_QUEUE_URL"`
	MailerQueueURL     string `env:"MAILER_QUEUE_URL"`
	DeadLetterQueueURL string `env:"DEAD_LETTER_QUEUE_URL"`

	// Worker admin surface
	Port string `env:"PORT" env-default:"8080"`
}

// Load reads configuration from the environment and validates the record
// store selection.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the invariants every binary shares.
func (c *Config) Validate() error {
	switch c.RecordStore {
	case "dynamodb":
		if c.TableName == "" {
			return errors.New("TABLE_NAME is required when RECORD_STORE is dynamodb")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when RECORD_STORE is postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("unsupported record store %q (use dynamodb, postgres or memory)", c.RecordStore)
	}

	if len(c.ValidExtensions) == 0 {
		return errors.New("VALID_EXTENSIONS must not be empty")
	}
	return nil
}

// RequireMail checks the configuration a mail-sending binary needs.
func (c *Config) RequireMail() error {
	if c.EmailFrom == "" {
		return errors.New("SES_EMAIL_FROM is required")
	}
	if len(c.EmailTo) == 0 {
		return errors.New("SES_EMAIL_TO is required")
	}
	return nil
}

// BuildService wires a Service from the configuration: the selected record
// store, the S3 object store, and (when sender/recipients are configured)
// the SES notifier. Clients are constructed once per process lifetime and
// injected; nothing here is ambient state.
func (c *Config) BuildService() (imagemeta.Service, error) {
	records, err := c.buildRecordStore()
	if err != nil {
		return nil, err
	}

	objects, err := s3store.New(s3store.Config{Region: c.Region})
	if err != nil {
		return nil, fmt.Errorf("failed to build object store: %w", err)
	}

	options := []imagemeta.Option{
		imagemeta.WithRecordStore(records),
		imagemeta.WithObjectStore(objects),
		imagemeta.WithExtensions(c.ValidExtensions),
		imagemeta.WithRecipients(c.EmailTo),
	}

	if c.EmailFrom != "" {
		notifier, err := sesnotify.New(sesnotify.Config{Region: c.Region, From: c.EmailFrom})
		if err != nil {
			return nil, fmt.Errorf("failed to build notifier: %w", err)
		}
		options = append(options, imagemeta.WithNotifier(notifier))
	}

	return imagemeta.New(options...)
}

func (c *Config) buildRecordStore() (imagemeta.RecordStore, error) {
	switch c.RecordStore {
	case "dynamodb":
		return dynamostore.New(dynamostore.Config{
			Region:    c.Region,
			TableName: c.TableName,
		})
	case "postgres":
		pool, err := pgxpool.New(context.Background(), c.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to postgres: %w", err)
		}
		return pgstore.NewWithPool(pool), nil
	case "memory":
		return memorystore.New(), nil
	}
	return nil, fmt.Errorf("unsupported record store %q", c.RecordStore)
}

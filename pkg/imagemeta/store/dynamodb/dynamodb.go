// Package dynamodb provides a RecordStore backed by a DynamoDB table keyed
// by ImageName.
package dynamodb

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/expression"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/imageflow/imagemeta/pkg/imagemeta"
)

// Config options for the DynamoDB record store
type Config struct {
	Region          string // AWS region
	TableName       string // DynamoDB table name
	AccessKeyID     string // AWS access key ID
	SecretAccessKey string // AWS secret access key
	Endpoint        string // Optional custom endpoint for DynamoDB-compatible services
}

// Store implements imagemeta.RecordStore on DynamoDB
type Store struct {
	client *dynamodb.Client
	table  string
}

// New creates a new DynamoDB-backed record store
func New(config Config) (*Store, error) {
	if config.TableName == "" {
		return nil, errors.New("table name is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	var awsCfg aws.Config
	var err error

	if config.AccessKeyID != "" && config.SecretAccessKey != "" {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
			awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				config.AccessKeyID,
				config.SecretAccessKey,
				"",
			)),
		)
	} else {
		awsCfg, err = awsconfig.LoadDefaultConfig(context.Background(),
			awsconfig.WithRegion(config.Region),
		)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	var options []func(*dynamodb.Options)
	if config.Endpoint != "" {
		options = append(options, func(o *dynamodb.Options) {
			o.BaseEndpoint = aws.String(config.Endpoint)
		})
	}

	return &Store{
		client: dynamodb.NewFromConfig(awsCfg, options...),
		table:  config.TableName,
	}, nil
}

// NewWithClient creates a record store from an existing client
func NewWithClient(client *dynamodb.Client, table string) *Store {
	return &Store{client: client, table: table}
}

// Put upserts the record, writing only the fields ingestion owns. An
// UpdateItem is used instead of PutItem so enrichment attributes written by
// the field updater survive redelivered creation events.
func (s *Store) Put(ctx context.Context, record imagemeta.ImageRecord) error {
	update := expression.
		Set(expression.Name("FileSize"), expression.Value(record.FileSize)).
		Set(expression.Name("FileExtension"), expression.Value(record.FileExtension))

	expr, err := expression.NewBuilder().WithUpdate(update).Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       recordKey(record.ImageName),
		UpdateExpression:          expr.Update(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		return &imagemeta.StoreError{Store: "dynamodb", Key: record.ImageName, Op: "put", Err: err}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, imageName string) (*imagemeta.ImageRecord, error) {
	out, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName:      aws.String(s.table),
		Key:            recordKey(imageName),
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, &imagemeta.StoreError{Store: "dynamodb", Key: imageName, Op: "get", Err: err}
	}
	if out.Item == nil {
		return nil, imagemeta.ErrRecordNotFound
	}

	var record imagemeta.ImageRecord
	if err := attributevalue.UnmarshalMap(out.Item, &record); err != nil {
		return nil, &imagemeta.StoreError{Store: "dynamodb", Key: imageName, Op: "get", Err: err}
	}
	return &record, nil
}

// UpdateField sets one enrichment attribute, conditioned on the record
// already existing. The expression builder generates attribute name aliases
// for every referenced name, which also keeps reserved words such as "Date"
// out of the expression grammar.
func (s *Store) UpdateField(ctx context.Context, imageName string, field imagemeta.MetadataField, value string) error {
	update := expression.Set(expression.Name(string(field)), expression.Value(value))
	condition := expression.AttributeExists(expression.Name("ImageName"))

	expr, err := expression.NewBuilder().WithUpdate(update).WithCondition(condition).Build()
	if err != nil {
		return fmt.Errorf("failed to build update expression: %w", err)
	}

	_, err = s.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName:                 aws.String(s.table),
		Key:                       recordKey(imageName),
		UpdateExpression:          expr.Update(),
		ConditionExpression:       expr.Condition(),
		ExpressionAttributeNames:  expr.Names(),
		ExpressionAttributeValues: expr.Values(),
	})
	if err != nil {
		var conditionFailed *types.ConditionalCheckFailedException
		if errors.As(err, &conditionFailed) {
			return imagemeta.ErrRecordNotFound
		}
		return &imagemeta.StoreError{Store: "dynamodb", Key: imageName, Op: "update_field", Err: err}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, imageName string) error {
	// Unconditional delete: removing an absent item succeeds, which is the
	// contract under at-least-once redelivery.
	_, err := s.client.DeleteItem(ctx, &dynamodb.DeleteItemInput{
		TableName: aws.String(s.table),
		Key:       recordKey(imageName),
	})
	if err != nil {
		return &imagemeta.StoreError{Store: "dynamodb", Key: imageName, Op: "delete", Err: err}
	}
	return nil
}

func recordKey(imageName string) map[string]types.AttributeValue {
	return map[string]types.AttributeValue{
		"ImageName": &types.AttributeValueMemberS{Value: imageName},
	}
}

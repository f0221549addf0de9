// Package ses provides a Notifier that sends HTML email through SES.
package ses

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// Config options for the SES notifier
type Config struct {
	Region string // AWS region the identity is verified in
	From   string // Verified sender address
}

// Notifier implements imagemeta.Notifier on SES
type Notifier struct {
	client *sesv2.Client
	from   string
}

// New creates a new SES-backed notifier
func New(config Config) (*Notifier, error) {
	if config.From == "" {
		return nil, errors.New("sender address is required")
	}
	if config.Region == "" {
		config.Region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(config.Region),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &Notifier{
		client: sesv2.NewFromConfig(awsCfg),
		from:   config.From,
	}, nil
}

// NewWithClient creates a notifier from an existing client
func NewWithClient(client *sesv2.Client, from string) *Notifier {
	return &Notifier{client: client, from: from}
}

func (n *Notifier) Publish(ctx context.Context, subject, htmlBody string, recipients []string) error {
	if len(recipients) == 0 {
		return errors.New("no recipients configured")
	}

	_, err := n.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(n.from),
		Destination: &types.Destination{
			ToAddresses: recipients,
		},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body: &types.Body{
					Html: &types.Content{Data: aws.String(htmlBody)},
				},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}
	return nil
}

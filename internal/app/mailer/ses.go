// internal/app/mailer/ses.go
package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// SESConfig holds Amazon SES settings.
type SESConfig struct {
	Region          string // default us-east-1
	AccessKeyID     string
	SecretAccessKey string
}

// sesAPI is the subset of *sesv2.Client used here.
type sesAPI interface {
	SendEmail(ctx context.Context, in *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
	GetAccount(ctx context.Context, in *sesv2.GetAccountInput, optFns ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error)
}

// SESTransport sends mail through the SES v2 API.
type SESTransport struct {
	client sesAPI
}

// NewSES builds an SES transport with static credentials.
func NewSES(ctx context.Context, cfg SESConfig) (*SESTransport, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" {
		return nil, errors.New("mailer: ses access key id and secret are required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")),
	)
	if err != nil {
		return nil, fmt.Errorf("mailer: load aws config: %w", err)
	}
	return &SESTransport{client: sesv2.NewFromConfig(awsCfg)}, nil
}

// Verify confirms the credentials by reading the account's sending status.
func (t *SESTransport) Verify(ctx context.Context) error {
	out, err := t.client.GetAccount(ctx, &sesv2.GetAccountInput{})
	if err != nil {
		return fmt.Errorf("mailer: ses verify: %w", err)
	}
	if !out.SendingEnabled {
		return errors.New("mailer: ses sending is disabled for this account")
	}
	return nil
}

// Send delivers msg with SendEmail.
func (t *SESTransport) Send(ctx context.Context, msg Message) error {
	in, err := sendEmailInput(msg)
	if err != nil {
		return err
	}
	if _, err := t.client.SendEmail(ctx, in); err != nil {
		return fmt.Errorf("mailer: ses send to %s: %w", msg.To, err)
	}
	return nil
}

func sendEmailInput(msg Message) (*sesv2.SendEmailInput, error) {
	if err := msg.Validate(); err != nil {
		return nil, err
	}

	body := &types.Body{}
	if msg.HTMLBody != "" {
		body.Html = &types.Content{Data: aws.String(msg.HTMLBody), Charset: aws.String("UTF-8")}
	}
	if msg.TextBody != "" {
		body.Text = &types.Content{Data: aws.String(msg.TextBody), Charset: aws.String("UTF-8")}
	}

	in := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.FromHeader()),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(msg.Subject), Charset: aws.String("UTF-8")},
				Body:    body,
			},
		},
	}
	if msg.ReplyTo != "" {
		in.ReplyToAddresses = []string{msg.ReplyTo}
	}
	if msg.SubmissionID != "" {
		in.EmailTags = []types.MessageTag{
			{Name: aws.String("submission_id"), Value: aws.String(msg.SubmissionID)},
		}
	}
	return in, nil
}

package mailer

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMessage() Message {
	return Message{
		FromName:     "SKMS Website Contact",
		From:         "site@skms.example",
		To:           "owner@skms.example",
		ReplyTo:      "client@example.com",
		Subject:      "New Contact Form Message from Lerato",
		TextBody:     "plain",
		HTMLBody:     "<p>html</p>",
		SubmissionID: "3f1c9a52-7d1e-4f56-9a8e-1b2c3d4e5f60",
	}
}

func TestMessageValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Message)
		want   error
	}{
		{"valid", func(*Message) {}, nil},
		{"no sender", func(m *Message) { m.From = " " }, ErrNoSender},
		{"no recipient", func(m *Message) { m.To = "" }, ErrNoRecipient},
		{"no body", func(m *Message) { m.TextBody, m.HTMLBody = "", "" }, ErrEmptyBody},
		{"html only", func(m *Message) { m.TextBody = "" }, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := testMessage()
			tt.mutate(&m)
			assert.ErrorIs(t, m.Validate(), tt.want)
		})
	}
}

func TestFromHeader(t *testing.T) {
	m := testMessage()
	assert.Equal(t, `"SKMS Website Contact" <site@skms.example>`, m.FromHeader())

	m.FromName = "SKMS Accounting & Taxation"
	assert.Equal(t, `"SKMS Accounting & Taxation" <site@skms.example>`, m.FromHeader())

	m.FromName = ""
	assert.Equal(t, "site@skms.example", m.FromHeader())
}

func TestNewSMTP(t *testing.T) {
	_, err := NewSMTP(SMTPConfig{})
	require.Error(t, err)

	tr, err := NewSMTP(SMTPConfig{Host: "smtp.gmail.com", Username: "u", Password: "p"})
	require.NoError(t, err)
	assert.Equal(t, 587, tr.cfg.Port)
	assert.NotZero(t, tr.cfg.Timeout)

	c, err := tr.client()
	require.NoError(t, err)
	assert.NotNil(t, c)
}

func TestBuildMsg(t *testing.T) {
	m, err := buildMsg(testMessage())
	require.NoError(t, err)

	to := m.GetTo()
	require.Len(t, to, 1)
	assert.Equal(t, "owner@skms.example", to[0].Address)

	from := m.GetFrom()
	require.Len(t, from, 1)
	assert.Equal(t, "SKMS Website Contact", from[0].Name)
	assert.Equal(t, "site@skms.example", from[0].Address)

	assert.Equal(t, []string{"3f1c9a52-7d1e-4f56-9a8e-1b2c3d4e5f60"}, m.GetGenHeader(SubmissionIDHeader))
}

func TestBuildMsg_InvalidAddress(t *testing.T) {
	msg := testMessage()
	msg.ReplyTo = "not an address"
	_, err := buildMsg(msg)
	require.Error(t, err)
}

type fakeSES struct {
	sendIn  *sesv2.SendEmailInput
	sendErr error
	account *sesv2.GetAccountOutput
	acctErr error
}

func (f *fakeSES) SendEmail(_ context.Context, in *sesv2.SendEmailInput, _ ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error) {
	f.sendIn = in
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &sesv2.SendEmailOutput{MessageId: aws.String("msg-1")}, nil
}

func (f *fakeSES) GetAccount(context.Context, *sesv2.GetAccountInput, ...func(*sesv2.Options)) (*sesv2.GetAccountOutput, error) {
	return f.account, f.acctErr
}

func TestSESTransport_Send(t *testing.T) {
	fake := &fakeSES{}
	tr := &SESTransport{client: fake}

	require.NoError(t, tr.Send(context.Background(), testMessage()))

	in := fake.sendIn
	require.NotNil(t, in)
	assert.Equal(t, `"SKMS Website Contact" <site@skms.example>`, aws.ToString(in.FromEmailAddress))
	assert.Equal(t, []string{"owner@skms.example"}, in.Destination.ToAddresses)
	assert.Equal(t, []string{"client@example.com"}, in.ReplyToAddresses)
	assert.Equal(t, "New Contact Form Message from Lerato", aws.ToString(in.Content.Simple.Subject.Data))
	assert.Equal(t, "<p>html</p>", aws.ToString(in.Content.Simple.Body.Html.Data))
	assert.Equal(t, "plain", aws.ToString(in.Content.Simple.Body.Text.Data))
	require.Len(t, in.EmailTags, 1)
	assert.Equal(t, "submission_id", aws.ToString(in.EmailTags[0].Name))
}

func TestSESTransport_SendError(t *testing.T) {
	fake := &fakeSES{sendErr: errors.New("throttled")}
	tr := &SESTransport{client: fake}

	err := tr.Send(context.Background(), testMessage())
	require.Error(t, err)
	assert.ErrorIs(t, err, fake.sendErr)
}

func TestSESTransport_SendRejectsInvalid(t *testing.T) {
	fake := &fakeSES{}
	tr := &SESTransport{client: fake}

	msg := testMessage()
	msg.To = ""
	assert.ErrorIs(t, tr.Send(context.Background(), msg), ErrNoRecipient)
	assert.Nil(t, fake.sendIn)
}

func TestSESTransport_Verify(t *testing.T) {
	tests := []struct {
		name    string
		fake    *fakeSES
		wantErr bool
	}{
		{"enabled", &fakeSES{account: &sesv2.GetAccountOutput{SendingEnabled: true}}, false},
		{"disabled", &fakeSES{account: &sesv2.GetAccountOutput{SendingEnabled: false}}, true},
		{"api error", &fakeSES{acctErr: errors.New("access denied")}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := (&SESTransport{client: tt.fake}).Verify(context.Background())
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewSES_RequiresCredentials(t *testing.T) {
	_, err := NewSES(context.Background(), SESConfig{Region: "eu-west-1"})
	require.Error(t, err)
}

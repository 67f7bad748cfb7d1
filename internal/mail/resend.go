// Package mail delivers transactional email through the Resend API.
package mail

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v3"

	"github.com/forgeml/platform/internal/auth"
)

// ResendMailer implements auth.Mailer. The from address must belong to a
// domain verified in the Resend dashboard.
type ResendMailer struct {
	client *resend.Client
	from   string
}

var _ auth.Mailer = (*ResendMailer)(nil)

// NewResendMailer builds a mailer with the given API key and sender address.
func NewResendMailer(apiKey, from string) *ResendMailer {
	return &ResendMailer{
		client: resend.NewClient(apiKey),
		from:   from,
	}
}

// Send delivers one HTML email.
func (m *ResendMailer) Send(ctx context.Context, to, subject, html string) error {
	params := &resend.SendEmailRequest{
		From:    m.from,
		To:      []string{to},
		Subject: subject,
		Html:    html,
	}
	if _, err := m.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("send email: %w", err)
	}
	return nil
}

package email

import (
	"context"
	"fmt"

	"github.com/resend/resend-go/v2"
)

// ResendSender delivers mail through the Resend API.
type ResendSender struct {
	client    *resend.Client
	fromName  string
	fromEmail string
}

func NewResendSender(apiKey, fromEmail, fromName string) *ResendSender {
	return &ResendSender{
		client:    resend.NewClient(apiKey),
		fromName:  fromName,
		fromEmail: fromEmail,
	}
}

func (r *ResendSender) SendImportSummary(ctx context.Context, toEmail string, summary ImportSummary) error {
	subject, content, err := renderImportSummary(summary)
	if err != nil {
		return err
	}
	return r.send(ctx, toEmail, subject, content)
}

func (r *ResendSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return r.send(ctx, toEmail, subject, htmlContent)
}

func (r *ResendSender) send(ctx context.Context, toEmail, subject, htmlContent string) error {
	params := &resend.SendEmailRequest{
		From:    formatFrom(r.fromName, r.fromEmail),
		To:      []string{toEmail},
		Subject: subject,
		Html:    htmlContent,
	}

	if _, err := r.client.Emails.SendWithContext(ctx, params); err != nil {
		return fmt.Errorf("resend send failed: %w", err)
	}
	return nil
}

func formatFrom(name, address string) string {
	if name == "" {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}

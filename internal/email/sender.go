package email

import (
	"context"
	"fmt"
	"time"

	"avfall_backend/platform/config"
)

// ImportSummary is the content of an import report mail.
type ImportSummary struct {
	ImportID         string
	Source           string
	SheetName        string
	Succeeded        bool
	ReceivedRows     int
	ParsedRows       int
	RejectedRows     int
	SkippedBlankRows int
	Upserted         int
	Batches          int
	StrippedColumns  []string
	Error            string
	Duration         time.Duration
}

type Sender interface {
	SendImportSummary(ctx context.Context, toEmail string, summary ImportSummary) error
	SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error
}

type NoopSender struct{}

func (NoopSender) SendImportSummary(ctx context.Context, toEmail string, summary ImportSummary) error {
	return nil
}

func (NoopSender) SendCustomEmail(ctx context.Context, toEmail, subject, htmlContent string) error {
	return nil
}

// New picks Resend when an API key is set, then SMTP, and otherwise a sender
// that drops every mail.
func New(cfg config.EmailConfig) Sender {
	if !cfg.GetEmailEnabled() {
		return NoopSender{}
	}
	if cfg.GetResendAPIKey() != "" {
		return NewResendSender(cfg.GetResendAPIKey(), cfg.GetEmailFromAddress(), cfg.GetEmailFromName())
	}
	return NewSMTPSender(
		cfg.GetSMTPHost(),
		cfg.GetSMTPPort(),
		cfg.GetSMTPUsername(),
		cfg.GetSMTPPassword(),
		cfg.GetEmailFromAddress(),
		cfg.GetEmailFromName(),
	)
}

func renderImportSummary(summary ImportSummary) (subject, content string, err error) {
	title := titleImportSucceeded
	subject = fmt.Sprintf(subjectImportSucceededFmt, summary.Upserted)
	if !summary.Succeeded {
		title = titleImportFailed
		subject = subjectImportFailed
	}

	content, err = renderEmailTemplate("import_summary.html", importSummaryEmailData{
		baseEmailData: baseEmailData{
			Title:   title,
			Heading: title,
		},
		ImportSummary: summary,
		DurationText:  summary.Duration.Round(time.Millisecond).String(),
	})
	return subject, content, err
}

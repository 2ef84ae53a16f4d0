package email

import (
	"context"
	"strings"
	"testing"
	"time"
)

type emailConfig struct {
	smtpHost  string
	resendKey string
	from      string
}

func (c emailConfig) GetEmailEnabled() bool {
	return c.from != "" && (c.smtpHost != "" || c.resendKey != "")
}
func (c emailConfig) GetSMTPHost() string          { return c.smtpHost }
func (c emailConfig) GetSMTPPort() int             { return 587 }
func (c emailConfig) GetSMTPUsername() string      { return "" }
func (c emailConfig) GetSMTPPassword() string      { return "" }
func (c emailConfig) GetResendAPIKey() string      { return c.resendKey }
func (c emailConfig) GetEmailFromName() string     { return "Avfallsdag" }
func (c emailConfig) GetEmailFromAddress() string  { return c.from }
func (c emailConfig) GetImportReportEmail() string { return "drift@kommune.no" }

func TestNewPicksSender(t *testing.T) {
	tests := []struct {
		name string
		cfg  emailConfig
		want string
	}{
		{"disabled", emailConfig{}, "email.NoopSender"},
		{"no sender address", emailConfig{smtpHost: "smtp.local"}, "email.NoopSender"},
		{"resend", emailConfig{resendKey: "re_123", smtpHost: "smtp.local", from: "noreply@kommune.no"}, "*email.ResendSender"},
		{"smtp", emailConfig{smtpHost: "smtp.local", from: "noreply@kommune.no"}, "*email.SMTPSender"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := typeName(New(tt.cfg))
			if got != tt.want {
				t.Fatalf("New() = %s, want %s", got, tt.want)
			}
		})
	}
}

func typeName(s Sender) string {
	switch s.(type) {
	case NoopSender:
		return "email.NoopSender"
	case *ResendSender:
		return "*email.ResendSender"
	case *SMTPSender:
		return "*email.SMTPSender"
	default:
		return "unknown"
	}
}

func TestRenderImportSummarySucceeded(t *testing.T) {
	subject, content, err := renderImportSummary(ImportSummary{
		ImportID:        "4f1c",
		Source:          "upload",
		SheetName:       "data",
		Succeeded:       true,
		ReceivedRows:    120,
		ParsedRows:      118,
		RejectedRows:    2,
		Upserted:        118,
		Batches:         1,
		StrippedColumns: []string{"lat", "lon"},
		Duration:        1500 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != "Adresseimport fullført: 118 adresser oppdatert" {
		t.Fatalf("unexpected subject %q", subject)
	}
	for _, want := range []string{"upload (data)", "118 i 1 bolker", "lat, lon", "1.5s"} {
		if !strings.Contains(content, want) {
			t.Fatalf("expected %q in mail body", want)
		}
	}
	if strings.Contains(content, "Feil:") {
		t.Fatal("did not expect an error line for a successful import")
	}
}

func TestRenderImportSummaryFailedEscapesError(t *testing.T) {
	subject, content, err := renderImportSummary(ImportSummary{
		ImportID: "4f1c",
		Source:   "worker",
		Error:    `DB error: value too long for <script>`,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if subject != subjectImportFailed {
		t.Fatalf("unexpected subject %q", subject)
	}
	if !strings.Contains(content, "&lt;script&gt;") {
		t.Fatal("expected the error text to be escaped")
	}
}

func TestNoopSender(t *testing.T) {
	if err := (NoopSender{}).SendImportSummary(context.Background(), "a@b.no", ImportSummary{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

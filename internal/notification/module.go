// Package notification sends mail in response to domain events, so the
// import pipeline never needs to know about mail providers or templates.
package notification

import (
	"context"
	"log/slog"
	"time"

	"avfall_backend/internal/email"
	"avfall_backend/internal/events"
	"avfall_backend/platform/logger"
)

const sendTimeout = 30 * time.Second

// Module mails import reports to the operations inbox.
type Module struct {
	sender    email.Sender
	recipient string
	log       *logger.Logger
}

// New creates the notification module. An empty recipient disables reports.
func New(sender email.Sender, recipient string, log *logger.Logger) *Module {
	return &Module{sender: sender, recipient: recipient, log: log}
}

// RegisterHandlers subscribes the module to the events it reacts to.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.ImportCompleted{}.EventName(), m)
}

// Handle implements events.Handler.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.ImportCompleted:
		return m.handleImportCompleted(ctx, e)
	default:
		return nil
	}
}

func (m *Module) handleImportCompleted(ctx context.Context, e events.ImportCompleted) error {
	if m.recipient == "" || m.sender == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()

	summary := email.ImportSummary{
		ImportID:         e.ImportID.String(),
		Source:           e.Source,
		SheetName:        e.SheetName,
		Succeeded:        e.Status == events.ImportSucceeded,
		ReceivedRows:     e.ReceivedRows,
		ParsedRows:       e.ParsedRows,
		RejectedRows:     e.RejectedRows,
		SkippedBlankRows: e.SkippedBlankRows,
		Upserted:         e.Upserted,
		Batches:          e.Batches,
		StrippedColumns:  e.StrippedColumns,
		Error:            e.Error,
		Duration:         e.Duration,
	}

	if err := m.sender.SendImportSummary(ctx, m.recipient, summary); err != nil {
		m.log.WithContext(ctx).Error("import report mail failed",
			slog.String("import_id", summary.ImportID),
			slog.String("error", err.Error()),
		)
		return err
	}

	m.log.WithContext(ctx).Info("import report mailed",
		slog.String("import_id", summary.ImportID),
		slog.String("status", string(e.Status)),
	)
	return nil
}

var _ events.Handler = (*Module)(nil)

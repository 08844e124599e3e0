package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/daily-briefing-service/internal/domain"
)

// TeeAudit writes every record to a primary log and then mirrors it to a
// secondary one. Only the primary's error is returned.
type TeeAudit struct {
	primary   AuditLog
	secondary AuditLog
	logger    *slog.Logger
}

// NewTeeAudit creates a TeeAudit.
func NewTeeAudit(primary, secondary AuditLog, logger *slog.Logger) *TeeAudit {
	return &TeeAudit{primary: primary, secondary: secondary, logger: logger}
}

// AppendAudit implements AuditLog.
func (t *TeeAudit) AppendAudit(ctx context.Context, rec domain.AuditRecord) error {
	if err := t.primary.AppendAudit(ctx, rec); err != nil {
		return err
	}
	if err := t.secondary.AppendAudit(ctx, rec); err != nil {
		t.logger.Warn("audit mirror failed", "error", err, "run_id", rec.RunID)
	}
	return nil
}

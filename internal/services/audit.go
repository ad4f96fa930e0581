package services

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// AuditEntry describes one staff action on a card for the audit trail.
type AuditEntry struct {
	TenantID     string
	ActionCardID string
	Action       string
	StaffID      string
	StaffName    string
	At           time.Time
}

// AuditService records card transitions. The collaborator may be absent
// in some deployments; callers hold a nullable reference and skip the
// call when it is nil. Writes are fire-and-forget: a failure is logged,
// never surfaced to the primary operation.
type AuditService interface {
	RecordCardAction(ctx context.Context, entry *AuditEntry) error
}

type noopAuditService struct{}

// NewNoopAuditService returns an audit service that discards entries.
func NewNoopAuditService() AuditService {
	return &noopAuditService{}
}

func (s *noopAuditService) RecordCardAction(ctx context.Context, entry *AuditEntry) error {
	return nil
}

type logAuditService struct {
	logger *zap.Logger
}

// NewLogAuditService returns an audit service that writes entries to the log.
func NewLogAuditService(logger *zap.Logger) AuditService {
	return &logAuditService{logger: logger}
}

func (s *logAuditService) RecordCardAction(ctx context.Context, entry *AuditEntry) error {
	s.logger.Info("card action",
		zap.String("tenant_id", entry.TenantID),
		zap.String("card_id", entry.ActionCardID),
		zap.String("action", entry.Action),
		zap.String("staff_id", entry.StaffID))
	return nil
}

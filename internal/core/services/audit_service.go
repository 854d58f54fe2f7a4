package services

import (
	"context"
	"time"

	"nodegate/internal/core/domain"
	"nodegate/internal/core/ports"

	"go.uber.org/zap"
)

// auditService fans records out to the three journals. Append failures
// go to the process log and are swallowed: audit persistence must never
// block or fail the request that triggered it.
type auditService struct {
	security ports.AuditRepository
	events   ports.AuditRepository
	commands ports.AuditRepository
	logger   *zap.SugaredLogger
}

func NewAuditService(security, events, commands ports.AuditRepository, logger *zap.SugaredLogger) ports.AuditService {
	return &auditService{
		security: security,
		events:   events,
		commands: commands,
		logger:   logger,
	}
}

func (s *auditService) Security(ctx context.Context, level domain.AuditLevel, message string, details map[string]interface{}) {
	s.append(ctx, s.security, "security", level, message, details)
}

func (s *auditService) Event(ctx context.Context, level domain.AuditLevel, message string, details map[string]interface{}) {
	s.append(ctx, s.events, "event", level, message, details)
}

func (s *auditService) Command(ctx context.Context, details map[string]interface{}) {
	s.append(ctx, s.commands, "command", domain.AuditInfo, "Command issued", details)
}

func (s *auditService) append(ctx context.Context, journal ports.AuditRepository, name string, level domain.AuditLevel, message string, details map[string]interface{}) {
	record := domain.AuditRecord{
		Timestamp: time.Now().UTC(),
		Level:     level,
		Message:   message,
		Details:   details,
	}
	if err := journal.Append(ctx, record); err != nil {
		s.logger.Errorw("failed to append audit record",
			"journal", name,
			"message", message,
			"error", err,
		)
	}
}

func (s *auditService) SecurityLog(ctx context.Context) ([]domain.AuditRecord, error) {
	return s.security.List(ctx)
}

func (s *auditService) EventLog(ctx context.Context) ([]domain.AuditRecord, error) {
	return s.events.List(ctx)
}

func (s *auditService) CommandLog(ctx context.Context) ([]domain.AuditRecord, error) {
	return s.commands.List(ctx)
}

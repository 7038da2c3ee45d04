package logging

import (
	"context"

	"go.uber.org/zap"
)

// Audit results.
const (
	AuditSuccess = "success"
	AuditFailure = "failure"
)

// AuditEvent describes one state-changing operation on a stored resource.
type AuditEvent struct {
	Action       string // create, update, delete, upsert, import
	ResourceType string
	ResourceID   string
	Result       string
	Details      map[string]any
}

// LogAuditEvent logs a structured audit event. Personal data (names, emails,
// phone numbers) must not be placed in Details.
func LogAuditEvent(ctx context.Context, ev AuditEvent) {
	fields := []zap.Field{
		zap.String("audit.action", ev.Action),
		zap.String("audit.resource_type", ev.ResourceType),
		zap.String("audit.result", ev.Result),
	}
	if ev.ResourceID != "" {
		fields = append(fields, zap.String("audit.resource_id", ev.ResourceID))
	}
	if len(ev.Details) > 0 {
		fields = append(fields, zap.Any("audit.details", ev.Details))
	}
	LoggerFromContext(ctx).Info("Audit event", fields...)
}

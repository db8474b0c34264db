package ports

import (
	"context"

	"github.com/dicegame/dice-api/internal/core/domain"
)

// AuditRepository appends events to the audit trail.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
}

// AuditRecorder accepts audit events without blocking the caller on I/O.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}

package service

import (
	"github.com/dicegame/dice-api/internal/core/domain"
	"github.com/dicegame/dice-api/internal/core/ports"
)

type nopRecorder struct{}

func (nopRecorder) Record(domain.AuditEvent) {}

func recorderOrNop(r ports.AuditRecorder) ports.AuditRecorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}

package http

import (
	"github.com/devbook/devbook/internal/audit"
	"github.com/devbook/devbook/internal/entities"
)

// AuditRecorder receives the events the controllers report. Recording must
// not block or fail the request.
type AuditRecorder interface {
	LogAuth(userID uint, action, email, ipAddr string, success bool)
	LogLending(userID uint, action string, borrowID, bookID uint)
	LogDelete(userID uint, eventType entities.AuditEventType, entityType string, entityID uint)
}

type noopRecorder struct{}

func (noopRecorder) LogAuth(uint, string, string, string, bool)            {}
func (noopRecorder) LogLending(uint, string, uint, uint)                   {}
func (noopRecorder) LogDelete(uint, entities.AuditEventType, string, uint) {}

func recorderFor(svc *audit.Service) AuditRecorder {
	if svc == nil {
		return noopRecorder{}
	}
	return svc
}

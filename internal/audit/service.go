package audit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devbook/devbook/internal/database/audit"
	"github.com/devbook/devbook/internal/entities"
)

// Service records audit events. Recording is best effort: failures are
// logged and never reach the caller.
type Service struct {
	repo    *audit.Repository
	log     logrus.FieldLogger
	pending sync.WaitGroup
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository, log logrus.FieldLogger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{repo: repo, log: log}
}

// Log records an event synchronously.
func (s *Service) Log(ctx context.Context, event *entities.AuditEvent) error {
	return s.repo.LogEvent(ctx, event)
}

// LogAsync records an event in the background. It does not use the request
// context, which is cancelled as soon as the response is written.
func (s *Service) LogAsync(event *entities.AuditEvent) {
	s.pending.Add(1)
	go func() {
		defer s.pending.Done()
		if err := s.repo.LogEvent(context.Background(), event); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"audit.action": event.Action,
				"audit.type":   event.EventType,
			}).Warn("failed to record audit event")
		}
	}()
}

// Wait blocks until every event handed to LogAsync has been written.
func (s *Service) Wait() {
	s.pending.Wait()
}

// LogAuth records a register or login attempt.
func (s *Service) LogAuth(userID uint, action, email, ipAddr string, success bool) {
	event := &entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventAuth,
		Action:      action,
		Description: truncate(email, 500),
		EntityType:  "user",
		IPAddress:   ipAddr,
		Status:      entities.AuditStatusSuccess,
	}
	if userID != 0 {
		event.EntityID = &userID
	}
	if !success {
		event.Status = entities.AuditStatusFailed
	}

	s.LogAsync(event)
}

// LogLending records a borrow being created or returned.
func (s *Service) LogLending(userID uint, action string, borrowID, bookID uint) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   entities.AuditEventLending,
		Action:      action,
		Description: fmt.Sprintf("book %d", bookID),
		EntityType:  "borrow",
		EntityID:    &borrowID,
		Status:      entities.AuditStatusSuccess,
	})
}

// LogDelete records the removal of a book, category or user.
func (s *Service) LogDelete(userID uint, eventType entities.AuditEventType, entityType string, entityID uint) {
	s.LogAsync(&entities.AuditEvent{
		UserID:      userID,
		EventType:   eventType,
		Action:      entityType + "_delete",
		Description: fmt.Sprintf("Deleted %s %d", entityType, entityID),
		EntityType:  entityType,
		EntityID:    &entityID,
		Status:      entities.AuditStatusSuccess,
	})
}

// ListRecent returns the newest events, optionally of a single type.
func (s *Service) ListRecent(ctx context.Context, eventType entities.AuditEventType, limit int) ([]entities.AuditEvent, error) {
	events, err := s.repo.ListRecent(ctx, eventType, limit)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []entities.AuditEvent{}
	}
	return events, nil
}

// DeleteOldEvents removes events older than the retention period.
func (s *Service) DeleteOldEvents(ctx context.Context, retention time.Duration) (int64, error) {
	cutoff := time.Now().Add(-retention)
	return s.repo.DeleteOldEvents(ctx, cutoff)
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

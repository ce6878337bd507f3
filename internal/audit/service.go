// Package audit records the lifecycle audit trail: one event per
// request transition plus overdue notices.
package audit

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/mrlokans/lexora/internal/database/audit"
	"github.com/mrlokans/lexora/internal/entities"
)

// Actions recorded by the borrowing engine and the overdue scan.
const (
	ActionRequestCreated  = "request_created"
	ActionRequestApproved = "request_approved"
	ActionRequestRejected = "request_rejected"
	ActionRequestReturned = "request_returned"
	ActionOverdueNotice   = "overdue_notice"
)

// Service provides high-level audit logging.
type Service struct {
	repo *audit.Repository
}

// NewService creates a new audit service.
func NewService(repo *audit.Repository) *Service {
	return &Service{repo: repo}
}

// Log records a generic audit event, assigning a correlation id if the
// caller did not set one.
func (s *Service) Log(event *entities.AuditEvent) error {
	if event.CorrelationID == "" {
		event.CorrelationID = uuid.NewString()
	}
	return s.repo.LogEvent(event)
}

// LogAsync records an audit event in the background (non-blocking).
func (s *Service) LogAsync(event *entities.AuditEvent) {
	go func() {
		if err := s.Log(event); err != nil {
			log.Printf("Failed to log audit event: %v", err)
		}
	}()
}

// LogRequestAction records a lifecycle transition for a request.
func (s *Service) LogRequestAction(action string, requestID uint, actorID, description string) {
	s.LogAsync(&entities.AuditEvent{
		Action:      action,
		RequestID:   &requestID,
		ActorID:     actorID,
		Description: description,
	})
}

// LogOverdueNotice records an overdue notice for a request.
// Synchronous so the task queue can observe and retry failures.
func (s *Service) LogOverdueNotice(requestID uint, readerID string, daysOverdue int) error {
	return s.Log(&entities.AuditEvent{
		Action:      ActionOverdueNotice,
		RequestID:   &requestID,
		ActorID:     readerID,
		Description: fmt.Sprintf("request %d is %d day(s) overdue", requestID, daysOverdue),
	})
}

// HasOverdueNoticeSince reports whether a notice was already recorded
// for the request at or after the cutoff.
func (s *Service) HasOverdueNoticeSince(requestID uint, cutoff time.Time) (bool, error) {
	return s.repo.HasEventSince(requestID, ActionOverdueNotice, cutoff)
}

// GetRequestTrail returns all events recorded for a request.
func (s *Service) GetRequestTrail(requestID uint) ([]entities.AuditEvent, error) {
	return s.repo.GetEventsByRequest(requestID)
}

// Package audit provides database operations for the lifecycle audit
// trail.
package audit

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lexora/internal/entities"
)

// Repository handles audit event persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new audit repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LogEvent persists a single audit event.
func (r *Repository) LogEvent(event *entities.AuditEvent) error {
	return r.db.Create(event).Error
}

// GetEvents returns paginated audit events, newest first.
func (r *Repository) GetEvents(limit, offset int) ([]entities.AuditEvent, int64, error) {
	var events []entities.AuditEvent
	var total int64

	if err := r.db.Model(&entities.AuditEvent{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.Order("id DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if offset > 0 {
		query = query.Offset(offset)
	}

	err := query.Find(&events).Error
	return events, total, err
}

// GetEventsByRequest returns all events recorded for a request.
func (r *Repository) GetEventsByRequest(requestID uint) ([]entities.AuditEvent, error) {
	var events []entities.AuditEvent
	err := r.db.Where("request_id = ?", requestID).Order("id ASC").Find(&events).Error
	return events, err
}

// HasEventSince reports whether an event with the given action exists
// for the request at or after the cutoff. Used to keep overdue notices
// idempotent per scan window.
func (r *Repository) HasEventSince(requestID uint, action string, cutoff time.Time) (bool, error) {
	var count int64
	err := r.db.Model(&entities.AuditEvent{}).
		Where("request_id = ? AND action = ? AND created_at >= ?", requestID, action, cutoff).
		Count(&count).Error
	return count > 0, err
}

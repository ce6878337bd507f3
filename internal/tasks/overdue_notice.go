package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/mrlokans/lexora/internal/audit"
)

// OverdueNoticeTask records an overdue notice for a single approved
// request whose end date has passed.
type OverdueNoticeTask struct {
	RequestID   uint   `json:"request_id"`
	ReaderID    string `json:"reader_id"`
	DaysOverdue int    `json:"days_overdue"`
}

// Config returns the queue configuration for overdue notice tasks.
func (t OverdueNoticeTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "overdue_notice",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// OverdueNoticeProcessor creates a processor function for overdue
// notice tasks. Recording goes through the audit service synchronously
// so failures surface to backlite and get retried.
func OverdueNoticeProcessor(auditor *audit.Service) backlite.QueueProcessor[OverdueNoticeTask] {
	return func(ctx context.Context, task OverdueNoticeTask) error {
		if auditor == nil {
			return fmt.Errorf("audit service not configured")
		}

		if err := auditor.LogOverdueNotice(task.RequestID, task.ReaderID, task.DaysOverdue); err != nil {
			return fmt.Errorf("record overdue notice for request %d: %w", task.RequestID, err)
		}

		log.Printf("[TASK] Overdue notice recorded: request %d, %d day(s) overdue",
			task.RequestID, task.DaysOverdue)
		return nil
	}
}

// NewOverdueNoticeQueue creates a backlite queue for overdue notices.
func NewOverdueNoticeQueue(auditor *audit.Service) backlite.Queue {
	return backlite.NewQueue(OverdueNoticeProcessor(auditor))
}

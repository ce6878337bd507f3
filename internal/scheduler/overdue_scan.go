// Package scheduler runs the periodic overdue scan: approved requests
// whose end date has passed get an overdue notice task enqueued, at
// most once per day per request.
package scheduler

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/mrlokans/lexora/internal/audit"
	"github.com/mrlokans/lexora/internal/borrowing"
	"github.com/mrlokans/lexora/internal/config"
	"github.com/mrlokans/lexora/internal/database"
	"github.com/mrlokans/lexora/internal/database/requests"
	"github.com/mrlokans/lexora/internal/tasks"
)

// OverdueScanScheduler periodically scans for overdue requests and
// enqueues notice tasks for them.
type OverdueScanScheduler struct {
	db         *database.Database
	auditor    *audit.Service
	taskClient *tasks.Client
	config     config.OverdueScan

	cron       *cron.Cron
	entryID    cron.EntryID
	mu         sync.RWMutex
	isRunning  bool
	isScanning bool
	cancelFunc context.CancelFunc
}

// NewOverdueScanScheduler creates a new scheduler instance.
func NewOverdueScanScheduler(db *database.Database, auditor *audit.Service, taskClient *tasks.Client, cfg config.OverdueScan) *OverdueScanScheduler {
	return &OverdueScanScheduler{
		db:         db,
		auditor:    auditor,
		taskClient: taskClient,
		config:     cfg,
		cron:       cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
	}
}

// Start begins the scheduler if the scan is enabled.
func (s *OverdueScanScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isRunning {
		return nil
	}

	if !s.config.Enabled {
		log.Printf("Overdue scan scheduler: disabled")
		return nil
	}

	entryID, err := s.cron.AddFunc(s.config.Schedule, func() {
		s.runScan()
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", s.config.Schedule, err)
	}
	s.entryID = entryID

	var cancelCtx context.Context
	cancelCtx, s.cancelFunc = context.WithCancel(ctx)

	s.cron.Start()
	s.isRunning = true

	log.Printf("Overdue scan scheduler: started with schedule '%s'", s.config.Schedule)

	go func() {
		<-cancelCtx.Done()
		s.Stop()
	}()

	return nil
}

// Stop gracefully stops the scheduler, waiting for a running scan to
// complete.
func (s *OverdueScanScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.isRunning {
		return
	}

	ctx := s.cron.Stop()
	<-ctx.Done()

	s.isRunning = false
	s.cancelFunc = nil

	log.Printf("Overdue scan scheduler: stopped")
}

// RunNow triggers an immediate scan.
func (s *OverdueScanScheduler) RunNow() {
	go s.runScan()
}

// IsRunning returns whether the scheduler is active.
func (s *OverdueScanScheduler) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// GetNextRunTime returns when the next scan will occur.
func (s *OverdueScanScheduler) GetNextRunTime() *time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.isRunning {
		return nil
	}
	for _, entry := range s.cron.Entries() {
		if entry.ID == s.entryID {
			t := entry.Next
			return &t
		}
	}
	return nil
}

// runScan performs a single scan pass.
func (s *OverdueScanScheduler) runScan() {
	s.mu.Lock()
	if s.isScanning {
		s.mu.Unlock()
		log.Printf("Overdue scan: skipped (already scanning)")
		return
	}
	s.isScanning = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.isScanning = false
		s.mu.Unlock()
	}()

	now := time.Now()
	overdue, err := requests.NewRepository(s.db.DB).ListOverdue(now)
	if err != nil {
		log.Printf("Overdue scan: failed to list overdue requests: %v", err)
		return
	}
	if len(overdue) == 0 {
		log.Printf("Overdue scan: nothing overdue")
		return
	}

	cutoff := now.Add(-24 * time.Hour)
	enqueued := 0
	for _, request := range overdue {
		if request.EndDate == nil {
			continue
		}

		// One notice per request per day.
		noticed, err := s.auditor.HasOverdueNoticeSince(request.ID, cutoff)
		if err != nil {
			log.Printf("Overdue scan: failed to check notices for request %d: %v", request.ID, err)
			continue
		}
		if noticed {
			continue
		}

		task := tasks.OverdueNoticeTask{
			RequestID:   request.ID,
			ReaderID:    request.ReaderID,
			DaysOverdue: borrowing.DaysLate(now, *request.EndDate),
		}
		if _, err := s.taskClient.Add(task).Save(); err != nil {
			log.Printf("Overdue scan: failed to enqueue notice for request %d: %v", request.ID, err)
			continue
		}
		enqueued++
	}

	log.Printf("Overdue scan: %d overdue request(s), %d notice(s) enqueued", len(overdue), enqueued)
}

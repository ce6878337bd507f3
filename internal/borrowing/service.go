// Package borrowing implements the borrow-request lifecycle engine:
// creation, approval, rejection and return, including inventory
// bookkeeping and penalty accrual.
//
// State machine: pending -> {approved, rejected}, approved -> returned.
// Approval also accepts requests in rejected status; that matches the
// shipped behavior and is pinned by tests pending product clarification.
//
// Every mutating operation runs in a single database transaction. In
// particular the availability check and the inventory decrement of
// Approve are indivisible, so two concurrent approvals over overlapping
// book sets cannot jointly over-commit a book.
package borrowing

import (
	"errors"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lexora/internal/audit"
	"github.com/mrlokans/lexora/internal/database"
	"github.com/mrlokans/lexora/internal/database/books"
	"github.com/mrlokans/lexora/internal/database/requests"
	"github.com/mrlokans/lexora/internal/entities"
	"github.com/mrlokans/lexora/internal/pagination"
)

// Service is the lifecycle engine. The acting principal (reader or
// librarian id) is passed explicitly into each call; the engine never
// reads ambient request context.
type Service struct {
	db      *database.Database
	auditor *audit.Service
}

// NewService creates a new lifecycle engine. The audit service may be
// nil, in which case transitions are not recorded.
func NewService(db *database.Database, auditor *audit.Service) *Service {
	return &Service{db: db, auditor: auditor}
}

// Create makes a new pending request for the reader. Unknown book ids
// are dropped; the request fails only if none resolve. Inventory counts
// are not touched until approval.
func (s *Service) Create(readerID string, bookIDs []uint, durationDays int) CreationResult {
	if len(bookIDs) == 0 {
		return CreationResult{Kind: FailureNoBooksRequested, Reason: "no books were requested"}
	}

	var res CreationResult
	err := s.db.DB.Transaction(func(tx *gorm.DB) error {
		requestRepo := requests.NewRepository(tx)
		bookRepo := books.NewRepository(tx)

		requested, err := bookRepo.GetByIDs(bookIDs)
		if err != nil {
			return err
		}
		if len(requested) == 0 {
			res = CreationResult{Kind: FailureNoBooksAvailable, Reason: "no requested book is available"}
			return nil
		}

		pending, err := requestRepo.HasPendingRequest(readerID)
		if err != nil {
			return err
		}
		if pending {
			res = CreationResult{Kind: FailureDuplicatePending, Reason: "reader already has a pending request"}
			return nil
		}

		request := &entities.BorrowRequest{
			Status:   entities.RequestStatusPending,
			ReaderID: readerID,
			Duration: durationDays,
			Books:    requested,
		}
		if err := requestRepo.Create(request); err != nil {
			return err
		}

		res = CreationResult{Request: request}
		return nil
	})
	if err != nil {
		return CreationResult{Kind: FailureStore, Reason: storeFailure("create request", err)}
	}

	if res.Succeeded() && s.auditor != nil {
		s.auditor.LogRequestAction(audit.ActionRequestCreated, res.Request.ID, readerID,
			fmt.Sprintf("pending request for %d book(s), %d day(s)", len(res.Request.Books), durationDays))
	}
	return res
}

// Approve transitions a request to approved, sets the borrow window and
// decrements the availability of every book in the snapshot. The
// availability check runs inside the same transaction as the decrement,
// and the whole book set is approved or none of it is.
func (s *Service) Approve(requestID uint, librarianID string) ApprovalResult {
	var res ApprovalResult
	err := s.db.DB.Transaction(func(tx *gorm.DB) error {
		requestRepo := requests.NewRepository(tx)
		bookRepo := books.NewRepository(tx)

		request, err := requestRepo.GetByID(requestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			res = ApprovalResult{Kind: FailureRequestNotFound, Reason: "request not found"}
			return nil
		}
		if err != nil {
			return err
		}

		if request.Status != entities.RequestStatusPending && request.Status != entities.RequestStatusRejected {
			res = ApprovalResult{Kind: FailureRequestNotPending, Reason: "request is not awaiting approval"}
			return nil
		}

		indebted, err := requestRepo.HasOutstandingPenalty(request.ReaderID, request.ID)
		if err != nil {
			return err
		}
		if indebted {
			res = ApprovalResult{Kind: FailureOutstandingPenalty, Reason: "reader has an outstanding penalty"}
			return nil
		}

		// Re-check availability under the transaction; snapshot rows
		// may be stale relative to concurrent approvals.
		current, err := bookRepo.GetByIDs(request.BookIDs())
		if err != nil {
			return err
		}
		unavailable := 0
		for _, b := range current {
			if b.AvailableQuantity < 1 {
				unavailable++
			}
		}
		if unavailable > 0 {
			res = ApprovalResult{
				Kind:             FailureBooksUnavailable,
				Reason:           fmt.Sprintf("%d requested book(s) unavailable", unavailable),
				UnavailableCount: unavailable,
			}
			return nil
		}

		if err := bookRepo.DecrementAvailability(request.BookIDs()); err != nil {
			return err
		}

		now := time.Now()
		end := now.AddDate(0, 0, request.Duration)
		request.Status = entities.RequestStatusApproved
		request.LibrarianID = &librarianID
		request.StartDate = &now
		request.EndDate = &end
		if err := requestRepo.Save(request); err != nil {
			return err
		}

		res = ApprovalResult{Request: request}
		return nil
	})
	if err != nil {
		return ApprovalResult{Kind: FailureStore, Reason: storeFailure("approve request", err)}
	}

	if res.Succeeded() && s.auditor != nil {
		s.auditor.LogRequestAction(audit.ActionRequestApproved, requestID, librarianID,
			fmt.Sprintf("approved for %d day(s)", res.Request.Duration))
	}
	return res
}

// Reject marks a request as rejected and records the acting librarian.
// Inventory is untouched. Rejection only requires that the request
// exists; re-rejecting is idempotent on status.
func (s *Service) Reject(requestID uint, librarianID string) RejectionResult {
	var res RejectionResult
	err := s.db.DB.Transaction(func(tx *gorm.DB) error {
		requestRepo := requests.NewRepository(tx)

		request, err := requestRepo.GetByID(requestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			res = RejectionResult{Kind: FailureRequestNotFound, Reason: "request not found"}
			return nil
		}
		if err != nil {
			return err
		}

		request.Status = entities.RequestStatusRejected
		request.LibrarianID = &librarianID
		if err := requestRepo.Save(request); err != nil {
			return err
		}

		res = RejectionResult{Request: request}
		return nil
	})
	if err != nil {
		return RejectionResult{Kind: FailureStore, Reason: storeFailure("reject request", err)}
	}

	if res.Succeeded() && s.auditor != nil {
		s.auditor.LogRequestAction(audit.ActionRequestRejected, requestID, librarianID, "request rejected")
	}
	return res
}

// Return closes an approved request: every book in the snapshot gets
// its availability back, the return date is stamped and the penalty is
// computed as one unit per book per whole late day.
func (s *Service) Return(requestID uint) ReturnResult {
	var res ReturnResult
	err := s.db.DB.Transaction(func(tx *gorm.DB) error {
		requestRepo := requests.NewRepository(tx)
		bookRepo := books.NewRepository(tx)

		request, err := requestRepo.GetByID(requestID)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			res = ReturnResult{Kind: FailureRequestNotFound, Reason: "request not found"}
			return nil
		}
		if err != nil {
			return err
		}

		if request.Status != entities.RequestStatusApproved {
			res = ReturnResult{Kind: FailureNotReturnable, Reason: "request is not in approved status"}
			return nil
		}

		if err := bookRepo.IncrementAvailability(request.BookIDs()); err != nil {
			return err
		}

		now := time.Now()
		late := 0
		if request.EndDate != nil {
			late = DaysLate(now, *request.EndDate)
		}
		request.ReturnDate = &now
		request.Penalty = float64(len(request.Books) * late)
		request.Status = entities.RequestStatusReturned
		if err := requestRepo.Save(request); err != nil {
			return err
		}

		res = ReturnResult{Request: request}
		return nil
	})
	if err != nil {
		return ReturnResult{Kind: FailureStore, Reason: storeFailure("return request", err)}
	}

	if res.Succeeded() && s.auditor != nil {
		s.auditor.LogRequestAction(audit.ActionRequestReturned, requestID, res.Request.ReaderID,
			fmt.Sprintf("returned with penalty %.0f", res.Request.Penalty))
	}
	return res
}

// GetRequest retrieves a single request with its book snapshot.
// Returns gorm.ErrRecordNotFound when the request does not exist.
func (s *Service) GetRequest(id uint) (*entities.BorrowRequest, error) {
	return requests.NewRepository(s.db.DB).GetByID(id)
}

// ListRequests returns one page of requests filtered by status.
func (s *Service) ListRequests(status entities.RequestStatus, order pagination.Order, params pagination.Params) (pagination.Page[entities.BorrowRequest], error) {
	items, total, err := requests.NewRepository(s.db.DB).List(status, order, params)
	if err != nil {
		return pagination.Page[entities.BorrowRequest]{}, err
	}
	return pagination.NewPage(items, total, params), nil
}

// ListUserRequests returns all of a reader's requests wrapped as a
// single page.
func (s *Service) ListUserRequests(readerID string) (pagination.Page[entities.BorrowRequest], error) {
	items, err := requests.NewRepository(s.db.DB).ListByReader(readerID)
	if err != nil {
		return pagination.Page[entities.BorrowRequest]{}, err
	}
	return pagination.SinglePage(items), nil
}

// DaysLate returns the number of whole calendar days (UTC) the return
// date falls after the end date, clamped at zero. Returning on or
// before the end date never earns credit.
func DaysLate(returnDate, endDate time.Time) int {
	r := returnDate.UTC().Truncate(24 * time.Hour)
	e := endDate.UTC().Truncate(24 * time.Hour)
	days := int(r.Sub(e).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

func storeFailure(op string, err error) string {
	log.Printf("Store failure during %s: %v", op, err)
	return "the operation could not be completed"
}

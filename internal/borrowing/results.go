package borrowing

import "github.com/mrlokans/lexora/internal/entities"

// FailureKind enumerates the reported (non-fatal) outcomes of lifecycle
// operations. The zero value means the operation succeeded.
type FailureKind string

const (
	FailureNone               FailureKind = ""
	FailureNoBooksRequested   FailureKind = "no_books_requested"
	FailureNoBooksAvailable   FailureKind = "no_books_available"
	FailureDuplicatePending   FailureKind = "duplicate_pending_request"
	FailureRequestNotFound    FailureKind = "request_not_found"
	FailureRequestNotPending  FailureKind = "request_not_pending"
	FailureOutstandingPenalty FailureKind = "outstanding_penalty"
	FailureBooksUnavailable   FailureKind = "books_unavailable"
	FailureNotReturnable      FailureKind = "not_returnable"
	FailureStore              FailureKind = "store_failure"
)

// CreationResult reports the outcome of creating a borrow request.
type CreationResult struct {
	Request *entities.BorrowRequest `json:"request,omitempty"`
	Kind    FailureKind             `json:"kind,omitempty"`
	Reason  string                  `json:"reason,omitempty"`
}

func (r CreationResult) Succeeded() bool {
	return r.Kind == FailureNone
}

// ApprovalResult reports the outcome of approving a request.
// UnavailableCount is set only for FailureBooksUnavailable.
type ApprovalResult struct {
	Request          *entities.BorrowRequest `json:"request,omitempty"`
	Kind             FailureKind             `json:"kind,omitempty"`
	Reason           string                  `json:"reason,omitempty"`
	UnavailableCount int                     `json:"unavailable_count,omitempty"`
}

func (r ApprovalResult) Succeeded() bool {
	return r.Kind == FailureNone
}

// RejectionResult reports the outcome of rejecting a request.
type RejectionResult struct {
	Request *entities.BorrowRequest `json:"request,omitempty"`
	Kind    FailureKind             `json:"kind,omitempty"`
	Reason  string                  `json:"reason,omitempty"`
}

func (r RejectionResult) Succeeded() bool {
	return r.Kind == FailureNone
}

// ReturnResult reports the outcome of returning a request.
type ReturnResult struct {
	Request *entities.BorrowRequest `json:"request,omitempty"`
	Kind    FailureKind             `json:"kind,omitempty"`
	Reason  string                  `json:"reason,omitempty"`
}

func (r ReturnResult) Succeeded() bool {
	return r.Kind == FailureNone
}

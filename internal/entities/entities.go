package entities

import (
	"time"

	"gorm.io/gorm"
)

type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
	RequestStatusReturned RequestStatus = "returned"
)

// ParseRequestStatus maps a query-parameter value to a status,
// falling back to the given default for unrecognized input.
func ParseRequestStatus(value string, fallback RequestStatus) RequestStatus {
	switch RequestStatus(value) {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected, RequestStatusReturned:
		return RequestStatus(value)
	default:
		return fallback
	}
}

type UserRole string

const (
	UserRoleReader    UserRole = "reader"
	UserRoleLibrarian UserRole = "librarian"
)

type Book struct {
	ID                uint           `gorm:"primaryKey" json:"id"`
	Title             string         `gorm:"index;size:512" json:"title"`
	Author            string         `gorm:"index;size:256" json:"author"`
	ISBN              string         `gorm:"index;size:20" json:"isbn,omitempty"`
	Description       string         `gorm:"type:text" json:"description,omitempty"`
	PublicationDate   time.Time      `gorm:"index" json:"publication_date"`
	TotalQuantity     int            `json:"total_quantity"`
	AvailableQuantity int            `json:"available_quantity"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// BorrowRequest is the lifecycle aggregate. Books holds the snapshot of
// which books were requested, recorded at creation time through the
// request_books join table and never re-queried from live catalog state.
type BorrowRequest struct {
	ID          uint          `gorm:"primaryKey" json:"id"`
	Status      RequestStatus `gorm:"index;size:20;default:'pending'" json:"status"`
	ReaderID    string        `gorm:"index;size:64" json:"reader_id"`
	LibrarianID *string       `gorm:"size:64" json:"librarian_id,omitempty"`
	Duration    int           `json:"duration"` // requested borrow duration in days
	StartDate   *time.Time    `json:"start_date,omitempty"`
	EndDate     *time.Time    `json:"end_date,omitempty"`
	PickUpDate  *time.Time    `json:"pickup_date,omitempty"`
	ReturnDate  *time.Time    `json:"return_date,omitempty"`
	Penalty     float64       `gorm:"default:0" json:"penalty"`
	Books       []Book        `gorm:"many2many:request_books;" json:"books,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}

// BookIDs returns the ids of the request's book snapshot.
func (r *BorrowRequest) BookIDs() []uint {
	ids := make([]uint, 0, len(r.Books))
	for _, b := range r.Books {
		ids = append(ids, b.ID)
	}
	return ids
}

type User struct {
	ID           uint           `gorm:"primaryKey" json:"id"`
	Username     string         `gorm:"uniqueIndex;size:100" json:"username"`
	Email        string         `gorm:"uniqueIndex;size:255" json:"email"`
	PasswordHash string         `gorm:"size:255" json:"-"`
	Role         UserRole       `gorm:"size:20;default:'reader'" json:"role"`
	TokenHash    string         `gorm:"index;size:64" json:"-"` // SHA-256 of the API token
	LastLoginAt  *time.Time     `json:"last_login_at,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// AuditEvent records a lifecycle transition or overdue notice.
type AuditEvent struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	CorrelationID string    `gorm:"index;size:36" json:"correlation_id"`
	Action        string    `gorm:"index;size:50" json:"action"`
	RequestID     *uint     `gorm:"index" json:"request_id,omitempty"`
	ActorID       string    `gorm:"index;size:64" json:"actor_id,omitempty"`
	Description   string    `gorm:"type:text" json:"description,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

func (Book) TableName() string {
	return "books"
}

func (BorrowRequest) TableName() string {
	return "borrow_requests"
}

func (User) TableName() string {
	return "users"
}

func (AuditEvent) TableName() string {
	return "audit_events"
}

// Package requests provides database operations for borrow requests.
//
// A request's Books association is a snapshot taken at creation time:
// the join rows are written once and never updated afterwards. Reads
// preload the snapshot unscoped so it stays intact even when a book is
// later removed from the catalog.
package requests

import (
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lexora/internal/entities"
	"github.com/mrlokans/lexora/internal/pagination"
)

// Repository handles all borrow-request database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new borrow-request repository. Pass a
// transaction handle to scope all operations to that transaction.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func preloadSnapshot(db *gorm.DB) *gorm.DB {
	return db.Unscoped()
}

// Create persists a new request together with its book snapshot.
func (r *Repository) Create(request *entities.BorrowRequest) error {
	// Omit upserting the associated books themselves; only join rows
	// are written for the snapshot.
	return r.db.Omit("Books.*").Create(request).Error
}

// GetByID retrieves a request with its book snapshot. Returns
// gorm.ErrRecordNotFound when the request does not exist.
func (r *Repository) GetByID(id uint) (*entities.BorrowRequest, error) {
	var request entities.BorrowRequest
	err := r.db.Preload("Books", preloadSnapshot).First(&request, id).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

// Save persists modifications to an existing request. The book snapshot
// is deliberately not written back.
func (r *Repository) Save(request *entities.BorrowRequest) error {
	return r.db.Omit("Books").Save(request).Error
}

// List returns one page of requests with the given status, ordered by
// id.
func (r *Repository) List(status entities.RequestStatus, order pagination.Order, params pagination.Params) ([]entities.BorrowRequest, int64, error) {
	params = params.Normalize()

	var total int64
	if err := r.db.Model(&entities.BorrowRequest{}).Where("status = ?", status).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	direction := "DESC"
	if order == pagination.OrderAscending {
		direction = "ASC"
	}

	var requests []entities.BorrowRequest
	err := r.db.Preload("Books", preloadSnapshot).
		Where("status = ?", status).
		Order("id " + direction).
		Limit(params.Size).
		Offset(params.Offset()).
		Find(&requests).Error
	return requests, total, err
}

// ListByReader returns all requests made by a reader, newest first.
func (r *Repository) ListByReader(readerID string) ([]entities.BorrowRequest, error) {
	var requests []entities.BorrowRequest
	err := r.db.Preload("Books", preloadSnapshot).
		Where("reader_id = ?", readerID).
		Order("id DESC").
		Find(&requests).Error
	return requests, err
}

// ListOverdue returns approved requests whose end date has passed.
func (r *Repository) ListOverdue(now time.Time) ([]entities.BorrowRequest, error) {
	var requests []entities.BorrowRequest
	err := r.db.Where("status = ? AND end_date < ?", entities.RequestStatusApproved, now).
		Find(&requests).Error
	return requests, err
}

// HasPendingRequest reports whether the reader already has a request in
// pending status.
func (r *Repository) HasPendingRequest(readerID string) (bool, error) {
	var count int64
	err := r.db.Model(&entities.BorrowRequest{}).
		Where("reader_id = ? AND status = ?", readerID, entities.RequestStatusPending).
		Count(&count).Error
	return count > 0, err
}

// HasOutstandingPenalty reports whether the reader has any other
// request carrying a penalty greater than zero.
func (r *Repository) HasOutstandingPenalty(readerID string, excludeRequestID uint) (bool, error) {
	var count int64
	err := r.db.Model(&entities.BorrowRequest{}).
		Where("reader_id = ? AND id <> ? AND penalty > 0", readerID, excludeRequestID).
		Count(&count).Error
	return count > 0, err
}

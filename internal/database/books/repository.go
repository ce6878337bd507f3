// Package books provides database operations for the book inventory.
//
// Availability counters are only mutated through DecrementAvailability
// and IncrementAvailability, and only by the borrowing engine inside a
// transaction that has already validated the counts. Catalog edits never
// touch quantities.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetByID(42)
package books

import (
	"gorm.io/gorm"

	"github.com/mrlokans/lexora/internal/entities"
	"github.com/mrlokans/lexora/internal/pagination"
)

// SortBy enumerates the catalog sort keys. Anything else falls back to
// id order.
type SortBy string

const (
	SortByPublicationDate SortBy = "publication_date"
	SortByTitle           SortBy = "title"
	SortByAuthor          SortBy = "author"
)

// ParseSortBy maps a query-parameter value to a sort key. Unrecognized
// values return the empty SortBy, which sorts by id.
func ParseSortBy(value string) SortBy {
	switch SortBy(value) {
	case SortByPublicationDate, SortByTitle, SortByAuthor:
		return SortBy(value)
	default:
		return ""
	}
}

// Repository handles all book inventory database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository. Pass a transaction
// handle to scope all operations to that transaction.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetByID retrieves a single book. Returns gorm.ErrRecordNotFound when
// the book does not exist.
func (r *Repository) GetByID(id uint) (*entities.Book, error) {
	var book entities.Book
	if err := r.db.First(&book, id).Error; err != nil {
		return nil, err
	}
	return &book, nil
}

// GetByIDs retrieves the subset of the given ids that exists. Unknown
// ids are skipped silently; callers must check the returned length.
func (r *Repository) GetByIDs(ids []uint) ([]entities.Book, error) {
	var books []entities.Book
	if len(ids) == 0 {
		return books, nil
	}
	err := r.db.Where("id IN ?", ids).Find(&books).Error
	return books, err
}

// List returns one page of books plus the total count. The default sort
// is publication date.
func (r *Repository) List(sortBy SortBy, order pagination.Order, params pagination.Params) ([]entities.Book, int64, error) {
	params = params.Normalize()

	var total int64
	if err := r.db.Model(&entities.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	column := "id"
	switch sortBy {
	case SortByPublicationDate:
		column = "publication_date"
	case SortByTitle:
		column = "title"
	case SortByAuthor:
		column = "author"
	}

	direction := "ASC"
	if order == pagination.OrderDescending {
		direction = "DESC"
	}

	var books []entities.Book
	err := r.db.Order(column + " " + direction).
		Limit(params.Size).
		Offset(params.Offset()).
		Find(&books).Error
	return books, total, err
}

// Create persists a new book.
func (r *Repository) Create(book *entities.Book) error {
	return r.db.Create(book).Error
}

// Save persists modifications to an existing book.
func (r *Repository) Save(book *entities.Book) error {
	return r.db.Save(book).Error
}

// Delete soft-deletes a book. Returns false when the id does not exist.
func (r *Repository) Delete(id uint) (bool, error) {
	result := r.db.Delete(&entities.Book{}, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// DecrementAvailability reduces each book's available count by one.
// It does not re-validate counts; the caller must have checked
// availability inside the same transaction.
func (r *Repository) DecrementAvailability(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&entities.Book{}).
		Where("id IN ?", ids).
		UpdateColumn("available_quantity", gorm.Expr("available_quantity - 1")).Error
}

// IncrementAvailability raises each book's available count by one.
// Increments pair 1:1 with prior decrements, so no upper-bound check is
// performed against the total.
func (r *Repository) IncrementAvailability(ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	return r.db.Model(&entities.Book{}).
		Where("id IN ?", ids).
		UpdateColumn("available_quantity", gorm.Expr("available_quantity + 1")).Error
}

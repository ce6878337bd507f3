// Package catalog manages the book catalog: creation, partial edits,
// listing and removal. Quantities are owned by the borrowing engine and
// are never modified through catalog edits.
package catalog

import (
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/mrlokans/lexora/internal/database"
	"github.com/mrlokans/lexora/internal/database/books"
	"github.com/mrlokans/lexora/internal/entities"
	"github.com/mrlokans/lexora/internal/pagination"
)

var ErrBookNotFound = errors.New("book not found")

// Publication dates further ahead than this are rejected as invalid.
const publicationDateCutoff = 365 * 24 * time.Hour

// ValidationError carries per-field validation messages.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// NewBookInput is the payload for adding a book. AvailableQuantity is
// derived from TotalQuantity, never supplied.
type NewBookInput struct {
	Title           string    `json:"title"`
	Author          string    `json:"author"`
	ISBN            string    `json:"isbn"`
	Description     string    `json:"description"`
	PublicationDate time.Time `json:"publication_date"`
	TotalQuantity   int       `json:"total_quantity"`
}

// UpdateBookInput is the payload for a partial edit. Nil or blank
// fields are left unchanged. ISBN and quantities cannot be edited.
type UpdateBookInput struct {
	Title           *string    `json:"title"`
	Author          *string    `json:"author"`
	Description     *string    `json:"description"`
	PublicationDate *time.Time `json:"publication_date"`
}

// Service handles catalog operations.
type Service struct {
	db *database.Database
}

// NewService creates a new catalog service.
func NewService(db *database.Database) *Service {
	return &Service{db: db}
}

// AddBook validates and persists a new book with available = total.
func (s *Service) AddBook(input NewBookInput) (*entities.Book, error) {
	fields := map[string]string{}
	if strings.TrimSpace(input.Title) == "" {
		fields["title"] = "must not be blank"
	}
	if strings.TrimSpace(input.Author) == "" {
		fields["author"] = "must not be blank"
	}
	if input.TotalQuantity <= 0 {
		fields["total_quantity"] = "must be positive"
	}
	if msg, ok := validatePublicationDate(input.PublicationDate); !ok {
		fields["publication_date"] = msg
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	book := &entities.Book{
		Title:             strings.TrimSpace(input.Title),
		Author:            strings.TrimSpace(input.Author),
		ISBN:              strings.TrimSpace(input.ISBN),
		Description:       input.Description,
		PublicationDate:   input.PublicationDate,
		TotalQuantity:     input.TotalQuantity,
		AvailableQuantity: input.TotalQuantity,
	}
	if err := books.NewRepository(s.db.DB).Create(book); err != nil {
		return nil, err
	}
	return book, nil
}

// EditBook applies a partial edit. Blank strings are ignored, matching
// the "leave unchanged" contract of the update payload.
func (s *Service) EditBook(id uint, input UpdateBookInput) (*entities.Book, error) {
	repo := books.NewRepository(s.db.DB)
	book, err := repo.GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if input.PublicationDate != nil {
		if msg, ok := validatePublicationDate(*input.PublicationDate); !ok {
			fields["publication_date"] = msg
		}
	}
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		book.Title = strings.TrimSpace(*input.Title)
	}
	if input.Author != nil && strings.TrimSpace(*input.Author) != "" {
		book.Author = strings.TrimSpace(*input.Author)
	}
	if input.Description != nil && strings.TrimSpace(*input.Description) != "" {
		book.Description = *input.Description
	}
	if input.PublicationDate != nil && !input.PublicationDate.IsZero() {
		book.PublicationDate = *input.PublicationDate
	}

	if err := repo.Save(book); err != nil {
		return nil, err
	}
	return book, nil
}

// GetBook retrieves a single book.
func (s *Service) GetBook(id uint) (*entities.Book, error) {
	book, err := books.NewRepository(s.db.DB).GetByID(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	return book, err
}

// ListBooks returns one page of the catalog.
func (s *Service) ListBooks(sortBy books.SortBy, order pagination.Order, params pagination.Params) (pagination.Page[entities.Book], error) {
	items, total, err := books.NewRepository(s.db.DB).List(sortBy, order, params)
	if err != nil {
		return pagination.Page[entities.Book]{}, err
	}
	return pagination.NewPage(items, total, params), nil
}

// DeleteBook removes a book from the catalog.
func (s *Service) DeleteBook(id uint) error {
	deleted, err := books.NewRepository(s.db.DB).Delete(id)
	if err != nil {
		return err
	}
	if !deleted {
		return ErrBookNotFound
	}
	return nil
}

func validatePublicationDate(date time.Time) (string, bool) {
	if date.IsZero() {
		return "", true
	}
	if time.Until(date) > publicationDateCutoff {
		return "must not be more than a year in the future", false
	}
	return "", true
}

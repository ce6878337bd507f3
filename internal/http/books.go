package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lexora/internal/catalog"
	"github.com/mrlokans/lexora/internal/database/books"
	"github.com/mrlokans/lexora/internal/pagination"
)

type BooksController struct {
	catalog *catalog.Service
}

func NewBooksController(catalogService *catalog.Service) *BooksController {
	return &BooksController{catalog: catalogService}
}

// ListBooks returns one page of the catalog. Sort defaults to
// publication date ascending.
func (controller *BooksController) ListBooks(c *gin.Context) {
	params := pagination.Params{
		Page: parseQueryInt(c, "page", 1),
		Size: parseQueryInt(c, "size", 10),
	}
	sortBy := books.ParseSortBy(c.DefaultQuery("sort_by", string(books.SortByPublicationDate)))
	order := pagination.ParseOrder(c.Query("order"), pagination.OrderAscending)

	page, err := controller.catalog.ListBooks(sortBy, order, params)
	if err != nil {
		respondInternalError(c, err, "list books")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (controller *BooksController) GetBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	book, err := controller.catalog.GetBook(id)
	if errors.Is(err, catalog.ErrBookNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get book")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) AddBook(c *gin.Context) {
	var input catalog.NewBookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := controller.catalog.AddBook(input)
	var vErr *catalog.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: vErr.Fields})
		return
	}
	if err != nil {
		respondInternalError(c, err, "add book")
		return
	}
	c.JSON(http.StatusCreated, book)
}

func (controller *BooksController) EditBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	var input catalog.UpdateBookInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	book, err := controller.catalog.EditBook(id, input)
	if errors.Is(err, catalog.ErrBookNotFound) {
		respondNotFound(c, "book")
		return
	}
	var vErr *catalog.ValidationError
	if errors.As(err, &vErr) {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "validation failed", Details: vErr.Fields})
		return
	}
	if err != nil {
		respondInternalError(c, err, "edit book")
		return
	}
	c.JSON(http.StatusOK, book)
}

func (controller *BooksController) DeleteBook(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	err := controller.catalog.DeleteBook(id)
	if errors.Is(err, catalog.ErrBookNotFound) {
		respondNotFound(c, "book")
		return
	}
	if err != nil {
		respondInternalError(c, err, "delete book")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "book deleted"})
}

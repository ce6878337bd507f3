package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/mrlokans/lexora/internal/auth"
	"github.com/mrlokans/lexora/internal/borrowing"
	"github.com/mrlokans/lexora/internal/entities"
	"github.com/mrlokans/lexora/internal/pagination"
)

const defaultBorrowDurationDays = 14

type RequestsController struct {
	borrowing *borrowing.Service
}

func NewRequestsController(borrowingService *borrowing.Service) *RequestsController {
	return &RequestsController{borrowing: borrowingService}
}

type createRequestInput struct {
	BookIDs  []uint `json:"book_ids"`
	Duration int    `json:"duration"`
}

// CreateRequest opens a pending borrow request for the authenticated
// reader.
func (controller *RequestsController) CreateRequest(c *gin.Context) {
	var input createRequestInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}
	if input.Duration <= 0 {
		input.Duration = defaultBorrowDurationDays
	}

	result := controller.borrowing.Create(auth.GetUserID(c), input.BookIDs, input.Duration)
	if !result.Succeeded() {
		respondLifecycleFailure(c, result.Kind, result.Reason)
		return
	}
	c.JSON(http.StatusCreated, result.Request)
}

// ListRequests returns one page of requests filtered by status,
// defaulting to pending ones newest first.
func (controller *RequestsController) ListRequests(c *gin.Context) {
	params := pagination.Params{
		Page: parseQueryInt(c, "page", 1),
		Size: parseQueryInt(c, "size", 10),
	}
	status := entities.ParseRequestStatus(c.Query("status"), entities.RequestStatusPending)
	order := pagination.ParseOrder(c.Query("order"), pagination.OrderDescending)

	page, err := controller.borrowing.ListRequests(status, order, params)
	if err != nil {
		respondInternalError(c, err, "list requests")
		return
	}
	c.JSON(http.StatusOK, page)
}

// ListUserRequests returns the full request history of the
// authenticated reader.
func (controller *RequestsController) ListUserRequests(c *gin.Context) {
	page, err := controller.borrowing.ListUserRequests(auth.GetUserID(c))
	if err != nil {
		respondInternalError(c, err, "list user requests")
		return
	}
	c.JSON(http.StatusOK, page)
}

func (controller *RequestsController) GetRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	request, err := controller.borrowing.GetRequest(id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		respondNotFound(c, "request")
		return
	}
	if err != nil {
		respondInternalError(c, err, "get request")
		return
	}
	c.JSON(http.StatusOK, request)
}

// ApproveRequest approves a request on behalf of the authenticated
// librarian.
func (controller *RequestsController) ApproveRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result := controller.borrowing.Approve(id, auth.GetUserID(c))
	if !result.Succeeded() {
		respondLifecycleFailure(c, result.Kind, result.Reason)
		return
	}
	c.JSON(http.StatusOK, result.Request)
}

// ActRequest dispatches an approve or reject decision taken from the
// action query parameter.
func (controller *RequestsController) ActRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	switch c.Query("action") {
	case "approve":
		result := controller.borrowing.Approve(id, auth.GetUserID(c))
		if !result.Succeeded() {
			respondLifecycleFailure(c, result.Kind, result.Reason)
			return
		}
		c.JSON(http.StatusOK, result.Request)
	case "reject":
		result := controller.borrowing.Reject(id, auth.GetUserID(c))
		if !result.Succeeded() {
			respondLifecycleFailure(c, result.Kind, result.Reason)
			return
		}
		c.JSON(http.StatusOK, result.Request)
	default:
		respondBadRequest(c, "action must be approve or reject")
	}
}

// ReturnRequest closes out an approved request and reports the accrued
// penalty, if any.
func (controller *RequestsController) ReturnRequest(c *gin.Context) {
	id, ok := parseIDParam(c, "id")
	if !ok {
		return
	}

	result := controller.borrowing.Return(id)
	if !result.Succeeded() {
		respondLifecycleFailure(c, result.Kind, result.Reason)
		return
	}
	c.JSON(http.StatusOK, result.Request)
}

// respondLifecycleFailure maps engine failure kinds onto HTTP statuses.
func respondLifecycleFailure(c *gin.Context, kind borrowing.FailureKind, reason string) {
	switch kind {
	case borrowing.FailureRequestNotFound:
		respondNotFound(c, "request")
	case borrowing.FailureNoBooksRequested, borrowing.FailureNoBooksAvailable:
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: reason, Code: string(kind)})
	case borrowing.FailureStore:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: reason, Code: string(kind)})
	default:
		respondConflict(c, reason, string(kind))
	}
}

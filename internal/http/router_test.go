package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mrlokans/lexora/internal/auth"
	"github.com/mrlokans/lexora/internal/borrowing"
	"github.com/mrlokans/lexora/internal/catalog"
	"github.com/mrlokans/lexora/internal/config"
	"github.com/mrlokans/lexora/internal/database"
	"github.com/mrlokans/lexora/internal/entities"
)

const testAPIPassword = "correct-horse-battery"

type testAPI struct {
	router         *gin.Engine
	db             *database.Database
	catalog        *catalog.Service
	readerToken    string
	librarianToken string
	readerID       uint
}

func setupTestAPI(t *testing.T) (*testAPI, func()) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dbPath := "./test_http_" + strings.ReplaceAll(t.Name(), "/", "_") + ".db"
	db, err := database.NewDatabase(dbPath)
	require.NoError(t, err)

	authService := auth.NewService(db.DB, config.Auth{BcryptCost: 4})
	catalogService := catalog.NewService(db)
	borrowingService := borrowing.NewService(db, nil)

	reader, err := authService.CreateUser("reader", "reader@example.com", testAPIPassword, entities.UserRoleReader)
	require.NoError(t, err)
	readerToken, err := authService.IssueToken(reader)
	require.NoError(t, err)

	librarian, err := authService.CreateUser("librarian", "librarian@example.com", testAPIPassword, entities.UserRoleLibrarian)
	require.NoError(t, err)
	librarianToken, err := authService.IssueToken(librarian)
	require.NoError(t, err)

	router := NewRouter(RouterConfig{
		Database:       db,
		AuthService:    authService,
		AuthMiddleware: auth.NewMiddleware(authService),
		Catalog:        catalogService,
		Borrowing:      borrowingService,
		Version:        "test",
	})

	api := &testAPI{
		router:         router,
		db:             db,
		catalog:        catalogService,
		readerToken:    readerToken,
		librarianToken: librarianToken,
		readerID:       reader.ID,
	}
	cleanup := func() {
		db.Close()
		os.Remove(dbPath)
	}
	return api, cleanup
}

func (api *testAPI) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	recorder := httptest.NewRecorder()
	api.router.ServeHTTP(recorder, req)
	return recorder
}

func (api *testAPI) addBook(t *testing.T, title string, total int) uint {
	t.Helper()
	book, err := api.catalog.AddBook(catalog.NewBookInput{
		Title:           title,
		Author:          "Test Author",
		PublicationDate: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC),
		TotalQuantity:   total,
	})
	require.NoError(t, err)
	return book.ID
}

func decodeJSON(t *testing.T, recorder *httptest.ResponseRecorder, target any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), target))
}

func TestHealthAndPing(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	recorder := api.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = api.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "pong")
}

func TestLogin(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	recorder := api.do(t, http.MethodPost, "/api/login", "", loginInput{
		Username: "reader",
		Password: testAPIPassword,
	})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response struct {
		Token string       `json:"token"`
		User  userResponse `json:"user"`
	}
	decodeJSON(t, recorder, &response)
	assert.NotEmpty(t, response.Token)
	assert.Equal(t, entities.UserRoleReader, response.User.Role)

	recorder = api.do(t, http.MethodPost, "/api/login", "", loginInput{
		Username: "reader",
		Password: "definitely-wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)
}

func TestRegister(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	recorder := api.do(t, http.MethodPost, "/api/register", "", registerInput{
		Username: "newreader",
		Email:    "new@example.com",
		Password: testAPIPassword,
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var user userResponse
	decodeJSON(t, recorder, &user)
	assert.Equal(t, entities.UserRoleReader, user.Role)

	// Duplicate username conflicts
	recorder = api.do(t, http.MethodPost, "/api/register", "", registerInput{
		Username: "newreader",
		Email:    "other@example.com",
		Password: testAPIPassword,
	})
	assert.Equal(t, http.StatusConflict, recorder.Code)

	// Short password fails validation
	recorder = api.do(t, http.MethodPost, "/api/register", "", registerInput{
		Username: "another",
		Email:    "another@example.com",
		Password: "short",
	})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestBooksAreReadableWithoutAuth(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	bookID := api.addBook(t, "Public Book", 3)

	recorder := api.do(t, http.MethodGet, "/api/books", "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = api.do(t, http.MethodGet, fmt.Sprintf("/api/books/%d", bookID), "", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = api.do(t, http.MethodGet, "/api/books/9999", "", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestBookMutationsRequireLibrarian(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	payload := catalog.NewBookInput{
		Title:         "Restricted",
		Author:        "Somebody",
		TotalQuantity: 1,
	}

	recorder := api.do(t, http.MethodPost, "/api/books", "", payload)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = api.do(t, http.MethodPost, "/api/books", api.readerToken, payload)
	assert.Equal(t, http.StatusForbidden, recorder.Code)

	recorder = api.do(t, http.MethodPost, "/api/books", api.librarianToken, payload)
	assert.Equal(t, http.StatusCreated, recorder.Code)
}

func TestAddBookValidation(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	recorder := api.do(t, http.MethodPost, "/api/books", api.librarianToken, catalog.NewBookInput{
		Title:         "",
		Author:        "",
		TotalQuantity: 0,
	})
	require.Equal(t, http.StatusBadRequest, recorder.Code)

	var response struct {
		Error   string            `json:"error"`
		Details map[string]string `json:"details"`
	}
	decodeJSON(t, recorder, &response)
	assert.Contains(t, response.Details, "title")
	assert.Contains(t, response.Details, "author")
	assert.Contains(t, response.Details, "total_quantity")
}

func TestEditAndDeleteBook(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	bookID := api.addBook(t, "Original Title", 2)

	newTitle := "Updated Title"
	recorder := api.do(t, http.MethodPatch, fmt.Sprintf("/api/books/%d", bookID), api.librarianToken,
		catalog.UpdateBookInput{Title: &newTitle})
	require.Equal(t, http.StatusOK, recorder.Code)

	var book entities.Book
	decodeJSON(t, recorder, &book)
	assert.Equal(t, newTitle, book.Title)

	recorder = api.do(t, http.MethodDelete, fmt.Sprintf("/api/books/%d", bookID), api.librarianToken, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	recorder = api.do(t, http.MethodDelete, fmt.Sprintf("/api/books/%d", bookID), api.librarianToken, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestRequestLifecycleOverHTTP(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	bookID := api.addBook(t, "Borrowable", 1)

	// Reader opens a request
	recorder := api.do(t, http.MethodPost, "/api/requests", api.readerToken, createRequestInput{
		BookIDs:  []uint{bookID},
		Duration: 7,
	})
	require.Equal(t, http.StatusCreated, recorder.Code)

	var request entities.BorrowRequest
	decodeJSON(t, recorder, &request)
	assert.Equal(t, entities.RequestStatusPending, request.Status)
	require.Len(t, request.Books, 1)

	// A second pending request conflicts
	recorder = api.do(t, http.MethodPost, "/api/requests", api.readerToken, createRequestInput{
		BookIDs: []uint{bookID},
	})
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "duplicate_pending_request")

	// Librarians see it in the pending queue
	recorder = api.do(t, http.MethodGet, "/api/requests", api.librarianToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)
	var page struct {
		Items []entities.BorrowRequest `json:"items"`
	}
	decodeJSON(t, recorder, &page)
	require.Len(t, page.Items, 1)

	// Approve and verify inventory drained
	recorder = api.do(t, http.MethodPost, fmt.Sprintf("/api/requests/%d/approve", request.ID), api.librarianToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var approved entities.BorrowRequest
	decodeJSON(t, recorder, &approved)
	assert.Equal(t, entities.RequestStatusApproved, approved.Status)
	require.NotNil(t, approved.EndDate)

	book, err := api.catalog.GetBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, 0, book.AvailableQuantity)

	// Return restores inventory, no penalty when on time
	recorder = api.do(t, http.MethodPost, fmt.Sprintf("/api/requests/%d/return", request.ID), api.librarianToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var returned entities.BorrowRequest
	decodeJSON(t, recorder, &returned)
	assert.Equal(t, entities.RequestStatusReturned, returned.Status)
	assert.Zero(t, returned.Penalty)

	book, err = api.catalog.GetBook(bookID)
	require.NoError(t, err)
	assert.Equal(t, 1, book.AvailableQuantity)
}

func TestRejectViaActionEndpoint(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	bookID := api.addBook(t, "Rejectable", 1)

	recorder := api.do(t, http.MethodPost, "/api/requests", api.readerToken, createRequestInput{
		BookIDs: []uint{bookID},
	})
	require.Equal(t, http.StatusCreated, recorder.Code)
	var request entities.BorrowRequest
	decodeJSON(t, recorder, &request)

	recorder = api.do(t, http.MethodPost, fmt.Sprintf("/api/requests/%d/action?action=reject", request.ID), api.librarianToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var rejected entities.BorrowRequest
	decodeJSON(t, recorder, &rejected)
	assert.Equal(t, entities.RequestStatusRejected, rejected.Status)

	// Unknown actions are rejected outright
	recorder = api.do(t, http.MethodPost, fmt.Sprintf("/api/requests/%d/action?action=escalate", request.ID), api.librarianToken, nil)
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestRequestEndpointFailureMapping(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	// Unknown request is a 404
	recorder := api.do(t, http.MethodPost, "/api/requests/9999/approve", api.librarianToken, nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)

	// Empty book list is a 400
	recorder = api.do(t, http.MethodPost, "/api/requests", api.readerToken, createRequestInput{BookIDs: []uint{}})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "no_books_requested")

	// Returning a pending request conflicts
	bookID := api.addBook(t, "Unreturnable", 1)
	recorder = api.do(t, http.MethodPost, "/api/requests", api.readerToken, createRequestInput{BookIDs: []uint{bookID}})
	require.Equal(t, http.StatusCreated, recorder.Code)
	var request entities.BorrowRequest
	decodeJSON(t, recorder, &request)

	recorder = api.do(t, http.MethodPost, fmt.Sprintf("/api/requests/%d/return", request.ID), api.librarianToken, nil)
	assert.Equal(t, http.StatusConflict, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "not_returnable")
}

func TestListUserRequests(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	bookID := api.addBook(t, "History Book", 2)

	recorder := api.do(t, http.MethodPost, "/api/requests", api.readerToken, createRequestInput{BookIDs: []uint{bookID}})
	require.Equal(t, http.StatusCreated, recorder.Code)

	recorder = api.do(t, http.MethodGet, "/api/requests/user", api.readerToken, nil)
	require.Equal(t, http.StatusOK, recorder.Code)

	var page struct {
		Items       []entities.BorrowRequest `json:"items"`
		CurrentPage int                      `json:"current_page"`
	}
	decodeJSON(t, recorder, &page)
	require.Len(t, page.Items, 1)
	assert.Equal(t, fmt.Sprint(api.readerID), page.Items[0].ReaderID)
	assert.Equal(t, 1, page.CurrentPage)

	// Librarians cannot use the reader history endpoint
	recorder = api.do(t, http.MethodGet, "/api/requests/user", api.librarianToken, nil)
	assert.Equal(t, http.StatusForbidden, recorder.Code)
}

func TestGetRequestRequiresAuth(t *testing.T) {
	api, cleanup := setupTestAPI(t)
	defer cleanup()

	bookID := api.addBook(t, "Protected", 1)
	recorder := api.do(t, http.MethodPost, "/api/requests", api.readerToken, createRequestInput{BookIDs: []uint{bookID}})
	require.Equal(t, http.StatusCreated, recorder.Code)
	var request entities.BorrowRequest
	decodeJSON(t, recorder, &request)

	recorder = api.do(t, http.MethodGet, fmt.Sprintf("/api/requests/%d", request.ID), "", nil)
	assert.Equal(t, http.StatusUnauthorized, recorder.Code)

	recorder = api.do(t, http.MethodGet, fmt.Sprintf("/api/requests/%d", request.ID), api.readerToken, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
}

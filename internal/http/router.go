package http

import (
	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lexora/internal/auth"
	"github.com/mrlokans/lexora/internal/borrowing"
	"github.com/mrlokans/lexora/internal/catalog"
	"github.com/mrlokans/lexora/internal/database"
	"github.com/mrlokans/lexora/internal/entities"
)

// RouterConfig carries the router's dependencies. Grouping them in one
// struct keeps NewRouter's signature stable as the API grows.
type RouterConfig struct {
	Database       *database.Database
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	Catalog        *catalog.Service
	Borrowing      *borrowing.Service
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
//
// Read access to the catalog is public. Everything touching requests
// requires a bearer token; mutations are additionally gated by role:
// readers open requests and browse their own history, librarians manage
// the catalog and decide request outcomes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	authController := NewAuthController(cfg.AuthService)
	booksController := NewBooksController(cfg.Catalog)
	requestsController := NewRequestsController(cfg.Borrowing)

	router.GET("/health", health.Health)
	router.GET("/ping", health.Ping)

	router.POST("/api/login", authController.Login)
	router.POST("/api/register", authController.Register)

	router.GET("/api/books", booksController.ListBooks)
	router.GET("/api/books/:id", booksController.GetBook)

	librarianOnly := router.Group("/api", cfg.AuthMiddleware.Handler(), auth.RequireRole(entities.UserRoleLibrarian))
	librarianOnly.POST("/books", booksController.AddBook)
	librarianOnly.PATCH("/books/:id", booksController.EditBook)
	librarianOnly.DELETE("/books/:id", booksController.DeleteBook)
	librarianOnly.GET("/requests", requestsController.ListRequests)
	librarianOnly.POST("/requests/:id/approve", requestsController.ApproveRequest)
	librarianOnly.POST("/requests/:id/action", requestsController.ActRequest)
	librarianOnly.POST("/requests/:id/return", requestsController.ReturnRequest)

	readerOnly := router.Group("/api", cfg.AuthMiddleware.Handler(), auth.RequireRole(entities.UserRoleReader))
	readerOnly.POST("/requests", requestsController.CreateRequest)
	readerOnly.GET("/requests/user", requestsController.ListUserRequests)

	authenticated := router.Group("/api", cfg.AuthMiddleware.Handler())
	authenticated.GET("/requests/:id", requestsController.GetRequest)

	return router
}

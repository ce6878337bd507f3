// Package entrypoint wires the application together and runs the HTTP
// server with graceful shutdown.
package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lexora/internal/audit"
	"github.com/mrlokans/lexora/internal/auth"
	"github.com/mrlokans/lexora/internal/borrowing"
	"github.com/mrlokans/lexora/internal/catalog"
	"github.com/mrlokans/lexora/internal/config"
	"github.com/mrlokans/lexora/internal/database"
	auditrepo "github.com/mrlokans/lexora/internal/database/audit"
	http_controllers "github.com/mrlokans/lexora/internal/http"
	"github.com/mrlokans/lexora/internal/scheduler"
	"github.com/mrlokans/lexora/internal/tasks"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Starting server at %s:%d\n", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// Wait for interrupt before shutting the server down with a timeout.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// Stop background workers before the server drains connections.
	if onShutdown != nil {
		onShutdown(ctx)
	}

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server Shutdown:", err)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Lexora v%s", version)

	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	auditor := audit.NewService(auditrepo.NewRepository(db.DB))
	catalogService := catalog.NewService(db)
	borrowingService := borrowing.NewService(db, auditor)
	authService := auth.NewService(db.DB, cfg.Auth)
	authMiddleware := auth.NewMiddleware(authService)

	hasUsers, _ := authService.HasUsers()
	if !hasUsers {
		log.Printf("No users found. Run '%s create-user' to provision a librarian account.", os.Args[0])
	}

	// Task queue for overdue notices
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.FromConfig(cfg.Tasks))
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewOverdueNoticeQueue(auditor),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)
	}

	// Periodic overdue scan feeding the task queue
	var overdueScan *scheduler.OverdueScanScheduler
	if cfg.OverdueScan.Enabled && taskClient != nil {
		overdueScan = scheduler.NewOverdueScanScheduler(db, auditor, taskClient, cfg.OverdueScan)
		if err := overdueScan.Start(context.Background()); err != nil {
			log.Fatalf("Failed to start overdue scan scheduler: %v", err)
		}
	}

	router := http_controllers.NewRouter(http_controllers.RouterConfig{
		Database:       db,
		AuthService:    authService,
		AuthMiddleware: authMiddleware,
		Catalog:        catalogService,
		Borrowing:      borrowingService,
		Version:        version,
	})

	onShutdown := func(ctx context.Context) {
		if overdueScan != nil {
			overdueScan.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

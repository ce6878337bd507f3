package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lexora/internal/database"
)

type HealthController struct {
	db      *database.Database
	version string
}

func NewHealthController(db *database.Database, version string) *HealthController {
	return &HealthController{db: db, version: version}
}

// Health reports service liveness including database reachability.
func (controller *HealthController) Health(c *gin.Context) {
	if err := controller.db.Ping(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  "database unreachable",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"version": controller.version,
	})
}

// Ping is a bare liveness probe without dependency checks.
func (controller *HealthController) Ping(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"message": "pong"})
}

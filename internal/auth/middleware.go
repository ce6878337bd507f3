package auth

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lexora/internal/entities"
)

// Context keys for the authenticated principal.
const (
	ContextKeyUserID = "auth_user_id"
	ContextKeyRole   = "auth_role"
)

// Middleware authenticates API requests via bearer tokens.
type Middleware struct {
	service *Service
}

// NewMiddleware creates a new authentication middleware.
func NewMiddleware(service *Service) *Middleware {
	return &Middleware{service: service}
}

// Handler resolves the Authorization header to a principal and aborts
// with 401 when the token is missing or invalid.
func (m *Middleware) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}

		user, err := m.service.GetUserByToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ContextKeyUserID, strconv.FormatUint(uint64(user.ID), 10))
		c.Set(ContextKeyRole, user.Role)
		c.Next()
	}
}

// RequireRole aborts with 403 unless the authenticated principal holds
// the given role.
func RequireRole(role entities.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetRole(c) != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}

// GetUserID returns the authenticated user's stable id, or "" when
// unauthenticated.
func GetUserID(c *gin.Context) string {
	if id, ok := c.Get(ContextKeyUserID); ok {
		if s, ok := id.(string); ok {
			return s
		}
	}
	return ""
}

// GetRole returns the authenticated user's role, or "" when
// unauthenticated.
func GetRole(c *gin.Context) entities.UserRole {
	if role, ok := c.Get(ContextKeyRole); ok {
		if r, ok := role.(entities.UserRole); ok {
			return r
		}
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mrlokans/lexora/internal/auth"
	"github.com/mrlokans/lexora/internal/entities"
)

type AuthController struct {
	auth *auth.Service
}

func NewAuthController(authService *auth.Service) *AuthController {
	return &AuthController{auth: authService}
}

type loginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type registerInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type userResponse struct {
	ID       uint              `json:"id"`
	Username string            `json:"username"`
	Email    string            `json:"email"`
	Role     entities.UserRole `json:"role"`
}

// Login exchanges credentials for a fresh bearer token. Any previously
// issued token for the user stops working.
func (controller *AuthController) Login(c *gin.Context) {
	var input loginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := controller.auth.Authenticate(input.Username, input.Password)
	if errors.Is(err, auth.ErrUserNotFound) || errors.Is(err, auth.ErrInvalidPassword) {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid credentials"})
		return
	}
	if err != nil {
		respondInternalError(c, err, "login")
		return
	}

	token, err := controller.auth.IssueToken(user)
	if err != nil {
		respondInternalError(c, err, "issue token")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  toUserResponse(user),
	})
}

// Register creates a reader account. Librarians are provisioned from
// the command line, never through the public API.
func (controller *AuthController) Register(c *gin.Context) {
	var input registerInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := controller.auth.CreateUser(input.Username, input.Email, input.Password, entities.UserRoleReader)
	if errors.Is(err, auth.ErrUserExists) {
		respondConflict(c, "username or email already taken", "user_exists")
		return
	}
	if isRegistrationError(err) {
		respondBadRequest(c, err.Error())
		return
	}
	if err != nil {
		respondInternalError(c, err, "register")
		return
	}
	c.JSON(http.StatusCreated, toUserResponse(user))
}

// isRegistrationError reports whether the error is a user-facing
// validation failure, safe to echo back as-is.
func isRegistrationError(err error) bool {
	for _, known := range []error{
		auth.ErrUsernameRequired,
		auth.ErrUsernameInvalid,
		auth.ErrEmailRequired,
		auth.ErrEmailInvalid,
		auth.ErrPasswordRequired,
		auth.ErrPasswordTooShort,
		auth.ErrPasswordTooLong,
	} {
		if errors.Is(err, known) {
			return true
		}
	}
	return false
}

func toUserResponse(user *entities.User) userResponse {
	return userResponse{
		ID:       user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}
}

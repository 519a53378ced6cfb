package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/api/middleware/auth"
	"github.com/kekopoly/dentetsu/internal/db/mongodb"
	"github.com/kekopoly/dentetsu/internal/models"
)

// UserStore is the account storage used by the auth and user handlers
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

// TokenConfig is what the handlers need to mint tokens
type TokenConfig struct {
	Secret     string
	Expiration int // in hours
}

// AuthHandler handles authentication-related requests
type AuthHandler struct {
	tokens    TokenConfig
	logger    *zap.SugaredLogger
	userStore UserStore
	now       func() time.Time
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(tokens TokenConfig, userStore UserStore, logger *zap.SugaredLogger) *AuthHandler {
	return &AuthHandler{
		tokens:    tokens,
		logger:    logger,
		userStore: userStore,
		now:       time.Now,
	}
}

// RegisterRequest represents a user registration request
type RegisterRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=20"`
	Password string `json:"password" validate:"required,min=8"`
}

// LoginRequest represents a user login request
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse represents an authentication response
type AuthResponse struct {
	UserID   string `json:"userId"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	Token    string `json:"token"`
}

// Register handles user registration
func (h *AuthHandler) Register(c echo.Context) error {
	if h.userStore == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Accounts are not available")
	}

	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	_, err := h.userStore.GetUserByEmail(ctx, req.Email)
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this email already exists")
	}
	if !errors.Is(err, mongodb.ErrUserNotFound) {
		h.logger.Errorf("Error checking for existing user by email: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register user")
	}

	_, err = h.userStore.GetUserByUsername(ctx, req.Username)
	if err == nil {
		return echo.NewHTTPError(http.StatusConflict, "User with this username already exists")
	}
	if !errors.Is(err, mongodb.ErrUserNotFound) {
		h.logger.Errorf("Error checking for existing user by username: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register user")
	}

	user, err := models.NewUser(req.Username, req.Email, req.Password, h.now())
	if err != nil {
		h.logger.Errorf("Failed to hash password: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register user")
	}

	if err := h.userStore.CreateUser(ctx, user); err != nil {
		// lost a race with a concurrent registration
		if errors.Is(err, mongodb.ErrUserExists) {
			return echo.NewHTTPError(http.StatusConflict, "User already exists")
		}
		h.logger.Errorf("Failed to create user: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to register user")
	}

	return h.respondWithToken(c, http.StatusCreated, user)
}

// Login handles user login
func (h *AuthHandler) Login(c echo.Context) error {
	if h.userStore == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Accounts are not available")
	}

	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	user, err := h.userStore.GetUserByEmail(c.Request().Context(), req.Email)
	if err != nil {
		if errors.Is(err, mongodb.ErrUserNotFound) {
			return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
		}
		h.logger.Errorf("Failed to get user by email: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to log in")
	}

	if !user.CheckPassword(req.Password) {
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid email or password")
	}

	return h.respondWithToken(c, http.StatusOK, user)
}

func (h *AuthHandler) respondWithToken(c echo.Context, status int, user *models.User) error {
	token, err := auth.GenerateJWT(user.ID.Hex(), h.tokens.Secret, h.tokens.Expiration)
	if err != nil {
		h.logger.Errorf("Failed to generate JWT: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(status, AuthResponse{
		UserID:   user.ID.Hex(),
		Username: user.Username,
		Email:    user.Email,
		Token:    token,
	})
}

// RefreshToken issues a fresh token for the authenticated user
func (h *AuthHandler) RefreshToken(c echo.Context) error {
	userID := auth.UserID(c)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing or invalid token")
	}

	token, err := auth.GenerateJWT(userID, h.tokens.Secret, h.tokens.Expiration)
	if err != nil {
		h.logger.Errorf("Failed to generate JWT: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to generate token")
	}

	return c.JSON(http.StatusOK, map[string]string{
		"token": token,
	})
}

// Logout is stateless; clients drop their token
func (h *AuthHandler) Logout(c echo.Context) error {
	return c.NoContent(http.StatusNoContent)
}

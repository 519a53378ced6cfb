package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/api/middleware/auth"
	"github.com/kekopoly/dentetsu/internal/db/mongodb"
)

// UserHandler handles user-related requests
type UserHandler struct {
	userStore UserStore
	logger    *zap.SugaredLogger
}

// NewUserHandler creates a new UserHandler
func NewUserHandler(userStore UserStore, logger *zap.SugaredLogger) *UserHandler {
	return &UserHandler{
		userStore: userStore,
		logger:    logger,
	}
}

// UserProfileResponse represents a user profile response
type UserProfileResponse struct {
	UserID    string    `json:"userId"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

// GetProfile returns the account of the authenticated user
func (h *UserHandler) GetProfile(c echo.Context) error {
	if h.userStore == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "Accounts are not available")
	}

	user, err := h.userStore.GetUserByID(c.Request().Context(), auth.UserID(c))
	if errors.Is(err, mongodb.ErrUserNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "User not found")
	}
	if err != nil {
		h.logger.Errorf("Failed to load profile: %v", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to load profile")
	}

	return c.JSON(http.StatusOK, UserProfileResponse{
		UserID:    user.ID.Hex(),
		Username:  user.Username,
		Email:     user.Email,
		CreatedAt: user.CreatedAt,
	})
}

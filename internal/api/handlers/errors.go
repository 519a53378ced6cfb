package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/kekopoly/dentetsu/internal/game/manager"
	"github.com/kekopoly/dentetsu/internal/game/outcome"
	"github.com/kekopoly/dentetsu/internal/game/persistence"
	"github.com/kekopoly/dentetsu/internal/game/turn"
)

// ErrorResponse is the body of a failed game request
type ErrorResponse struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// statusFor maps a game or storage error to an HTTP status
func statusFor(err error) int {
	switch outcome.CodeOf(err) {
	case outcome.CodeNotFound:
		return http.StatusNotFound
	case outcome.CodeNotOwner:
		return http.StatusForbidden
	case outcome.CodeGameOver:
		return http.StatusConflict
	case outcome.CodeAlreadyOwned, outcome.CodeNotEnoughMoney, outcome.CodeHandFull, outcome.CodeNoTarget:
		return http.StatusUnprocessableEntity
	}

	switch {
	case errors.Is(err, persistence.ErrSlotNotFound):
		return http.StatusNotFound
	case errors.Is(err, persistence.ErrInvalidSlot),
		errors.Is(err, manager.ErrTooManyPlayers),
		errors.Is(err, turn.ErrNoSeats):
		return http.StatusBadRequest
	case errors.Is(err, manager.ErrVersionMismatch):
		return http.StatusConflict
	case errors.Is(err, manager.ErrNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusInternalServerError
}

// gameError converts err into an HTTP error, logging the unexpected ones
func gameError(logger *zap.SugaredLogger, action string, err error) error {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Errorf("Failed to %s: %v", action, err)
		return echo.NewHTTPError(status, ErrorResponse{Message: "Failed to " + action})
	}
	return echo.NewHTTPError(status, ErrorResponse{
		Code:    string(outcome.CodeOf(err)),
		Message: err.Error(),
	})
}

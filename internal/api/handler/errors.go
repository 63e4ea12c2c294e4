package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/todoapp/todo-api/internal/core/domain"
)

// toHTTPError maps a service error onto the status and message the client
// sees. Unknown errors become a generic 500 with the cause kept as Internal
// for the central error handler to log.
func toHTTPError(err error) *echo.HTTPError {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		return echo.NewHTTPError(http.StatusBadRequest, ve.Msg)
	case errors.Is(err, domain.ErrUserExists):
		return echo.NewHTTPError(http.StatusConflict, "email already in use")
	case errors.Is(err, domain.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid credentials")
	case errors.Is(err, domain.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
	case errors.Is(err, domain.ErrTodoNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "todo not found")
	case errors.Is(err, domain.ErrIdempotencyBusy):
		return echo.NewHTTPError(http.StatusConflict, domain.ErrIdempotencyBusy.Error())
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, "internal server error").SetInternal(err)
	}
}

// resultLabel classifies err for the metrics result label.
func resultLabel(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrValidation):
		return "invalid"
	case errors.Is(err, domain.ErrTodoNotFound):
		return "not_found"
	case errors.Is(err, domain.ErrIdempotencyBusy):
		return "conflict"
	default:
		return "error"
	}
}

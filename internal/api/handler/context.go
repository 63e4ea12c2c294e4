package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/todoapp/todo-api/internal/auth"
	"github.com/todoapp/todo-api/internal/core/domain"
)

// ctxIdentity returns the identity attached by the Auth middleware. Its
// absence means the route was mounted outside the authenticated group.
func ctxIdentity(c echo.Context) (domain.Identity, error) {
	identity, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return domain.Identity{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	return identity, nil
}

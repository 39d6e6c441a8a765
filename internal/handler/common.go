// Package handler implements the HTTP surface. Every response is shaped
// {success, message?, ...payload}; errors are converted at this boundary
// and never propagate past it.
package handler

import (
	"context"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mahmodz/points-rank-server/internal/apperr"
	"github.com/mahmodz/points-rank-server/internal/auth"
)

// reqTimeout bounds every store round-trip started from a handler.
const reqTimeout = 5 * time.Second

func reqCtx(c echo.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request().Context(), reqTimeout)
}

// respond writes a success envelope. payload may be nil.
func respond(c echo.Context, status int, payload echo.Map) error {
	body := echo.Map{"success": true}
	for k, v := range payload {
		body[k] = v
	}
	return c.JSON(status, body)
}

// fail converts any error into the uniform failure envelope. The status
// comes from the error's class; message text is surfaced as-is, including
// raw store errors (accepted for this service's scope).
func fail(c echo.Context, err error) error {
	return c.JSON(apperr.Status(err), echo.Map{
		"success": false,
		"message": err.Error(),
	})
}

// requireAdmin gates privileged routes on the injected policy. The caller
// supplies adminEmail in the body or query; there is no session check here
// beyond the policy match.
func requireAdmin(p auth.Policy, email string) error {
	if !p.IsAdmin(email) {
		return apperr.Forbidden("Access denied. Admin privileges required.")
	}
	return nil
}

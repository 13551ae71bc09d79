package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/civicbeacon/reputation-system/internal/core/domain"
)

// ctxClaims extracts the auth claims injected by the Auth middleware and
// performs a fast-fail check before any service call:
//   - role must be non-empty (presence proves the middleware ran).
//   - citizen role requires a non-empty citizen_id; without it the JWT is
//     structurally valid but operationally unusable, reject with 401.
func ctxClaims(c echo.Context) (role, citizenID string, err error) {
	role, _ = c.Get("role").(string)
	if role == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}

	citizenID, _ = c.Get("citizen_id").(string)
	if role == domain.RoleCitizen && citizenID == "" {
		return "", "", echo.NewHTTPError(http.StatusUnauthorized, "token missing citizen identity")
	}

	return role, citizenID, nil
}

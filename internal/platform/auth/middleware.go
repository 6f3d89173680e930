package auth

import (
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
)

// Middleware authenticates requests via a Bearer access token and stores
// the resulting Identity on the request context. Requests without a valid
// token are rejected.
func Middleware(tm *TokenManager) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return apperr.Unauthorized("missing authorization header")
			}
			parts := strings.SplitN(header, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return apperr.Unauthorized("authorization header must be a bearer token")
			}
			id, err := tm.VerifyAccess(strings.TrimSpace(parts[1]))
			if err != nil {
				return apperr.Unauthorized("invalid or expired token")
			}
			ctx := WithIdentity(c.Request().Context(), id)
			c.SetRequest(c.Request().WithContext(ctx))
			return next(c)
		}
	}
}

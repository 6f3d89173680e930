package auth

import (
	"github.com/labstack/echo/v4"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
)

// RequireRole restricts a route to the listed roles. It must run after
// Middleware so the identity is present on the request context.
func RequireRole(roles ...Role) echo.MiddlewareFunc {
	allowed := make(map[Role]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, ok := IdentityFromContext(c.Request().Context())
			if !ok {
				return apperr.Unauthorized("authentication required")
			}
			if _, ok := allowed[id.Role]; !ok {
				return apperr.Permission("role %s may not access this resource", id.Role)
			}
			return next(c)
		}
	}
}

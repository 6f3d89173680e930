// Package middleware holds the echo middleware shared by every route:
// request ids, structured request logging, panic recovery, security
// headers, per-client rate limiting, request deadlines and the access
// audit trail for clinical data.
package middleware

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const requestIDHeader = "X-Request-ID"

// RequestID assigns each request an id, honoring one supplied by the
// client, and echoes it back on the response.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rid := c.Request().Header.Get(requestIDHeader)
			if rid == "" {
				rid = uuid.NewString()
			}
			c.Set("request_id", rid)
			c.Response().Header().Set(requestIDHeader, rid)
			return next(c)
		}
	}
}

func requestIDFrom(c echo.Context) string {
	rid, _ := c.Get("request_id").(string)
	return rid
}

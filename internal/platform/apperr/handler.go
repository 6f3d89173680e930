package apperr

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

// errorBody is the JSON envelope for error responses. Field-level validation
// errors are returned under "fields" so clients can attach messages to inputs.
type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HTTPErrorHandler returns an echo error handler that maps application errors
// to their status codes and hides internal causes behind a generic message.
func HTTPErrorHandler(logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		body := errorBody{Error: "internal server error"}

		var ae *Error
		var he *echo.HTTPError
		switch {
		case errors.As(err, &ae):
			status = ae.Status
			body.Error = ae.Message
			body.Fields = ae.Fields
			if status == http.StatusInternalServerError {
				logger.Error().Err(errors.Unwrap(ae)).Str("path", c.Request().URL.Path).Msg("internal error")
				body.Error = "internal server error"
			}
		case errors.As(err, &he):
			status = he.Code
			if msg, ok := he.Message.(string); ok {
				body.Error = msg
			} else {
				body.Error = http.StatusText(status)
			}
		default:
			logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("unhandled error")
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(status)
			return
		}
		_ = c.JSON(status, body)
	}
}

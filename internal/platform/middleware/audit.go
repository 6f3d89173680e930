package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
)

// AuditEntry captures one access to clinical data: who, what, when, from
// where and the outcome.
type AuditEntry struct {
	UserID     string
	UserRole   string
	Resource   string
	Action     string
	IPAddress  string
	UserAgent  string
	Path       string
	Method     string
	Timestamp  time.Time
	RequestID  string
	StatusCode int
}

// AuditRecorder persists audit entries. Tests provide a mock; production
// falls back to the structured log alone.
type AuditRecorder interface {
	RecordAccess(entry AuditEntry) error
}

// AuditRecorderFunc adapts a function to AuditRecorder.
type AuditRecorderFunc func(entry AuditEntry) error

func (f AuditRecorderFunc) RecordAccess(entry AuditEntry) error { return f(entry) }

// auditedResources are the route prefixes that carry clinical data.
var auditedResources = map[string]bool{
	"prontuarios": true,
	"exames":      true,
	"receitas":    true,
	"pacientes":   true,
}

// Audit logs every access to clinical resources. The entry is always
// written to the structured log; an optional recorder receives it as well.
func Audit(logger zerolog.Logger, recorders ...AuditRecorder) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			resource := resourceFromPath(req.URL.Path)
			if !auditedResources[resource] {
				return next(c)
			}

			// Run the handler first so the response status is known.
			err := next(c)

			entry := AuditEntry{
				Timestamp:  time.Now().UTC(),
				Resource:   resource,
				Path:       req.URL.Path,
				Method:     req.Method,
				Action:     methodToAction(req.Method),
				IPAddress:  c.RealIP(),
				UserAgent:  req.UserAgent(),
				RequestID:  requestIDFrom(c),
				StatusCode: c.Response().Status,
			}
			if id, ok := auth.IdentityFromContext(req.Context()); ok {
				entry.UserID = id.ID.String()
				entry.UserRole = string(id.Role)
			}

			if len(recorders) > 0 && recorders[0] != nil {
				if recErr := recorders[0].RecordAccess(entry); recErr != nil {
					logger.Error().Err(recErr).
						Str("request_id", entry.RequestID).
						Msg("failed to record audit entry")
				}
			}

			logger.Info().
				Str("type", "access_audit").
				Str("request_id", entry.RequestID).
				Str("user_id", entry.UserID).
				Str("user_role", entry.UserRole).
				Str("resource", entry.Resource).
				Str("action", entry.Action).
				Str("method", entry.Method).
				Str("path", entry.Path).
				Str("remote_ip", entry.IPAddress).
				Int("status", entry.StatusCode).
				Msg("clinical_access")

			return err
		}
	}
}

// resourceFromPath returns the first path segment after /api/, or "".
func resourceFromPath(path string) string {
	if !strings.HasPrefix(path, "/api/") {
		return ""
	}
	segments := strings.Split(strings.TrimPrefix(path, "/api/"), "/")
	if len(segments) == 0 {
		return ""
	}
	return segments[0]
}

func methodToAction(method string) string {
	switch method {
	case http.MethodGet, http.MethodHead:
		return "read"
	case http.MethodPost:
		return "create"
	case http.MethodPut, http.MethodPatch:
		return "update"
	case http.MethodDelete:
		return "delete"
	default:
		return "read"
	}
}

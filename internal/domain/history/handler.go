package history

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/pacientes")
	g.GET("/historico/", h.Own, auth.RequireRole(auth.RolePatient))
	g.GET("/:id/historico/", h.ByID, auth.RequireRole(auth.RoleDoctor, auth.RoleAdmin))
}

// Own serves the calling patient's history.
func (h *Handler) Own(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return apperr.Unauthorized("authentication required")
	}
	hist, err := h.svc.ForPatient(c.Request().Context(), ident, ident.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hist)
}

func (h *Handler) ByID(c echo.Context) error {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return apperr.Unauthorized("authentication required")
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return apperr.Validation("invalid patient id")
	}
	hist, err := h.svc.ForPatient(c.Request().Context(), ident, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, hist)
}

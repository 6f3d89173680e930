package prescription

import (
	"context"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
	"github.com/pamela-btob/sghss-uninter/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler { return &Handler{svc: svc} }

func (h *Handler) RegisterRoutes(api *echo.Group) {
	g := api.Group("/receitas")
	g.GET("/", h.List)
	g.POST("/", h.Create, auth.RequireRole(auth.RoleDoctor))
	g.GET("/:id/", h.Get)
	g.PUT("/:id/", h.Update)
	g.DELETE("/:id/", h.Delete, auth.RequireRole(auth.RoleAdmin))
	g.PATCH("/:id/suspender/", h.Suspend)
	g.PATCH("/:id/finalizar/", h.Finalize)
}

func caller(c echo.Context) (auth.Identity, error) {
	ident, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return auth.Identity{}, apperr.Unauthorized("authentication required")
	}
	return ident, nil
}

func pathID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperr.Validation("invalid prescription id")
	}
	return id, nil
}

func listInput(c echo.Context) (ListInput, error) {
	var in ListInput
	if v := c.QueryParam("status"); v != "" {
		st := Status(v)
		in.Status = &st
	}
	if v := c.QueryParam("kind"); v != "" {
		k := Kind(v)
		in.Kind = &k
	}
	if v := c.QueryParam("patient_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return in, apperr.Validation("invalid patient_id filter")
		}
		in.PatientID = &id
	}
	return in, nil
}

func (h *Handler) Create(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	var in CreateInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	p, err := h.svc.Create(c.Request().Context(), ident, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, p)
}

func (h *Handler) List(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	in, err := listInput(c)
	if err != nil {
		return err
	}
	p := pagination.FromContext(c)
	items, total, err := h.svc.List(c.Request().Context(), ident, in, p.Limit, p.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(items, total, p.Limit, p.Offset))
}

func (h *Handler) Get(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := h.svc.Get(c.Request().Context(), ident, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Update(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	var in UpdateInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	p, err := h.svc.Update(c.Request().Context(), ident, id, in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Suspend(c echo.Context) error {
	return h.action(c, h.svc.Suspend)
}

func (h *Handler) Finalize(c echo.Context) error {
	return h.action(c, h.svc.Finalize)
}

func (h *Handler) action(c echo.Context, fn func(ctx context.Context, caller auth.Identity, id uuid.UUID) (*Prescription, error)) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	p, err := fn(c.Request().Context(), ident, id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, p)
}

func (h *Handler) Delete(c echo.Context) error {
	ident, err := caller(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}
	if err := h.svc.Delete(c.Request().Context(), ident, id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

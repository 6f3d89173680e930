package reporting

import (
	"net/http"
	"time"

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
	g := api.Group("/admin", auth.RequireRole(auth.RoleAdmin))
	g.GET("/dashboard/", h.Dashboard)
	g.GET("/relatorios/agendamentos/", h.AppointmentReport)
	g.GET("/relatorios/financeiro/", h.FinancialReport)
}

func (h *Handler) Dashboard(c echo.Context) error {
	d, err := h.svc.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

func (h *Handler) AppointmentReport(c echo.Context) error {
	var f ReportFilter
	if v := c.QueryParam("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return apperr.Validation("invalid from date, expected YYYY-MM-DD")
		}
		f.From = &t
	}
	if v := c.QueryParam("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			return apperr.Validation("invalid to date, expected YYYY-MM-DD")
		}
		// Inclusive through the end of the day.
		end := t.Add(24*time.Hour - time.Nanosecond)
		f.To = &end
	}
	if v := c.QueryParam("doctor_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return apperr.Validation("invalid doctor_id filter")
		}
		f.DoctorID = &id
	}
	if v := c.QueryParam("status"); v != "" {
		f.Status = &v
	}

	rep, err := h.svc.AppointmentReport(c.Request().Context(), f)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, rep)
}

func (h *Handler) FinancialReport(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.FinancialReport(c.Request().Context()))
}

package account

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pamela-btob/sghss-uninter/internal/platform/apperr"
	"github.com/pamela-btob/sghss-uninter/internal/platform/auth"
)

type Handler struct {
	svc    *Service
	tokens *auth.TokenManager
}

func NewHandler(svc *Service, tokens *auth.TokenManager) *Handler {
	return &Handler{svc: svc, tokens: tokens}
}

// RegisterRoutes registers the public credential endpoints on public and the
// profile endpoint on api (which carries the auth middleware).
func (h *Handler) RegisterRoutes(public, api *echo.Group) {
	public.POST("/usuarios/registro/", h.Register)
	public.POST("/token/", h.Token)
	public.POST("/token/refresh/", h.RefreshToken)

	api.GET("/usuarios/perfil/", h.Profile)
}

func (h *Handler) Register(c echo.Context) error {
	var in RegisterInput
	if err := c.Bind(&in); err != nil {
		return apperr.Validation("invalid request body")
	}
	u, err := h.svc.Register(c.Request().Context(), in)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, map[string]interface{}{
		"id":      u.ID,
		"message": "user registered",
	})
}

type tokenRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Token(c echo.Context) error {
	var req tokenRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	id, err := h.svc.Authenticate(c.Request().Context(), req.Username, req.Password)
	if err != nil {
		return err
	}
	pair, err := h.tokens.GeneratePair(id)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (h *Handler) RefreshToken(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return apperr.Validation("invalid request body")
	}
	id, err := h.tokens.VerifyRefresh(req.Refresh)
	if err != nil {
		return apperr.Unauthorized("invalid or expired refresh token")
	}
	// Re-read the account so a deleted user cannot keep refreshing.
	if _, err := h.svc.Get(c.Request().Context(), id.ID); err != nil {
		return apperr.Unauthorized("account no longer exists")
	}
	pair, err := h.tokens.GeneratePair(id)
	if err != nil {
		return apperr.Internal(err)
	}
	return c.JSON(http.StatusOK, pair)
}

func (h *Handler) Profile(c echo.Context) error {
	id, ok := auth.IdentityFromContext(c.Request().Context())
	if !ok {
		return apperr.Unauthorized("authentication required")
	}
	u, err := h.svc.Get(c.Request().Context(), id.ID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, u.Profile())
}

package avaliacao

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/psicotran/psicotran/internal/domain/normativa"
	"github.com/psicotran/psicotran/internal/platform/auth"
)

// Handler provides HTTP handlers for evaluation test results.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the result routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePsicologo))
	read.POST("/avaliacoes/:id/resultados", h.Submit)
	read.GET("/avaliacoes/:id/resultados", h.History)
	read.GET("/resultados/:id", h.Get)
	read.GET("/resultados/:id/verificar", h.Verify)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/resultados/:id/recalcular", h.Recompute)
}

func httpError(err error) error {
	if errors.Is(err, ErrResultNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	}
	return normativa.HTTPError(err)
}

func paramID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	return id, nil
}

func (h *Handler) Submit(c echo.Context) error {
	avaliacaoID, err := paramID(c)
	if err != nil {
		return err
	}
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	req.AvaliacaoID = avaliacaoID

	r, err := h.svc.Submit(c.Request().Context(), req)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusCreated, r)
}

func (h *Handler) History(c echo.Context) error {
	avaliacaoID, err := paramID(c)
	if err != nil {
		return err
	}
	grupos, err := h.svc.History(c.Request().Context(), avaliacaoID)
	if err != nil {
		return httpError(err)
	}
	if grupos == nil {
		grupos = []*Grupo{}
	}
	return c.JSON(http.StatusOK, grupos)
}

func (h *Handler) Get(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.Get(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

func (h *Handler) Verify(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	v, err := h.svc.Verify(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, v)
}

func (h *Handler) Recompute(c echo.Context) error {
	id, err := paramID(c)
	if err != nil {
		return err
	}
	r, err := h.svc.Recompute(c.Request().Context(), id)
	if err != nil {
		return httpError(err)
	}
	return c.JSON(http.StatusOK, r)
}

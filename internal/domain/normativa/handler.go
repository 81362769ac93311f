package normativa

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/psicotran/psicotran/internal/platform/auth"
	"github.com/psicotran/psicotran/pkg/pagination"
)

// Handler provides HTTP handlers for normative tables.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes registers the normative table routes.
func (h *Handler) RegisterRoutes(api *echo.Group) {
	read := api.Group("", auth.RequireRole(auth.RoleAdmin, auth.RolePsicologo))
	read.GET("/tabelas-normativas", h.ListTables)
	read.GET("/tabelas-normativas/resolve", h.ResolveTable)
	read.GET("/tabelas-normativas/:id", h.GetTable)
	read.POST("/tabelas-normativas/:id/classificar", h.Classify)

	admin := api.Group("", auth.RequireRole(auth.RoleAdmin))
	admin.POST("/tabelas-normativas/importar", h.Import)
}

// HTTPError maps engine errors onto HTTP status codes.
func HTTPError(err error) error {
	var ce *ConfigurationError
	switch {
	case errors.As(err, &ce):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, ce.Error())
	case errors.Is(err, ErrTableNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, ErrInvalidInput):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

// PerfilFromQuery reads the evaluation context from query parameters.
func PerfilFromQuery(c echo.Context) (Perfil, error) {
	p := Perfil{
		Escolaridade: c.QueryParam("escolaridade"),
		TipoCNH:      c.QueryParam("tipo_cnh"),
		Contexto:     c.QueryParam("contexto"),
		Estado:       c.QueryParam("estado"),
	}
	if v := c.QueryParam("idade"); v != "" {
		idade, err := strconv.Atoi(v)
		if err != nil {
			return p, echo.NewHTTPError(http.StatusBadRequest, "invalid idade")
		}
		p.Idade = &idade
	}
	return p, nil
}

func (h *Handler) ListTables(c echo.Context) error {
	pg := pagination.FromContext(c)
	f := Filtro{Tipo: Tipo(c.QueryParam("tipo")), SomenteAtivas: c.QueryParam("ativas") != "false"}
	items, total, err := h.svc.ListTables(c.Request().Context(), f, pg.Limit, pg.Offset)
	if err != nil {
		return HTTPError(err)
	}
	pagination.SetLinkHeader(c, pg, total)
	return c.JSON(http.StatusOK, pagination.NewPage(items, total, pg))
}

func (h *Handler) ResolveTable(c echo.Context) error {
	tipo := c.QueryParam("tipo")
	if tipo == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tipo is required")
	}
	p, err := PerfilFromQuery(c)
	if err != nil {
		return err
	}
	t, err := h.svc.ResolveTable(c.Request().Context(), Tipo(tipo), p)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, t)
}

type tabelaResponse struct {
	*Tabela
	Normas []*Norma `json:"normas"`
}

func (h *Handler) GetTable(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	t, normas, err := h.svc.GetTable(c.Request().Context(), id)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, tabelaResponse{Tabela: t, Normas: normas})
}

type classifyRequest struct {
	Subteste  string     `json:"subteste"`
	Perfil    Perfil     `json:"perfil"`
	Escore    *float64   `json:"escore"`
	Contagens *Contagens `json:"contagens"`
}

type classifyResponse struct {
	Escore       float64       `json:"escore"`
	Chave        Chave         `json:"chave"`
	Classificado *Classificado `json:"classificado"`
}

// Classify classifies either a ready score or raw counts against one table
// version, without persisting anything.
func (h *Handler) Classify(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	var req classifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx := c.Request().Context()
	var escore float64
	switch {
	case req.Escore != nil:
		escore = *req.Escore
	case req.Contagens != nil:
		t, _, err := h.svc.GetTable(ctx, id)
		if err != nil {
			return HTTPError(err)
		}
		if escore, err = Calcular(t.Tipo, *req.Contagens); err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
	default:
		return echo.NewHTTPError(http.StatusBadRequest, "escore or contagens is required")
	}

	res, k, err := h.svc.ClassificarEscore(ctx, id, req.Subteste, req.Perfil, escore)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusOK, classifyResponse{Escore: escore, Chave: k, Classificado: res})
}

// Import accepts a seed document and replaces the matching tables.
func (h *Handler) Import(c echo.Context) error {
	data, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	tables, err := h.svc.Import(c.Request().Context(), data)
	if err != nil {
		return HTTPError(err)
	}
	return c.JSON(http.StatusCreated, tables)
}

package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestPublicRoutes(t *testing.T) {
	skip := PublicRoutes("/health", "/health/db")

	tests := []struct {
		method string
		route  string
		want   bool
	}{
		{http.MethodGet, "/health", true},
		{http.MethodHead, "/health/db", true},
		{http.MethodPost, "/health", false},
		{http.MethodGet, "/health/extra", false},
		{http.MethodGet, "/", false},
		{http.MethodGet, "/api/v1/tabelas-normativas", false},
		{http.MethodGet, "/api/v1/avaliacoes/:id/resultados", false},
		{http.MethodPost, "/api/v1/resultados/:id/recalcular", false},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.route, func(t *testing.T) {
			c := echo.New().NewContext(httptest.NewRequest(tt.method, tt.route, nil), httptest.NewRecorder())
			c.SetPath(tt.route)
			if got := skip(c); got != tt.want {
				t.Errorf("skip = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPublicRoutes_None(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), httptest.NewRecorder())
	c.SetPath("/health")
	if PublicRoutes()(c) {
		t.Error("expected nothing to be skipped without public routes")
	}
}

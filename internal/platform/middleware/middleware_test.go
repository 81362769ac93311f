package middleware

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"
)

func TestRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"missing header", "", false},
		{"caller id kept", "avaliacao-42", true},
		{"oversized id replaced", strings.Repeat("x", 300), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/resultados", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(req, rec)

			var seen string
			err := RequestID()(func(c echo.Context) error {
				seen, _ = c.Get("request_id").(string)
				return c.NoContent(http.StatusCreated)
			})(c)
			if err != nil {
				t.Fatal(err)
			}

			header := rec.Header().Get(RequestIDHeader)
			if seen != header {
				t.Errorf("context id %q differs from header %q", seen, header)
			}
			if tt.keep && header != tt.incoming {
				t.Errorf("expected %q to be propagated, got %q", tt.incoming, header)
			}
			if !tt.keep && len(header) != 36 {
				t.Errorf("expected a generated uuid, got %q", header)
			}
		})
	}
}

func TestLogger_LogsRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := zerolog.New(&buf)
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/tabelas-normativas", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.Set("request_id", "req-123")

	handler := func(c echo.Context) error {
		return c.String(http.StatusOK, "ok")
	}

	mw := Logger(logger)
	h := mw(handler)
	if err := h(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	out := buf.String()
	for _, want := range []string{`"request_id":"req-123"`, `"status":200`, `"path":"/api/v1/tabelas-normativas"`, `"level":"info"`} {
		if !strings.Contains(out, want) {
			t.Errorf("expected log to contain %s, got %s", want, out)
		}
	}
}

func TestLogger_LevelFollowsStatus(t *testing.T) {
	tests := []struct {
		err       error
		wantCode  int
		wantLevel string
	}{
		{echo.NewHTTPError(http.StatusNotFound, "result not found"), http.StatusNotFound, "warn"},
		{echo.NewHTTPError(http.StatusUnprocessableEntity, "norm configuration"), http.StatusUnprocessableEntity, "warn"},
		{errors.New("database is down"), http.StatusInternalServerError, "error"},
	}

	for _, tt := range tests {
		var buf bytes.Buffer
		e := echo.New()
		rec := httptest.NewRecorder()
		c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/resultados/x", nil), rec)
		c.SetPath("/api/v1/resultados/:id")

		h := Logger(zerolog.New(&buf))(func(c echo.Context) error { return tt.err })
		if err := h(c); err != nil {
			t.Fatalf("expected the error to be handled, got %v", err)
		}
		if rec.Code != tt.wantCode {
			t.Errorf("expected %d response, got %d", tt.wantCode, rec.Code)
		}
		out := buf.String()
		for _, want := range []string{
			fmt.Sprintf(`"status":%d`, tt.wantCode),
			fmt.Sprintf(`"level":"%s"`, tt.wantLevel),
			`"route":"/api/v1/resultados/:id"`,
		} {
			if !strings.Contains(out, want) {
				t.Errorf("expected log to contain %s, got %s", want, out)
			}
		}
	}
}

func TestRecovery(t *testing.T) {
	t.Run("panic becomes 500", func(t *testing.T) {
		var buf bytes.Buffer
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/api/v1/resultados/r1", nil), httptest.NewRecorder())
		c.Set("request_id", "req-9")
		c.SetPath("/api/v1/resultados/:id")

		err := Recovery(zerolog.New(&buf))(func(echo.Context) error { panic("nil tabela") })(c)
		var he *echo.HTTPError
		if !errors.As(err, &he) || he.Code != http.StatusInternalServerError {
			t.Fatalf("expected a 500 HTTPError, got %v", err)
		}
		for _, want := range []string{`"request_id":"req-9"`, `"panic":"nil tabela"`, `"route":"/api/v1/resultados/:id"`, `"stack":`} {
			if !strings.Contains(buf.String(), want) {
				t.Errorf("expected log to contain %s, got %s", want, buf.String())
			}
		}
	})

	t.Run("abort handler is re-raised", func(t *testing.T) {
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
		defer func() {
			if r := recover(); r != http.ErrAbortHandler {
				t.Errorf("expected http.ErrAbortHandler to propagate, got %v", r)
			}
		}()
		_ = Recovery(zerolog.Nop())(func(echo.Context) error { panic(http.ErrAbortHandler) })(c)
	})

	t.Run("no panic", func(t *testing.T) {
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
		if err := Recovery(zerolog.Nop())(func(c echo.Context) error { return c.NoContent(http.StatusNoContent) })(c); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if rec.Code != http.StatusNoContent {
			t.Errorf("expected 204, got %d", rec.Code)
		}
	})
}

func TestSecurityHeaders(t *testing.T) {
	for _, hsts := range []bool{false, true} {
		rec := httptest.NewRecorder()
		c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

		if err := SecurityHeaders(hsts)(func(c echo.Context) error { return c.NoContent(http.StatusOK) })(c); err != nil {
			t.Fatal(err)
		}
		want := map[string]string{
			"X-Content-Type-Options": "nosniff",
			"X-Frame-Options":        "DENY",
			"Cache-Control":          "no-store",
			"Referrer-Policy":        "no-referrer",
		}
		for k, v := range want {
			if got := rec.Header().Get(k); got != v {
				t.Errorf("hsts=%v %s: expected %q, got %q", hsts, k, v, got)
			}
		}
		if got := rec.Header().Get("Strict-Transport-Security") != ""; got != hsts {
			t.Errorf("hsts=%v: Strict-Transport-Security present = %v", hsts, got)
		}
	}
}

package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func timeoutContext(target string) (echo.Context, *httptest.ResponseRecorder) {
	rec := httptest.NewRecorder()
	return echo.New().NewContext(httptest.NewRequest(http.MethodGet, target, nil), rec), rec
}

func TestRequestTimeout(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		handler  echo.HandlerFunc
		wantCode int
		wantErr  int
	}{
		{
			name:    "fast handler",
			timeout: 5 * time.Second,
			handler: func(c echo.Context) error {
				if _, ok := c.Request().Context().Deadline(); !ok {
					return echo.NewHTTPError(http.StatusInternalServerError, "no deadline")
				}
				return c.String(http.StatusOK, "ok")
			},
			wantCode: http.StatusOK,
		},
		{
			name:    "handler error passes through",
			timeout: 5 * time.Second,
			handler: func(c echo.Context) error {
				return echo.NewHTTPError(http.StatusNotFound, "result not found")
			},
			wantCode: http.StatusOK,
			wantErr:  http.StatusNotFound,
		},
		{
			name:    "zero disables the deadline",
			timeout: 0,
			handler: func(c echo.Context) error {
				if _, ok := c.Request().Context().Deadline(); ok {
					return echo.NewHTTPError(http.StatusInternalServerError, "unexpected deadline")
				}
				return c.NoContent(http.StatusNoContent)
			},
			wantCode: http.StatusNoContent,
		},
		{
			name:    "response already written before the deadline",
			timeout: 20 * time.Millisecond,
			handler: func(c echo.Context) error {
				if err := c.String(http.StatusOK, "partial"); err != nil {
					return err
				}
				<-c.Request().Context().Done()
				return nil
			},
			wantCode: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, rec := timeoutContext("/api/v1/resultados/1")
			err := RequestTimeout(tt.timeout)(tt.handler)(c)
			if tt.wantErr != 0 {
				he, ok := err.(*echo.HTTPError)
				if !ok || he.Code != tt.wantErr {
					t.Fatalf("expected HTTPError %d, got %v", tt.wantErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if rec.Code != tt.wantCode {
				t.Errorf("expected %d, got %d", tt.wantCode, rec.Code)
			}
		})
	}
}

func TestRequestTimeout_WritesGatewayTimeout(t *testing.T) {
	c, rec := timeoutContext("/api/v1/tabelas-normativas")
	handler := func(c echo.Context) error {
		select {
		case <-time.After(5 * time.Second):
			return c.NoContent(http.StatusOK)
		case <-c.Request().Context().Done():
			return c.Request().Context().Err()
		}
	}

	if err := RequestTimeout(30 * time.Millisecond)(handler)(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !strings.Contains(body["message"], "30ms") {
		t.Errorf("expected the limit in the message, got %q", body["message"])
	}
}

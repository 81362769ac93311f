package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
)

func TestSQLStats(t *testing.T) {
	got := SQLStats(sql.DBStats{
		MaxOpenConnections: 1,
		OpenConnections:    1,
		Idle:               1,
		WaitCount:          3,
		WaitDuration:       250 * time.Millisecond,
	})
	want := PoolStats{
		Driver:          "sqlite",
		TotalConns:      1,
		IdleConns:       1,
		MaxConns:        1,
		AcquireCount:    3,
		AcquireDuration: "250ms",
	}
	if got != want {
		t.Errorf("SQLStats = %+v, want %+v", got, want)
	}
}

func serveHealth(t *testing.T, h echo.HandlerFunc) (int, HealthReport) {
	t.Helper()
	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health/db", nil), rec)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var report HealthReport
	if err := json.Unmarshal(rec.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return rec.Code, report
}

func TestSQLiteHealthHandler(t *testing.T) {
	sqlDB, err := OpenSQLite(filepath.Join(t.TempDir(), "health.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}

	code, report := serveHealth(t, SQLiteHealthHandler(sqlDB))
	if code != http.StatusOK || report.Status != "healthy" || report.Error != "" {
		t.Fatalf("expected healthy 200, got %d %+v", code, report)
	}
	if report.Pool.Driver != "sqlite" || report.Latency == "" {
		t.Errorf("unexpected report %+v", report)
	}

	_ = sqlDB.Close()
	code, report = serveHealth(t, SQLiteHealthHandler(sqlDB))
	if code != http.StatusServiceUnavailable || report.Status != "unhealthy" {
		t.Errorf("expected 503 after close, got %d %+v", code, report)
	}
}

func TestHealthHandler_PingError(t *testing.T) {
	h := healthHandler(
		func(ctx context.Context) error {
			if _, ok := ctx.Deadline(); !ok {
				return errors.New("ping without deadline")
			}
			return errors.New("connection refused")
		},
		func() PoolStats { return PoolStats{Driver: "postgres", MaxConns: 20} },
	)

	code, report := serveHealth(t, h)
	if code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", code)
	}
	if report.Error != "connection refused" || report.Pool.MaxConns != 20 {
		t.Errorf("unexpected report %+v", report)
	}
}

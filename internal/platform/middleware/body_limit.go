package middleware

import (
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/bytes"
)

const defaultBodyLimit int64 = 1 << 20

// BodyLimit caps request bodies at defaultLimit, except for the routes in
// perRoute (keyed by registered route pattern, e.g.
// "/api/v1/tabelas-normativas/importar"), which get their own cap. Sizes use
// the "512K", "1M", "10MB" notation; unparsable sizes fall back to 1M.
func BodyLimit(defaultLimit string, perRoute map[string]string) echo.MiddlewareFunc {
	fallback := parseLimit(defaultLimit)
	routes := make(map[string]int64, len(perRoute))
	for path, size := range perRoute {
		routes[path] = parseLimit(size)
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			if req.Body == nil || req.Body == http.NoBody {
				return next(c)
			}

			limit, ok := routes[c.Path()]
			if !ok {
				limit = fallback
			}
			if req.ContentLength > limit {
				return tooLarge(limit)
			}
			req.Body = cappedBody{http.MaxBytesReader(c.Response(), req.Body, limit)}
			return next(c)
		}
	}
}

// cappedBody turns the reader's *http.MaxBytesError into a 413 so that
// handlers returning the read error produce the right status.
type cappedBody struct {
	io.ReadCloser
}

func (b cappedBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	var mbe *http.MaxBytesError
	if errors.As(err, &mbe) {
		return n, tooLarge(mbe.Limit)
	}
	return n, err
}

func tooLarge(limit int64) *echo.HTTPError {
	return echo.NewHTTPError(http.StatusRequestEntityTooLarge,
		fmt.Sprintf("request body exceeds the %s limit", bytes.Format(limit)))
}

func parseLimit(s string) int64 {
	n, err := bytes.Parse(s)
	if err != nil || n <= 0 {
		return defaultBodyLimit
	}
	return n
}

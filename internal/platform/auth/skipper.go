package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// PublicRoutes builds a JWT skipper for the given route patterns. Only
// read requests (GET, HEAD) to those routes skip authentication.
func PublicRoutes(routes ...string) func(echo.Context) bool {
	public := make(map[string]struct{}, len(routes))
	for _, r := range routes {
		public[r] = struct{}{}
	}
	return func(c echo.Context) bool {
		switch c.Request().Method {
		case http.MethodGet, http.MethodHead:
		default:
			return false
		}
		_, ok := public[c.Path()]
		return ok
	}
}

package auth

import (
	"net/http"
	"slices"
	"strings"

	"github.com/labstack/echo/v4"
)

const (
	// RoleAdmin maintains reference data and may recompute stored results.
	RoleAdmin = "admin"
	// RolePsicologo administers tests and records results.
	RolePsicologo = "psicologo"
)

// HasAnyRole reports whether p holds one of roles. Admins hold every role.
func (p Principal) HasAnyRole(roles ...string) bool {
	if slices.Contains(p.Roles, RoleAdmin) {
		return true
	}
	return slices.ContainsFunc(p.Roles, func(r string) bool { return slices.Contains(roles, r) })
}

// RequireRole rejects requests whose principal holds none of roles.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	denied := "required role: " + strings.Join(roles, " or ")
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			p, _ := PrincipalFromContext(c.Request().Context())
			if !p.HasAnyRole(roles...) {
				return echo.NewHTTPError(http.StatusForbidden, denied)
			}
			return next(c)
		}
	}
}

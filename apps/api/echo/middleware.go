package echoapi

import (
	"github.com/labstack/echo/v4"

	"github.com/trezcool/colegio/core/role"
)

var (
	adminOnly        = requireRoles(role.Admin)
	adminOrSecretary = requireRoles(role.Admin, role.Secretary)
)

// requireRoles lets through sessions whose role is one of roles.
func requireRoles(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if sessionClaims(ctx).HasAnyRole(roles...) {
				return next(ctx)
			}
			return errHttpForbidden
		}
	}
}

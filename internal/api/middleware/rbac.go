package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

// RBAC admits the request when the session's roles grant any of perms.
// It runs after Session and reports denials as domain errors, which the
// router's error handler turns into 401/403.
func RBAC(perms ...domain.Permission) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess, ok := c.Get(SessionKey).(domain.Session)
			if !ok || sess.User == nil {
				return domain.ErrNotAuthenticated
			}
			roles := sess.Roles()
			for _, p := range perms {
				if domain.Can(roles, p) {
					return next(c)
				}
			}
			return domain.ErrForbidden
		}
	}
}

package middleware

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

// SessionKey is the echo context key holding the domain.Session snapshot.
const SessionKey = "session"

// SessionReader yields the current session.
type SessionReader interface {
	Snapshot() domain.Session
}

// StaticToken requires "Authorization: Bearer <token>". An empty token
// disables the check.
func StaticToken(token string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		if token == "" {
			return next
		}
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}
			if subtle.ConstantTimeCompare([]byte(parts[1]), []byte(token)) != 1 {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}
			return next(c)
		}
	}
}

// Session injects the signed-in session into the context and rejects the
// request when nobody is signed in.
func Session(s SessionReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			snap := s.Snapshot()
			if !snap.Authenticated() {
				return domain.ErrNotAuthenticated
			}
			c.Set(SessionKey, snap)
			return next(c)
		}
	}
}

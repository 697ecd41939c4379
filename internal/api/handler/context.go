package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/pmdesk/pmdesk/internal/api/middleware"
	"github.com/pmdesk/pmdesk/internal/core/domain"
)

// ctxSession returns the session injected by the Session middleware.
// Without it the request is treated as signed out.
func ctxSession(c echo.Context) (domain.Session, error) {
	sess, ok := c.Get(middleware.SessionKey).(domain.Session)
	if !ok || !sess.Authenticated() {
		return domain.Session{}, domain.ErrNotAuthenticated
	}
	return sess, nil
}

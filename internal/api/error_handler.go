package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/infrastructure/rest"
)

type errorBody struct {
	Error string `json:"error"`
}

// statusOf lists sentinels in match order; the first hit decides.
var statusOf = []struct {
	err    error
	status int
}{
	{domain.ErrNotAuthenticated, http.StatusUnauthorized},
	{domain.ErrSessionExpired, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrValidation, http.StatusBadRequest},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrNoCompanyScope, http.StatusConflict},
}

// NewHTTPErrorHandler renders every error as {"error": "..."}. Session and
// permission errors keep their meaning; other upstream failures become 502
// and anything unknown a logged 500.
func NewHTTPErrorHandler(log zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}
		status, msg := classify(err)
		if status >= http.StatusInternalServerError {
			log.Error().Err(err).
				Str("method", c.Request().Method).
				Str("route", c.Path()).
				Int("status", status).
				Msg("status request failed")
		}
		_ = c.JSON(status, errorBody{Error: msg})
	}
}

func classify(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}
	for _, m := range statusOf {
		if errors.Is(err, m.err) {
			if m.status == http.StatusForbidden {
				return m.status, "access forbidden"
			}
			return m.status, err.Error()
		}
	}
	var ae *rest.APIError
	if errors.As(err, &ae) {
		return http.StatusBadGateway, ae.Message
	}
	return http.StatusInternalServerError, "internal server error"
}

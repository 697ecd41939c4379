// Package api is the local status server run by `pmdesk watch`: health,
// metrics and a read/act view of the live notification feed.
package api

import (
	"fmt"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/pmdesk/pmdesk/docs"
	"github.com/pmdesk/pmdesk/internal/api/handler"
	"github.com/pmdesk/pmdesk/internal/api/middleware"
	"github.com/pmdesk/pmdesk/internal/core/domain"
)

// Deps are the services the routes read from.
type Deps struct {
	Session    middleware.SessionReader
	Feed       handler.NotificationFeed
	Dashboards handler.Dashboards
	Checks     []handler.Check
	Token      string

	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
//
// @title                       pmdesk status API
// @version                     1.0
// @description                 Local status server started by `pmdesk watch`.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func NewRouter(deps Deps, log zerolog.Logger) (*echo.Echo, error) {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(log))
	metricsMiddleware, err := echoprometheus.MiddlewareConfig{
		Subsystem:  "status",
		Registerer: deps.Registerer,
	}.ToMiddleware()
	if err != nil {
		return nil, fmt.Errorf("status metrics: %w", err)
	}
	e.Use(metricsMiddleware)

	// --- Health probes (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(deps.Checks...).Readiness)

	protected := e.Group("", middleware.StaticToken(deps.Token))
	protected.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	protected.GET("/swagger/*", echoSwagger.WrapHandler)

	signedIn := protected.Group("", middleware.Session(deps.Session))

	sessionHandler := handler.NewSessionHandler()
	signedIn.GET("/session", sessionHandler.Current)

	notificationHandler := handler.NewNotificationHandler(deps.Feed)
	signedIn.GET("/notifications", notificationHandler.List)
	signedIn.POST("/notifications/read-all", notificationHandler.MarkAllAsRead)
	signedIn.POST("/notifications/:id/read", notificationHandler.MarkAsRead)

	dashboardHandler := handler.NewDashboardHandler(deps.Dashboards)
	signedIn.GET("/dashboard", dashboardHandler.Dashboard)
	signedIn.GET("/dashboard/company", dashboardHandler.Company, middleware.RBAC(domain.PermViewCompanyAnalytics))

	return e, nil
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Debug()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Str("request_id", v.RequestID).
				Dur("latency", v.Latency).
				Msg("status request")
			return nil
		},
	})
}

package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

// Dashboards picks the analytics matching the signed-in user's role.
type Dashboards interface {
	Dashboard(ctx context.Context) (*domain.Dashboard, error)
	CompanyDashboard(ctx context.Context) (*domain.AdminAnalytics, error)
}

type DashboardHandler struct {
	dashboards Dashboards
}

func NewDashboardHandler(d Dashboards) *DashboardHandler {
	return &DashboardHandler{dashboards: d}
}

// Dashboard handles GET /dashboard.
//
// @Summary      Dashboard for the signed-in user
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.Dashboard
// @Failure      401  {object}  map[string]string
// @Failure      409  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /dashboard [get]
func (h *DashboardHandler) Dashboard(c echo.Context) error {
	d, err := h.dashboards.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, d)
}

// Company handles GET /dashboard/company.
//
// @Summary      Company-wide analytics
// @Tags         dashboard
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.AdminAnalytics
// @Failure      401  {object}  map[string]string
// @Failure      403  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /dashboard/company [get]
func (h *DashboardHandler) Company(c echo.Context) error {
	a, err := h.dashboards.CompanyDashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, a)
}

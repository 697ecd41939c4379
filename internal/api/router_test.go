package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pmdesk/pmdesk/internal/api/handler"
	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/infrastructure/rest"
)

type stubSession struct{ s domain.Session }

func (f *stubSession) Snapshot() domain.Session { return f.s }

type stubFeed struct {
	items       []domain.Notification
	markedID    int64
	markedToken string
	allUser     int64
	err         error
}

func (f *stubFeed) Items() []domain.Notification { return f.items }
func (f *stubFeed) UnreadCount() int             { return len(f.items) }
func (f *stubFeed) MarkAsRead(_ context.Context, id int64, token string) error {
	f.markedID, f.markedToken = id, token
	return f.err
}
func (f *stubFeed) MarkAllAsRead(_ context.Context, userID int64, _ string) error {
	f.allUser = userID
	return f.err
}

type stubDashboards struct {
	dashboard *domain.Dashboard
	err       error
}

func (d *stubDashboards) Dashboard(context.Context) (*domain.Dashboard, error) {
	return d.dashboard, d.err
}
func (d *stubDashboards) CompanyDashboard(context.Context) (*domain.AdminAnalytics, error) {
	return &domain.AdminAnalytics{TotalUsers: 4}, d.err
}

type fixture struct {
	e       *echo.Echo
	session *stubSession
	feed    *stubFeed
	dash    *stubDashboards
}

func newFixture(t *testing.T, token string, checks ...handler.Check) *fixture {
	t.Helper()
	companyID := int64(7)
	f := &fixture{
		session: &stubSession{s: domain.Session{
			AccessToken: "tok",
			CompanyID:   &companyID,
			User:        &domain.UserProfile{ID: 3, Username: "ana", Roles: domain.NewRoleSet(domain.RoleUser)},
		}},
		feed: &stubFeed{items: []domain.Notification{{ID: 1, Message: "hi"}}},
		dash: &stubDashboards{dashboard: &domain.Dashboard{User: &domain.UserAnalytics{}}},
	}
	reg := prometheus.NewRegistry()
	e, err := NewRouter(Deps{
		Session:    f.session,
		Feed:       f.feed,
		Dashboards: f.dash,
		Checks:     checks,
		Token:      token,
		Registerer: reg,
		Gatherer:   reg,
	}, zerolog.Nop())
	require.NoError(t, err)
	f.e = e
	return f
}

func (f *fixture) do(method, target, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.e.ServeHTTP(rec, req)
	return rec
}

func TestRouter_Health(t *testing.T) {
	f := newFixture(t, "s3cret",
		handler.Check{Name: "channel", Probe: func(context.Context) error { return nil }},
		handler.Check{Name: "storage", Probe: func(context.Context) error { return errors.New("redis down") }},
	)

	rec := f.do(http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/health/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var body struct {
		Status       string `json:"status"`
		Dependencies map[string]struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		} `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "ok", body.Dependencies["channel"].Status)
	assert.Equal(t, "redis down", body.Dependencies["storage"].Error)
}

func TestRouter_TokenGuard(t *testing.T) {
	f := newFixture(t, "s3cret")

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/session", "").Code)
	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/metrics", "wrong").Code)

	rec := f.do(http.MethodGet, "/metrics", "s3cret")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_SwaggerDocs(t *testing.T) {
	f := newFixture(t, "s3cret")

	assert.Equal(t, http.StatusUnauthorized, f.do(http.MethodGet, "/swagger/doc.json", "").Code)

	rec := f.do(http.MethodGet, "/swagger/doc.json", "s3cret")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := rec.Body.String()
	assert.Contains(t, doc, `"BearerAuth"`)

	for _, r := range f.e.Routes() {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			continue
		}
		if r.Path == "/metrics" || strings.Contains(r.Path, "*") {
			continue
		}
		path := strings.ReplaceAll(r.Path, ":id", "{id}")
		assert.Contains(t, doc, `"`+path+`"`, "undocumented route %s %s", r.Method, r.Path)
	}
}

func TestRouter_Session(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodGet, "/session", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"userId":3,"username":"ana","roles":["USER"],"highestRole":"USER","companyId":7}`, rec.Body.String())
	assert.NotContains(t, rec.Body.String(), "tok")

	f.session.s = domain.Session{}
	rec = f.do(http.MethodGet, "/session", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "not logged in")
}

func TestRouter_Notifications(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodGet, "/notifications", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"unread":1`)

	rec = f.do(http.MethodPost, "/notifications/9/read", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(9), f.feed.markedID)
	assert.Equal(t, "tok", f.feed.markedToken)

	rec = f.do(http.MethodPost, "/notifications/0/read", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/notifications/abc/read", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = f.do(http.MethodPost, "/notifications/read-all", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, int64(3), f.feed.allUser)

	f.feed.err = &rest.APIError{StatusCode: http.StatusInternalServerError, Message: "boom"}
	rec = f.do(http.MethodPost, "/notifications/read-all", "")
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "boom"))
}

func TestRouter_Dashboards(t *testing.T) {
	f := newFixture(t, "")

	rec := f.do(http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = f.do(http.MethodGet, "/dashboard/company", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	f.session.s.User.Roles = domain.NewRoleSet(domain.RoleAdmin)
	rec = f.do(http.MethodGet, "/dashboard/company", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"totalUsers":4`)

	f.dash.err = domain.ErrNoCompanyScope
	rec = f.do(http.MethodGet, "/dashboard", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

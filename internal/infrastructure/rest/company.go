package rest

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

type CompanyClient struct{ c *Client }

func (c *Client) Company() *CompanyClient { return &CompanyClient{c: c} }

func (cc *CompanyClient) Get(ctx context.Context, id int64) (*domain.Company, error) {
	var out domain.Company
	if err := cc.c.Do(ctx, http.MethodGet, fmt.Sprintf("/company/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type AdminClient struct{ c *Client }

func (c *Client) Admin() *AdminClient { return &AdminClient{c: c} }

func (a *AdminClient) Analytics(ctx context.Context, companyID int64) (*domain.AdminAnalytics, error) {
	var out domain.AdminAnalytics
	q := url.Values{"companyId": {strconv.FormatInt(companyID, 10)}}
	if err := a.c.Do(ctx, http.MethodGet, "/admin/analytics/summary", nil, &out, WithQuery(q)); err != nil {
		return nil, err
	}
	return &out, nil
}

// ImportUsers uploads a CSV of users and returns the server's summary.
func (a *AdminClient) ImportUsers(ctx context.Context, filename string, r io.Reader) (string, error) {
	var out string
	if err := a.c.Upload(ctx, "/admin/users/upload", filename, r, &out); err != nil {
		return "", err
	}
	return out, nil
}

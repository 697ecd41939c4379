package rest

import (
	"context"
	"net/http"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

// AuthClient covers /auth. None of its calls trigger a token refresh: a 401
// here means bad credentials, not an expired token.
type AuthClient struct{ c *Client }

func (c *Client) Auth() *AuthClient { return &AuthClient{c: c} }

func (a *AuthClient) Login(ctx context.Context, in domain.LoginInput) (*domain.AuthResult, error) {
	return a.authenticate(ctx, "/auth/login", in)
}

func (a *AuthClient) Register(ctx context.Context, in domain.RegisterInput) (*domain.AuthResult, error) {
	return a.authenticate(ctx, "/auth/register", in)
}

func (a *AuthClient) RegisterCompany(ctx context.Context, in domain.RegisterCompanyInput) (*domain.AuthResult, error) {
	return a.authenticate(ctx, "/auth/register/company", in)
}

func (a *AuthClient) authenticate(ctx context.Context, path string, in any) (*domain.AuthResult, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var out domain.AuthResult
	req := &request{method: http.MethodPost, path: path, body: in, anonymous: true, noRefresh: true}
	if err := a.c.do(ctx, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthClient) Refresh(ctx context.Context) (string, error) {
	return a.c.Refresh(ctx)
}

// Logout asks the server to drop the refresh cookie.
func (a *AuthClient) Logout(ctx context.Context) error {
	req := &request{method: http.MethodPost, path: "/auth/logout", body: struct{}{}, noRefresh: true}
	return a.c.do(ctx, req, nil)
}

package ports

import (
	"context"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

// TokenDecoder extracts the company claim from an access token.
type TokenDecoder interface {
	CompanyID(token string) (int64, error)
}

// TokenStore is the part of the session the HTTP client needs: read the
// current credential, replace it after a refresh, drop the user when the
// refresh fails.
type TokenStore interface {
	Token() string
	SetToken(ctx context.Context, token string) error
	SetUser(ctx context.Context, user *domain.UserProfile) error
}

// Navigator sends the user back to the login screen.
type Navigator interface {
	RedirectToLogin(reason string)
}

// SessionRevoker invalidates the server-side refresh cookie.
type SessionRevoker interface {
	Logout(ctx context.Context) error
}

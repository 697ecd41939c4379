package domain

import "errors"

// Errors returned by the API are mapped onto these sentinels so callers can
// branch with errors.Is regardless of which resource client produced them.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("access forbidden")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrValidation   = errors.New("validation failed")
)

// Session errors.
var (
	ErrSessionExpired   = errors.New("session expired")
	ErrNotAuthenticated = errors.New("not logged in")
	ErrNoCompanyScope   = errors.New("session has no company scope")
	ErrInvalidToken     = errors.New("invalid access token")
	ErrClaimMissing     = errors.New("access token has no companyId claim")
)

var ErrUnknownRole = errors.New("unknown role")

// Notification channel errors.
var (
	ErrMalformedNotification = errors.New("malformed notification payload")
	ErrNotConnected          = errors.New("notification channel not connected")
)

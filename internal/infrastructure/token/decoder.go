// Package token reads claims out of access tokens. The client never holds
// the signing key, so signatures are not verified here; the server does
// that on every request.
package token

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

const companyClaim = "companyId"

type Decoder struct {
	parser *jwt.Parser
}

func NewDecoder() *Decoder {
	return &Decoder{parser: jwt.NewParser(jwt.WithJSONNumber())}
}

// Claims parses the token without verifying it.
func (d *Decoder) Claims(token string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	if _, _, err := d.parser.ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidToken, err)
	}
	return claims, nil
}

// CompanyID returns the companyId claim, which may be a number or a
// numeric string.
func (d *Decoder) CompanyID(token string) (int64, error) {
	claims, err := d.Claims(token)
	if err != nil {
		return 0, err
	}
	raw, ok := claims[companyClaim]
	if !ok || raw == nil {
		return 0, domain.ErrClaimMissing
	}
	switch v := raw.(type) {
	case json.Number:
		if id, err := v.Int64(); err == nil {
			return id, nil
		}
		f, err := v.Float64()
		if err != nil || f != float64(int64(f)) {
			return 0, fmt.Errorf("%w: companyId %q is not an integer", domain.ErrInvalidToken, v)
		}
		return int64(f), nil
	case string:
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: companyId %q is not an integer", domain.ErrInvalidToken, v)
		}
		return id, nil
	default:
		return 0, fmt.Errorf("%w: companyId has type %T", domain.ErrInvalidToken, raw)
	}
}

// Expiry returns the exp claim, zero when absent.
func (d *Decoder) Expiry(token string) (time.Time, error) {
	claims, err := d.Claims(token)
	if err != nil {
		return time.Time{}, err
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, err
	}
	return exp.Time, nil
}

// Subject returns the sub claim, usually the username.
func (d *Decoder) Subject(token string) (string, error) {
	claims, err := d.Claims(token)
	if err != nil {
		return "", err
	}
	return claims.GetSubject()
}

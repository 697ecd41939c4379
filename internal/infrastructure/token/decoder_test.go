package token

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

func sign(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("server-secret"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return s
}

func TestDecoder_CompanyID(t *testing.T) {
	d := NewDecoder()
	cases := []struct {
		name   string
		claims jwt.MapClaims
		want   int64
		err    error
	}{
		{"number", jwt.MapClaims{"companyId": 42}, 42, nil},
		{"large number", jwt.MapClaims{"companyId": int64(9007199254740993)}, 9007199254740993, nil},
		{"numeric string", jwt.MapClaims{"companyId": "17"}, 17, nil},
		{"missing", jwt.MapClaims{"sub": "ana"}, 0, domain.ErrClaimMissing},
		{"null", jwt.MapClaims{"companyId": nil}, 0, domain.ErrClaimMissing},
		{"fraction", jwt.MapClaims{"companyId": 1.5}, 0, domain.ErrInvalidToken},
		{"word", jwt.MapClaims{"companyId": "acme"}, 0, domain.ErrInvalidToken},
		{"bool", jwt.MapClaims{"companyId": true}, 0, domain.ErrInvalidToken},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := d.CompanyID(sign(t, tc.claims))
			if tc.err != nil {
				if !errors.Is(err, tc.err) {
					t.Fatalf("expected %v, got %v", tc.err, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("CompanyID: %v", err)
			}
			if got != tc.want {
				t.Fatalf("CompanyID = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestDecoder_Malformed(t *testing.T) {
	for _, tok := range []string{"", "not-a-token", "a.b.c"} {
		if _, err := NewDecoder().CompanyID(tok); !errors.Is(err, domain.ErrInvalidToken) {
			t.Fatalf("token %q: expected ErrInvalidToken, got %v", tok, err)
		}
	}
}

func TestDecoder_IgnoresSignatureAndExpiry(t *testing.T) {
	expired := sign(t, jwt.MapClaims{"companyId": 3, "sub": "ana", "exp": time.Now().Add(-time.Hour).Unix()})
	d := NewDecoder()

	id, err := d.CompanyID(expired)
	if err != nil || id != 3 {
		t.Fatalf("expired token should still decode: %d %v", id, err)
	}
	exp, err := d.Expiry(expired)
	if err != nil || !exp.Before(time.Now()) {
		t.Fatalf("Expiry = %v, %v", exp, err)
	}
	sub, err := d.Subject(expired)
	if err != nil || sub != "ana" {
		t.Fatalf("Subject = %q, %v", sub, err)
	}
}

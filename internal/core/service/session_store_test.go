package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

func newTestStore(t *testing.T, storage *stubStorage, opts ...SessionOption) *SessionStore {
	t.Helper()
	dec := stubDecoder{"tok-7": 7, "tok-9": 9}
	s, err := NewSessionStore(context.Background(), storage, dec, zerolog.Nop(), opts...)
	if err != nil {
		t.Fatalf("NewSessionStore: %v", err)
	}
	return s
}

func TestSessionStore_SetTokenDerivesCompany(t *testing.T) {
	storage := newStubStorage()
	s := newTestStore(t, storage)

	for _, tc := range []struct {
		token string
		want  int64
	}{{"tok-7", 7}, {"tok-9", 9}} {
		token, want := tc.token, tc.want
		if err := s.SetToken(context.Background(), token); err != nil {
			t.Fatalf("SetToken: %v", err)
		}
		snap := s.Snapshot()
		if snap.AccessToken != token {
			t.Fatalf("token = %q, want %q", snap.AccessToken, token)
		}
		if snap.CompanyID == nil || *snap.CompanyID != want {
			t.Fatalf("company = %v, want %d", snap.CompanyID, want)
		}
		if storage.data[domain.KeyToken] != token {
			t.Fatalf("persisted token = %q", storage.data[domain.KeyToken])
		}
	}
	if storage.data[domain.KeyCompanyID] != "9" {
		t.Fatalf("persisted company = %q, want 9", storage.data[domain.KeyCompanyID])
	}
}

func TestSessionStore_DecodeFailureKeepsCompanyByDefault(t *testing.T) {
	s := newTestStore(t, newStubStorage())
	ctx := context.Background()

	if err := s.SetToken(ctx, "tok-7"); err != nil {
		t.Fatalf("SetToken: %v", err)
	}
	if err := s.SetToken(ctx, "garbage"); err != nil {
		t.Fatalf("SetToken should not fail on undecodable token: %v", err)
	}
	if id, ok := s.CompanyID(); !ok || id != 7 {
		t.Fatalf("company = %d,%v; want previous value 7", id, ok)
	}
	if s.Token() != "garbage" {
		t.Fatalf("token not replaced")
	}
}

func TestSessionStore_DecodeFailureClearPolicy(t *testing.T) {
	storage := newStubStorage()
	s := newTestStore(t, storage, WithClaimPolicy(domain.ClearCompany))
	ctx := context.Background()

	_ = s.SetToken(ctx, "tok-7")
	_ = s.SetToken(ctx, "garbage")
	if _, ok := s.CompanyID(); ok {
		t.Fatalf("company should be cleared")
	}
	if _, ok := storage.data[domain.KeyCompanyID]; ok {
		t.Fatalf("persisted company should be removed")
	}
}

func TestSessionStore_EmptyTokenClears(t *testing.T) {
	storage := newStubStorage()
	s := newTestStore(t, storage)
	ctx := context.Background()

	_ = s.SetToken(ctx, "tok-7")
	if err := s.SetToken(ctx, ""); err != nil {
		t.Fatalf("SetToken(\"\"): %v", err)
	}
	snap := s.Snapshot()
	if snap.Authenticated() || snap.CompanyID != nil {
		t.Fatalf("expected cleared session, got %+v", snap)
	}
	if len(storage.keys()) != 0 {
		t.Fatalf("storage not cleared: %v", storage.keys())
	}
}

func TestSessionStore_LoadsPersistedState(t *testing.T) {
	storage := newStubStorage()
	storage.data[domain.KeyToken] = "tok-7"
	storage.data[domain.KeyUser] = `{"id":3,"username":"ana","roles":["ADMIN"]}`
	storage.data[domain.KeyCompanyID] = "7"

	s := newTestStore(t, storage)
	snap := s.Snapshot()
	if snap.AccessToken != "tok-7" || snap.User == nil || snap.User.ID != 3 {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap.CompanyID == nil || *snap.CompanyID != 7 {
		t.Fatalf("company not restored")
	}
	if !snap.User.Roles.Has(domain.RoleAdmin) {
		t.Fatalf("roles not restored")
	}
}

func TestSessionStore_LoadWithoutTokenDropsCompany(t *testing.T) {
	storage := newStubStorage()
	storage.data[domain.KeyCompanyID] = "7"
	storage.data[domain.KeyUser] = `not json`

	s := newTestStore(t, storage)
	snap := s.Snapshot()
	if snap.CompanyID != nil {
		t.Fatalf("company must be nil without a token")
	}
	if snap.User != nil {
		t.Fatalf("unreadable user should be skipped")
	}
}

func TestSessionStore_SetUserReplacesWholesale(t *testing.T) {
	storage := newStubStorage()
	s := newTestStore(t, storage)
	ctx := context.Background()

	first := &domain.UserProfile{ID: 1, Username: "ana", Email: "ana@x.io", ProfileImageURL: "a.png", Roles: domain.RoleSetOf("ADMIN")}
	if err := s.SetUser(ctx, first); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	first.Username = "mutated"
	if s.User().Username != "ana" {
		t.Fatalf("store must not alias caller's profile")
	}

	if err := s.SetUser(ctx, &domain.UserProfile{ID: 1, Username: "ana"}); err != nil {
		t.Fatalf("SetUser: %v", err)
	}
	if got := s.User(); got.ProfileImageURL != "" || got.Roles.Len() != 0 {
		t.Fatalf("profile was merged instead of replaced: %+v", got)
	}

	if err := s.SetUser(ctx, nil); err != nil {
		t.Fatalf("SetUser(nil): %v", err)
	}
	if s.User() != nil {
		t.Fatalf("user not cleared")
	}
	if _, ok := storage.data[domain.KeyUser]; ok {
		t.Fatalf("persisted user not cleared")
	}
}

func TestSessionStore_StorageErrorSurfaces(t *testing.T) {
	storage := newStubStorage()
	storage.failSet = errors.New("disk full")
	s := newTestStore(t, storage)

	if err := s.SetToken(context.Background(), "tok-7"); err == nil {
		t.Fatalf("expected storage error")
	}
}

func TestSessionStore_LogoutIsIdempotent(t *testing.T) {
	storage := newStubStorage()
	nav := &stubNavigator{}
	rev := &stubRevoker{err: errors.New("network down")}
	s := newTestStore(t, storage, WithNavigator(nav), WithRevoker(rev))
	ctx := context.Background()

	_ = s.SetToken(ctx, "tok-7")
	_ = s.SetUser(ctx, &domain.UserProfile{ID: 1})

	for i := 0; i < 2; i++ {
		s.Logout(ctx)

		snap := s.Snapshot()
		if snap.AccessToken != "" || snap.User != nil || snap.CompanyID != nil {
			t.Fatalf("call %d: session not cleared: %+v", i+1, snap)
		}
		if keys := storage.keys(); len(keys) != 0 {
			t.Fatalf("call %d: storage not cleared: %v", i+1, keys)
		}
	}

	drainCtx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := s.Drain(drainCtx); err != nil {
		t.Fatalf("Drain: %v", err)
	}
	if rev.calls != 2 {
		t.Fatalf("remote logout calls = %d, want 2", rev.calls)
	}
	if nav.count() != 2 {
		t.Fatalf("redirects = %d, want 2", nav.count())
	}
}

func TestSessionStore_LogoutWithoutCollaborators(t *testing.T) {
	s := newTestStore(t, newStubStorage())
	s.Logout(context.Background())
	s.Logout(context.Background())
	if s.Token() != "" {
		t.Fatalf("token should be empty")
	}
}

type panickingNavigator struct{}

func (panickingNavigator) RedirectToLogin(string) { panic("boom") }

func TestSessionStore_LogoutNeverPanics(t *testing.T) {
	s := newTestStore(t, newStubStorage(), WithNavigator(panickingNavigator{}))
	s.Logout(context.Background())
}

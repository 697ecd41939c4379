package service

import (
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

type stubStorage struct {
	mu      sync.Mutex
	data    map[string]string
	failSet error
}

func newStubStorage() *stubStorage {
	return &stubStorage{data: make(map[string]string)}
}

func (s *stubStorage) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.data[key]
	return v, ok, nil
}

func (s *stubStorage) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.data[key] = value
	return nil
}

func (s *stubStorage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		delete(s.data, k)
	}
	return nil
}

func (s *stubStorage) keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.data))
	for k := range s.data {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

var errBadToken = errors.New("bad token")

// stubDecoder maps tokens to company ids; anything else fails to decode.
type stubDecoder map[string]int64

func (d stubDecoder) CompanyID(token string) (int64, error) {
	if id, ok := d[token]; ok {
		return id, nil
	}
	return 0, errBadToken
}

type stubNavigator struct {
	mu      sync.Mutex
	reasons []string
}

func (n *stubNavigator) RedirectToLogin(reason string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.reasons = append(n.reasons, reason)
}

func (n *stubNavigator) count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.reasons)
}

type stubRevoker struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (r *stubRevoker) Logout(context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	return r.err
}

type stubAuthAPI struct {
	LoginFn           func(context.Context, domain.LoginInput) (*domain.AuthResult, error)
	RegisterFn        func(context.Context, domain.RegisterInput) (*domain.AuthResult, error)
	RegisterCompanyFn func(context.Context, domain.RegisterCompanyInput) (*domain.AuthResult, error)
}

func (s *stubAuthAPI) Login(ctx context.Context, in domain.LoginInput) (*domain.AuthResult, error) {
	return s.LoginFn(ctx, in)
}

func (s *stubAuthAPI) Register(ctx context.Context, in domain.RegisterInput) (*domain.AuthResult, error) {
	return s.RegisterFn(ctx, in)
}

func (s *stubAuthAPI) RegisterCompany(ctx context.Context, in domain.RegisterCompanyInput) (*domain.AuthResult, error) {
	return s.RegisterCompanyFn(ctx, in)
}

func (s *stubAuthAPI) Refresh(context.Context) (string, error) { return "", errors.New("not used") }
func (s *stubAuthAPI) Logout(context.Context) error            { return nil }

type stubUserAPI struct {
	ListByCompanyFn func(context.Context, int64) ([]domain.UserProfile, error)
	GetFn           func(context.Context, int64) (*domain.UserProfile, error)
	UpdateFn        func(context.Context, int64, domain.ProfileInput) (*domain.UserProfile, error)
	UpdateRolesFn   func(context.Context, int64, []domain.Role) (*domain.UserProfile, error)
	AnalyticsFn     func(context.Context, int64) (*domain.UserAnalytics, error)
	UploadFn        func(context.Context, string, io.Reader) (*domain.UserProfile, error)
}

func (s *stubUserAPI) ListByCompany(ctx context.Context, id int64) ([]domain.UserProfile, error) {
	return s.ListByCompanyFn(ctx, id)
}

func (s *stubUserAPI) Get(ctx context.Context, id int64) (*domain.UserProfile, error) {
	return s.GetFn(ctx, id)
}

func (s *stubUserAPI) Update(ctx context.Context, id int64, in domain.ProfileInput) (*domain.UserProfile, error) {
	return s.UpdateFn(ctx, id, in)
}

func (s *stubUserAPI) UpdateRoles(ctx context.Context, id int64, roles []domain.Role) (*domain.UserProfile, error) {
	return s.UpdateRolesFn(ctx, id, roles)
}

func (s *stubUserAPI) ChangePassword(context.Context, int64, domain.PasswordInput) error { return nil }

func (s *stubUserAPI) Analytics(ctx context.Context, companyID int64) (*domain.UserAnalytics, error) {
	return s.AnalyticsFn(ctx, companyID)
}

func (s *stubUserAPI) UploadProfileImage(ctx context.Context, name string, r io.Reader) (*domain.UserProfile, error) {
	return s.UploadFn(ctx, name, r)
}

func (s *stubUserAPI) DeleteProfileImage(context.Context) error { return nil }

type stubNotificationAPI struct {
	ListFn          func(context.Context, string) ([]domain.Notification, error)
	MarkAsReadFn    func(context.Context, int64, string) error
	MarkAllAsReadFn func(context.Context, int64, string) error
}

func (s *stubNotificationAPI) List(ctx context.Context, token string) ([]domain.Notification, error) {
	return s.ListFn(ctx, token)
}

func (s *stubNotificationAPI) MarkAsRead(ctx context.Context, id int64, token string) error {
	return s.MarkAsReadFn(ctx, id, token)
}

func (s *stubNotificationAPI) MarkAllAsRead(ctx context.Context, userID int64, token string) error {
	return s.MarkAllAsReadFn(ctx, userID, token)
}

// fixedSession satisfies SessionReader.
type fixedSession domain.Session

func (f fixedSession) Snapshot() domain.Session { return domain.Session(f) }

func int64p(v int64) *int64 { return &v }

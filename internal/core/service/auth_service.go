package service

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog"

	"github.com/pmdesk/pmdesk/internal/core/domain"
	"github.com/pmdesk/pmdesk/internal/core/ports"
)

// AuthService signs users in and out and keeps the stored profile in step
// with profile edits.
type AuthService struct {
	auth    ports.AuthAPI
	users   ports.UserAPI
	session *SessionStore
	log     zerolog.Logger
}

func NewAuthService(auth ports.AuthAPI, users ports.UserAPI, session *SessionStore, log zerolog.Logger) *AuthService {
	return &AuthService{auth: auth, users: users, session: session, log: log}
}

func (s *AuthService) Login(ctx context.Context, in domain.LoginInput) (*domain.UserProfile, error) {
	res, err := s.auth.Login(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return s.establish(ctx, res)
}

func (s *AuthService) Register(ctx context.Context, in domain.RegisterInput) (*domain.UserProfile, error) {
	res, err := s.auth.Register(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return s.establish(ctx, res)
}

func (s *AuthService) RegisterCompany(ctx context.Context, in domain.RegisterCompanyInput) (*domain.UserProfile, error) {
	res, err := s.auth.RegisterCompany(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("register company: %w", err)
	}
	return s.establish(ctx, res)
}

func (s *AuthService) establish(ctx context.Context, res *domain.AuthResult) (*domain.UserProfile, error) {
	if res == nil || res.Token == "" {
		return nil, fmt.Errorf("%w: server returned no access token", domain.ErrInvalidToken)
	}
	if err := s.session.SetToken(ctx, res.Token); err != nil {
		return nil, err
	}
	if err := s.session.SetUser(ctx, res.User); err != nil {
		return nil, err
	}
	if _, ok := s.session.CompanyID(); !ok {
		s.log.Warn().Msg("signed in without a company scope")
	}
	return s.session.User(), nil
}

// Logout never fails; see SessionStore.Logout.
func (s *AuthService) Logout(ctx context.Context) {
	s.session.Logout(ctx)
}

// Current returns the stored profile or ErrNotAuthenticated.
func (s *AuthService) Current() (*domain.UserProfile, error) {
	u := s.session.User()
	if u == nil || s.session.Token() == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return u, nil
}

// Reload fetches the current user's profile and replaces the stored one.
func (s *AuthService) Reload(ctx context.Context) (*domain.UserProfile, error) {
	cur, err := s.Current()
	if err != nil {
		return nil, err
	}
	fresh, err := s.users.Get(ctx, cur.ID)
	if err != nil {
		return nil, fmt.Errorf("reload profile: %w", err)
	}
	if err := s.session.SetUser(ctx, fresh); err != nil {
		return nil, err
	}
	return fresh, nil
}

func (s *AuthService) UpdateProfile(ctx context.Context, in domain.ProfileInput) (*domain.UserProfile, error) {
	cur, err := s.Current()
	if err != nil {
		return nil, err
	}
	updated, err := s.users.Update(ctx, cur.ID, in)
	if err != nil {
		return nil, fmt.Errorf("update profile: %w", err)
	}
	if err := s.session.SetUser(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

// UpdateRoles replaces another member's roles. Unknown role names are
// rejected before anything is sent. When the member is the signed-in user
// the stored profile is replaced with the server's answer.
func (s *AuthService) UpdateRoles(ctx context.Context, userID int64, names []string) (*domain.UserProfile, error) {
	cur, err := s.Current()
	if err != nil {
		return nil, err
	}
	if !cur.Can(domain.PermManageMembers) {
		return nil, fmt.Errorf("update roles: %w", domain.ErrForbidden)
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("update roles: %w: at least one role is required", domain.ErrValidation)
	}
	roles := domain.NewRoleSet()
	for _, n := range names {
		r, err := domain.ParseRole(n)
		if err != nil {
			return nil, fmt.Errorf("update roles: %w", err)
		}
		roles[r] = struct{}{}
	}

	updated, err := s.users.UpdateRoles(ctx, userID, roles.Sorted())
	if err != nil {
		return nil, fmt.Errorf("update roles: %w", err)
	}
	if userID == cur.ID {
		if err := s.session.SetUser(ctx, updated); err != nil {
			return nil, err
		}
	}
	return updated, nil
}

func (s *AuthService) ChangePassword(ctx context.Context, in domain.PasswordInput) error {
	cur, err := s.Current()
	if err != nil {
		return err
	}
	if err := s.users.ChangePassword(ctx, cur.ID, in); err != nil {
		return fmt.Errorf("change password: %w", err)
	}
	return nil
}

// UploadProfileImage uploads a new picture and refreshes the stored profile.
func (s *AuthService) UploadProfileImage(ctx context.Context, filename string, r io.Reader) (*domain.UserProfile, error) {
	if _, err := s.Current(); err != nil {
		return nil, err
	}
	updated, err := s.users.UploadProfileImage(ctx, filename, r)
	if err != nil {
		return nil, fmt.Errorf("upload profile image: %w", err)
	}
	if updated == nil {
		return s.Reload(ctx)
	}
	if err := s.session.SetUser(ctx, updated); err != nil {
		return nil, err
	}
	return updated, nil
}

func (s *AuthService) DeleteProfileImage(ctx context.Context) (*domain.UserProfile, error) {
	if _, err := s.Current(); err != nil {
		return nil, err
	}
	if err := s.users.DeleteProfileImage(ctx); err != nil {
		return nil, fmt.Errorf("delete profile image: %w", err)
	}
	return s.Reload(ctx)
}

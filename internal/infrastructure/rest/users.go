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

type UserClient struct{ c *Client }

func (c *Client) Users() *UserClient { return &UserClient{c: c} }

func (u *UserClient) ListByCompany(ctx context.Context, companyID int64) ([]domain.UserProfile, error) {
	var out []domain.UserProfile
	if err := u.c.Do(ctx, http.MethodGet, fmt.Sprintf("/users/company/%d", companyID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (u *UserClient) Get(ctx context.Context, id int64) (*domain.UserProfile, error) {
	var out domain.UserProfile
	if err := u.c.Do(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *UserClient) Update(ctx context.Context, id int64, in domain.ProfileInput) (*domain.UserProfile, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var out domain.UserProfile
	if err := u.c.Do(ctx, http.MethodPut, fmt.Sprintf("/users/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateRoles sends the roles as a bare JSON array.
func (u *UserClient) UpdateRoles(ctx context.Context, id int64, roles []domain.Role) (*domain.UserProfile, error) {
	var out domain.UserProfile
	if err := u.c.Do(ctx, http.MethodPut, fmt.Sprintf("/users/%d/roles", id), roles, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (u *UserClient) ChangePassword(ctx context.Context, id int64, in domain.PasswordInput) error {
	if err := Validate(in); err != nil {
		return err
	}
	return u.c.Do(ctx, http.MethodPut, fmt.Sprintf("/users/%d/password", id), in, nil)
}

func (u *UserClient) Analytics(ctx context.Context, companyID int64) (*domain.UserAnalytics, error) {
	var out domain.UserAnalytics
	q := url.Values{"companyId": {strconv.FormatInt(companyID, 10)}}
	if err := u.c.Do(ctx, http.MethodGet, "/users/analytics", nil, &out, WithQuery(q)); err != nil {
		return nil, err
	}
	return &out, nil
}

// UploadProfileImage returns the updated profile.
func (u *UserClient) UploadProfileImage(ctx context.Context, filename string, r io.Reader) (*domain.UserProfile, error) {
	var out domain.UserProfile
	if err := u.c.Upload(ctx, "/common/upload-profile-image", filename, r, &out); err != nil {
		return nil, err
	}
	if out.ID == 0 {
		return nil, nil
	}
	return &out, nil
}

func (u *UserClient) DeleteProfileImage(ctx context.Context) error {
	var msg string
	return u.c.Do(ctx, http.MethodDelete, "/common/delete-profile-image", nil, &msg)
}

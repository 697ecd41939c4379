package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

type TeamClient struct{ c *Client }

func (c *Client) Teams() *TeamClient { return &TeamClient{c: c} }

func (t *TeamClient) List(ctx context.Context) ([]domain.Team, error) {
	return t.list(ctx, "/teams")
}

func (t *TeamClient) ListByCompany(ctx context.Context, companyID int64) ([]domain.Team, error) {
	return t.list(ctx, fmt.Sprintf("/teams/company/%d", companyID))
}

func (t *TeamClient) list(ctx context.Context, path string) ([]domain.Team, error) {
	var out []domain.Team
	if err := t.c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *TeamClient) Get(ctx context.Context, id int64) (*domain.Team, error) {
	var out domain.Team
	if err := t.c.Do(ctx, http.MethodGet, fmt.Sprintf("/teams/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TeamClient) Create(ctx context.Context, in domain.TeamInput) (*domain.Team, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var out domain.Team
	if err := t.c.Do(ctx, http.MethodPost, "/teams", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TeamClient) Members(ctx context.Context, teamID int64) ([]domain.UserProfile, error) {
	var out []domain.UserProfile
	if err := t.c.Do(ctx, http.MethodGet, fmt.Sprintf("/teams/%d/members", teamID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *TeamClient) AddMember(ctx context.Context, in domain.Invite) (*domain.Team, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var out domain.Team
	if err := t.c.Do(ctx, http.MethodPost, fmt.Sprintf("/teams/%d/members", in.TeamID), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TeamClient) RemoveMember(ctx context.Context, teamID, userID int64) (*domain.Team, error) {
	var out domain.Team
	if err := t.c.Do(ctx, http.MethodDelete, fmt.Sprintf("/teams/%d/members/%d", teamID, userID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

type ProjectClient struct{ c *Client }

func (c *Client) Projects() *ProjectClient { return &ProjectClient{c: c} }

func (p *ProjectClient) List(ctx context.Context) ([]domain.Project, error) {
	return p.list(ctx, "/projects")
}

func (p *ProjectClient) ListByCompany(ctx context.Context, companyID int64) ([]domain.Project, error) {
	return p.list(ctx, fmt.Sprintf("/projects/company/%d", companyID))
}

func (p *ProjectClient) list(ctx context.Context, path string) ([]domain.Project, error) {
	var out []domain.Project
	if err := p.c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *ProjectClient) Get(ctx context.Context, id int64) (*domain.Project, error) {
	var out domain.Project
	if err := p.c.Do(ctx, http.MethodGet, fmt.Sprintf("/projects/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *ProjectClient) Create(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	return p.save(ctx, http.MethodPost, in)
}

// Update sends the whole project; the id travels in the body.
func (p *ProjectClient) Update(ctx context.Context, in domain.ProjectInput) (*domain.Project, error) {
	if in.ID == 0 {
		return nil, fmt.Errorf("%w: project id is required", domain.ErrValidation)
	}
	return p.save(ctx, http.MethodPut, in)
}

func (p *ProjectClient) save(ctx context.Context, method string, in domain.ProjectInput) (*domain.Project, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	if !in.StartDate.IsZero() && !in.EndDate.IsZero() && in.EndDate.Before(in.StartDate.Time) {
		return nil, fmt.Errorf("%w: end date is before start date", domain.ErrValidation)
	}
	var out domain.Project
	if err := p.c.Do(ctx, method, "/projects", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *ProjectClient) UpdateStatus(ctx context.Context, id int64, status domain.ProjectStatus) (*domain.Project, error) {
	if _, err := domain.ParseProjectStatus(string(status)); err != nil {
		return nil, err
	}
	var out domain.Project
	body := map[string]string{"status": string(status)}
	if err := p.c.Do(ctx, http.MethodPut, fmt.Sprintf("/projects/%d/status", id), body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (p *ProjectClient) Delete(ctx context.Context, id int64) error {
	return p.c.Do(ctx, http.MethodDelete, fmt.Sprintf("/projects/%d", id), nil, nil)
}

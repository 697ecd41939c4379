package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

type TaskClient struct{ c *Client }

func (c *Client) Tasks() *TaskClient { return &TaskClient{c: c} }

func (t *TaskClient) List(ctx context.Context) ([]domain.Task, error) {
	return t.list(ctx, "/tasks")
}

func (t *TaskClient) ListByProject(ctx context.Context, projectID int64) ([]domain.Task, error) {
	return t.list(ctx, fmt.Sprintf("/tasks/project/%d", projectID))
}

func (t *TaskClient) list(ctx context.Context, path string) ([]domain.Task, error) {
	var out []domain.Task
	if err := t.c.Do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (t *TaskClient) Get(ctx context.Context, id int64) (*domain.Task, error) {
	var out domain.Task
	if err := t.c.Do(ctx, http.MethodGet, fmt.Sprintf("/tasks/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TaskClient) Create(ctx context.Context, in domain.TaskInput) (*domain.Task, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	var out domain.Task
	if err := t.c.Do(ctx, http.MethodPost, "/tasks", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TaskClient) Update(ctx context.Context, id int64, in domain.TaskInput) (*domain.Task, error) {
	if err := Validate(in); err != nil {
		return nil, err
	}
	in.ID = id
	var out domain.Task
	if err := t.c.Do(ctx, http.MethodPut, fmt.Sprintf("/tasks/%d", id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (t *TaskClient) Delete(ctx context.Context, id int64) error {
	return t.c.Do(ctx, http.MethodDelete, fmt.Sprintf("/tasks/%d", id), nil, nil)
}

// Elaborate asks the server's assistant to break the task into steps.
func (t *TaskClient) Elaborate(ctx context.Context, id int64) (*domain.TaskElaboration, error) {
	var out domain.TaskElaboration
	if err := t.c.Do(ctx, http.MethodGet, fmt.Sprintf("/ai/elaborate/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

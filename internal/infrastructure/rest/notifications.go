package rest

import (
	"context"
	"fmt"
	"net/http"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

type NotificationClient struct{ c *Client }

func (c *Client) Notifications() *NotificationClient { return &NotificationClient{c: c} }

func (n *NotificationClient) List(ctx context.Context, token string) ([]domain.Notification, error) {
	var out []domain.Notification
	if err := n.c.Do(ctx, http.MethodGet, "/notifications", nil, &out, WithBearer(token)); err != nil {
		return nil, err
	}
	return out, nil
}

func (n *NotificationClient) MarkAsRead(ctx context.Context, id int64, token string) error {
	return n.c.Do(ctx, http.MethodPut, fmt.Sprintf("/notifications/%d/read", id), struct{}{}, nil, WithBearer(token))
}

func (n *NotificationClient) MarkAllAsRead(ctx context.Context, userID int64, token string) error {
	return n.c.Do(ctx, http.MethodPut, fmt.Sprintf("/notifications/read-all/%d", userID), struct{}{}, nil, WithBearer(token))
}

package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/pmdesk/pmdesk/internal/core/domain"
)

// NotificationFeed is the live notification list kept by `pmdesk watch`.
type NotificationFeed interface {
	Items() []domain.Notification
	UnreadCount() int
	MarkAsRead(ctx context.Context, id int64, token string) error
	MarkAllAsRead(ctx context.Context, userID int64, token string) error
}

type NotificationHandler struct {
	feed NotificationFeed
}

func NewNotificationHandler(feed NotificationFeed) *NotificationHandler {
	return &NotificationHandler{feed: feed}
}

type notificationListResponse struct {
	Unread int                   `json:"unread"`
	Items  []domain.Notification `json:"items"`
}

type markReadRequest struct {
	ID int64 `param:"id" validate:"gt=0"`
}

// List handles GET /notifications.
//
// @Summary      Live notification feed
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  notificationListResponse
// @Failure      401  {object}  map[string]string
// @Router       /notifications [get]
func (h *NotificationHandler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, notificationListResponse{
		Unread: h.feed.UnreadCount(),
		Items:  h.feed.Items(),
	})
}

// MarkAsRead handles POST /notifications/:id/read.
//
// @Summary      Mark one notification as read
// @Tags         notifications
// @Security     BearerAuth
// @Param        id   path      int  true  "Notification ID"
// @Success      204
// @Failure      400  {object}  map[string]string
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /notifications/{id}/read [post]
func (h *NotificationHandler) MarkAsRead(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	var req markReadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid notification id")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}
	if err := h.feed.MarkAsRead(c.Request().Context(), req.ID, sess.AccessToken); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// MarkAllAsRead handles POST /notifications/read-all.
//
// @Summary      Mark every notification as read
// @Tags         notifications
// @Security     BearerAuth
// @Success      204
// @Failure      401  {object}  map[string]string
// @Failure      502  {object}  map[string]string
// @Router       /notifications/read-all [post]
func (h *NotificationHandler) MarkAllAsRead(c echo.Context) error {
	sess, err := ctxSession(c)
	if err != nil {
		return err
	}
	userID, err := sess.UserID()
	if err != nil {
		return err
	}
	if err := h.feed.MarkAllAsRead(c.Request().Context(), userID, sess.AccessToken); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

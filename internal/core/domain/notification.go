package domain

// NotificationType tags what an event is about.
type NotificationType string

const (
	NotificationTaskAssigned   NotificationType = "TASK_ASSIGNED"
	NotificationTaskUpdated    NotificationType = "TASK_UPDATED"
	NotificationProjectUpdated NotificationType = "PROJECT_UPDATED"
	NotificationTeamInvite     NotificationType = "TEAM_INVITE"
)

// Notification is one event in the user's feed, delivered either by the push
// channel or by GET /notifications.
type Notification struct {
	ID              int64            `json:"id"`
	Message         string           `json:"message"`
	Type            NotificationType `json:"type"`
	CreatedAt       Timestamp        `json:"createdAt"`
	Read            bool             `json:"read"`
	RelatedEntityID int64            `json:"relatedEntityId"`
}

const defaultNotificationText = "New notification"

// Text is the message to show, falling back to a generic one.
func (n Notification) Text() string {
	if n.Message == "" {
		return defaultNotificationText
	}
	return n.Message
}

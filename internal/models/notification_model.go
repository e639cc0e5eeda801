package models

import "time"

type NotificationType string

const (
	NotificationPostScheduled NotificationType = "post_scheduled"
	NotificationPostPublished NotificationType = "post_published"
	NotificationPostFailed    NotificationType = "post_failed"
	NotificationSystem        NotificationType = "system"
)

type Notification struct {
	ID        string           `json:"id"`
	UserID    int64            `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	IsRead    bool             `json:"is_read"`
	CreatedAt time.Time        `json:"created_at"`
}

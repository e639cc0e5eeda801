package models

import "time"

// ScheduledPost is the read-only projection of a post owned by the
// scheduling backend. The backend is the authority for its status.
type ScheduledPost struct {
	ID           int64     `json:"id"`
	Caption      string    `json:"caption"`
	Prompt       string    `json:"prompt"`
	PostType     string    `json:"post_type"`
	ScheduledAt  time.Time `json:"scheduled_datetime"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"error_message,omitempty"`
	MediaURL     string    `json:"media_url,omitempty"`
}

const (
	PostStatusScheduled = "scheduled"
	PostStatusPublished = "published"
	PostStatusFailed    = "failed"
)

package transfer

import "encoding/json"

// Wire shapes for the external scheduling backend. These are the backend's
// contract and are not redesigned here; both the current and the legacy
// bulk-schedule response shapes must be handled.

type PostPayload struct {
	ClientRef      string   `json:"client_ref,omitempty"`
	Caption        string   `json:"caption"`
	ScheduledDate  string   `json:"scheduled_date"`
	ScheduledTime  string   `json:"scheduled_time"`
	PostType       string   `json:"post_type"`
	MediaFile      string   `json:"media_file,omitempty"`
	MediaFilename  string   `json:"media_filename,omitempty"`
	CarouselImages []string `json:"carousel_images,omitempty"`
	ThumbnailFile  string   `json:"thumbnail_file,omitempty"`
	ImagePrompt    string   `json:"image_prompt,omitempty"`
}

type BulkScheduleRequest struct {
	SocialAccountID int64         `json:"social_account_id"`
	Posts           []PostPayload `json:"posts"`
}

type BulkScheduleResponse struct {
	Success        bool                `json:"success"`
	Message        string              `json:"message,omitempty"`
	ScheduledPosts []ScheduledPostItem `json:"scheduled_posts,omitempty"`
	FailedPosts    []FailedPostItem    `json:"failed_posts,omitempty"`

	// Legacy shape: one entry per submitted post, matched back to rows
	// by caption and scheduled date.
	Results []LegacyResultItem `json:"results,omitempty"`
}

type ScheduledPostItem struct {
	ID        int64  `json:"id"`
	ClientRef string `json:"client_ref,omitempty"`
}

type FailedPostItem struct {
	Index     int    `json:"index"`
	ClientRef string `json:"client_ref,omitempty"`
	Error     string `json:"error"`
}

type LegacyResultItem struct {
	Success       bool   `json:"success"`
	Error         string `json:"error,omitempty"`
	Caption       string `json:"caption"`
	ScheduledDate string `json:"scheduled_date"`
}

type CaptionGenerationRequest struct {
	Prompt  string `json:"prompt"`
	Context string `json:"context,omitempty"`
}

type CaptionGenerationResponse struct {
	Caption string `json:"caption"`
}

type ImageGenerationRequest struct {
	Prompt string `json:"prompt"`
}

type ImageGenerationResponse struct {
	URL string `json:"url"`
}

type BackendLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type BackendLoginResponse struct {
	Token string `json:"token"`
	Name  string `json:"name"`
}

type PostUpdateRequest struct {
	Caption           string `json:"caption"`
	PostType          string `json:"post_type"`
	ScheduledDatetime string `json:"scheduled_datetime"`
}

// WSEnvelope is one message from the backend notification socket.
type WSEnvelope struct {
	Type         string          `json:"type"`
	Notification json.RawMessage `json:"notification"`
}

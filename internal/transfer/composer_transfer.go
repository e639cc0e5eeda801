package transfer

import "github.com/maheshrc27/composer-api/internal/models"

type StrategyInput struct {
	PromptTemplate         string `json:"prompt_template" validate:"required"`
	CustomStrategyTemplate string `json:"custom_strategy_template" validate:"required_if=PromptTemplate custom"`
	StartDate              string `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate                string `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Frequency              string `json:"frequency" validate:"required,oneof=daily weekly monthly custom"`
	CronExpr               string `json:"cron_expr"`
	TimeSlot               string `json:"time_slot" validate:"required,datetime=15:04"`
	PostType               string `json:"post_type" validate:"required,oneof=photo carousel reel"`
	CarouselImageCount     int    `json:"carousel_image_count" validate:"omitempty,min=2,max=7"`
}

type EditCellInput struct {
	RowID string `json:"row_id" validate:"required"`
	Field string `json:"field" validate:"required,oneof=caption scheduled_date scheduled_time media_url thumbnail_url"`
	Value string `json:"value"`
}

type ReorderInput struct {
	SourceID string `json:"source_id" validate:"required"`
	TargetID string `json:"target_id" validate:"required"`
}

type RowSelectionInput struct {
	RowIDs []string `json:"row_ids" validate:"required,min=1"`
}

type SubmitInput struct {
	SocialAccountID int64 `json:"social_account_id" validate:"required"`
}

// GenerationReport aggregates per-row caption/image generation outcomes.
// Individual failures leave the row untouched; a second manual invocation
// is the retry path.
type GenerationReport struct {
	Requested int `json:"requested"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

type SubmissionResult struct {
	Submitted int    `json:"submitted"`
	Scheduled int    `json:"scheduled"`
	Failed    int    `json:"failed"`
	Message   string `json:"message,omitempty"`
}

type SessionView struct {
	Platform string            `json:"platform"`
	Strategy *models.Strategy  `json:"strategy,omitempty"`
	Rows     []*models.Row     `json:"rows"`
	Selected []string          `json:"selected"`
	Report   *GenerationReport `json:"generation_report,omitempty"`
}

type HistoryQuery struct {
	Search  string
	SortBy  string
	SortDir string
	Page    int
}

type HistoryPage struct {
	Posts      []*models.ScheduledPost `json:"posts"`
	Page       int                     `json:"page"`
	PageSize   int                     `json:"page_size"`
	TotalItems int                     `json:"total_items"`
	TotalPages int                     `json:"total_pages"`
}

type PostUpdate struct {
	Caption       string `json:"caption" validate:"required"`
	PostType      string `json:"post_type" validate:"required,oneof=photo carousel reel"`
	ScheduledDate string `json:"scheduled_date" validate:"required,datetime=2006-01-02"`
	ScheduledTime string `json:"scheduled_time" validate:"required,datetime=15:04"`
}

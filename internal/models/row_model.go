package models

const (
	FrequencyDaily   = "daily"
	FrequencyWeekly  = "weekly"
	FrequencyMonthly = "monthly"
	FrequencyCustom  = "custom"
)

const (
	PostTypePhoto    = "photo"
	PostTypeCarousel = "carousel"
	PostTypeReel     = "reel"
)

const (
	RowStatusDraft     = "draft"
	RowStatusReady     = "ready"
	RowStatusScheduled = "scheduled"
	RowStatusFailed    = "failed"
	RowStatusPublished = "published"
)

const (
	PromptTemplateCustom = "custom"

	CarouselMinImages = 2
	CarouselMaxImages = 7
)

type Strategy struct {
	PromptTemplate         string `json:"prompt_template"`
	CustomStrategyTemplate string `json:"custom_strategy_template"`
	StartDate              string `json:"start_date"`
	EndDate                string `json:"end_date"`
	Frequency              string `json:"frequency"`
	CronExpr               string `json:"cron_expr"`
	TimeSlot               string `json:"time_slot"`
	PostType               string `json:"post_type"`
	CarouselImageCount     int    `json:"carousel_image_count"`
}

type Row struct {
	ID                string   `json:"id"`
	ClientRef         string   `json:"client_ref"`
	Caption           string   `json:"caption"`
	MediaURL          string   `json:"media_url"`
	MediaFilename     string   `json:"media_filename"`
	GeneratedImageURL string   `json:"generated_image_url"`
	CarouselImages    []string `json:"carousel_images"`
	ThumbnailURL      string   `json:"thumbnail_url"`
	ScheduledDate     string   `json:"scheduled_date"`
	ScheduledTime     string   `json:"scheduled_time"`
	PostType          string   `json:"post_type"`
	Status            string   `json:"status"`
	Error             string   `json:"error"`
}

// HasMedia reports whether the row carries any publishable media reference.
func (r *Row) HasMedia() bool {
	if r.PostType == PostTypeCarousel {
		return len(r.CarouselImages) >= CarouselMinImages
	}
	return r.MediaURL != "" || r.GeneratedImageURL != ""
}

// PlatformCaps bounds the row generator and history views per composer
// variant.
type PlatformCaps struct {
	Platform string
	MaxDays  int
	MaxRows  int
	PageSize int
}

var (
	CapsFacebook  = PlatformCaps{Platform: "facebook", MaxDays: 75, MaxRows: 50, PageSize: 10}
	CapsInstagram = PlatformCaps{Platform: "instagram", MaxDays: 30, MaxRows: 30, PageSize: 5}
)

func CapsFor(platform string) (PlatformCaps, bool) {
	switch platform {
	case "facebook":
		return CapsFacebook, true
	case "instagram":
		return CapsInstagram, true
	}
	return PlatformCaps{}, false
}

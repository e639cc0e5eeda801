package queue

import (
	"github.com/maheshrc27/composer-api/internal/service"
)

type Queue struct {
	cs service.ComposerService
}

func NewQueue(cs service.ComposerService) *Queue {
	return &Queue{cs: cs}
}

const TaskTypeGenerateImages = "composer:generate_images"

type GenerateImagesPayload struct {
	UserID   int64    `json:"user_id"`
	Platform string   `json:"platform"`
	RowIDs   []string `json:"row_ids"`
}

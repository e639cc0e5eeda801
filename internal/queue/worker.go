package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

// HandleGenerateImagesTask runs one image-generation batch in the
// background. Row processing stays sequential inside the service unless
// the concurrency bound was raised; per-row failures are counted in the
// session's generation report, not retried here.
func (q *Queue) HandleGenerateImagesTask(ctx context.Context, task *asynq.Task) error {
	var payload GenerateImagesPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	report, err := q.cs.GenerateImages(ctx, payload.UserID, payload.Platform, payload.RowIDs)
	if err != nil {
		return err
	}

	log.Printf("Image generation finished: user=%d platform=%s succeeded=%d failed=%d skipped=%d",
		payload.UserID, payload.Platform, report.Succeeded, report.Failed, report.Skipped)
	return nil
}

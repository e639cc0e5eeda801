package queue

import (
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

func EnqueueImageGeneration(asynqClient *asynq.Client, payload GenerateImagesPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeGenerateImages, taskPayload)

	_, err = asynqClient.Enqueue(task)
	if err != nil {
		return err
	}

	log.Printf("Image generation task queued: user=%d platform=%s rows=%d", payload.UserID, payload.Platform, len(payload.RowIDs))
	return nil
}

package queue

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

func (q *Queue) HandleMediaCleanupTask(ctx context.Context, task *asynq.Task) error {
	var payload CleanupPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return err
	}

	if err := q.mr.DeleteByURL(ctx, payload.FileURL); err != nil {
		log.Printf("Error deleting media %s: %v", payload.FileURL, err)
		return err
	}

	return nil
}

package queue

import (
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
)

func EnqueueCleanup(asynqClient *asynq.Client, payload CleanupPayload) error {
	taskPayload, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	task := asynq.NewTask(TaskTypeMediaCleanup, taskPayload)

	_, err = asynqClient.Enqueue(task, asynq.MaxRetry(5))
	if err != nil {
		return err
	}

	log.Printf("Media cleanup scheduled: %+v", payload)
	return nil
}

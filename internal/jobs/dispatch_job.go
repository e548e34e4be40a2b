package job

import (
	"context"

	"github.com/dailyspark/dailyspark/internal/service"
)

// DispatchJob bridges the cron trigger to the dispatch engine. The
// engine only needs to be invoked periodically; the schedule itself
// lives in main.
type DispatchJob struct {
	ds service.DispatchService
}

func NewDispatchJob(ds service.DispatchService) *DispatchJob {
	return &DispatchJob{ds: ds}
}

func (j *DispatchJob) Run() {
	ctx := context.Background()
	j.ds.RunPending(ctx)
}

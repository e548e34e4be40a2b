package queue

import "context"

// MediaRemover deletes a stored blob by its public URL. Satisfied by
// the R2 media service; kept local so this package stays independent
// of the service layer.
type MediaRemover interface {
	DeleteByURL(ctx context.Context, fileURL string) error
}

type Queue struct {
	mr MediaRemover
}

func NewQueue(mr MediaRemover) *Queue {
	return &Queue{mr: mr}
}

const TaskTypeMediaCleanup = "media:cleanup"

type CleanupPayload struct {
	FileURL string `json:"file_url"`
}

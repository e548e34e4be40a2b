package models

import "time"

// PlatformResult is the raw outcome of one platform's publish attempt.
type PlatformResult struct {
	Platform string `json:"platform"`
	Success  bool   `json:"success"`
	Message  string `json:"message,omitempty"`
}

type HistoryRecord struct {
	ID               string           `db:"id" json:"id"`
	Content          string           `db:"content" json:"content"`
	Platforms        []string         `db:"platforms" json:"platforms"`
	SentPlatforms    []string         `db:"sent_platforms" json:"sent_platforms"`
	FailedPlatforms  []string         `db:"failed_platforms" json:"failed_platforms"`
	MediaRef         *MediaRef        `json:"media_ref,omitempty"`
	PostType         string           `db:"post_type" json:"post_type"`
	Status           string           `db:"status" json:"status"` // sent, partial, failed
	FailureReason    string           `db:"failure_reason" json:"failure_reason,omitempty"`
	Results          []PlatformResult `db:"results" json:"results"`
	SentAt           time.Time        `db:"sent_at" json:"sent_at"`
	MovedToHistoryAt time.Time        `db:"moved_to_history_at" json:"moved_to_history_at"`
	QueueID          string           `db:"queue_id" json:"queue_id,omitempty"`
	OriginalPostID   string           `db:"original_post_id" json:"original_post_id,omitempty"`
}

const (
	HistoryStatusSent    = "sent"
	HistoryStatusPartial = "partial"
	HistoryStatusFailed  = "failed"
)

// DeriveHistoryStatus classifies an attempt from its per-platform outcome
// sets: sent when nothing failed, failed when nothing succeeded, partial
// otherwise.
func DeriveHistoryStatus(sentPlatforms, failedPlatforms []string) string {
	if len(failedPlatforms) == 0 {
		return HistoryStatusSent
	}
	if len(sentPlatforms) == 0 {
		return HistoryStatusFailed
	}
	return HistoryStatusPartial
}

package transfer

type HistoryQuery struct {
	SinceDays int
	Status    string
	Platform  string
	Limit     int
}

const (
	HistoryActionRepost = "repost"
	HistoryActionDelete = "delete"
)

type HistoryAction struct {
	Action      string   `json:"action"`
	ID          string   `json:"id"`
	Content     string   `json:"content,omitempty"`
	Platforms   []string `json:"platforms,omitempty"`
	ScheduledAt string   `json:"scheduled_at,omitempty"`
	Immediate   bool     `json:"immediate,omitempty"`
}

package transfer

type MediaRefPayload struct {
	URL  string `json:"url"`
	Kind string `json:"kind"`
}

type QueueCreation struct {
	Content     string            `json:"content"`
	Platforms   []string          `json:"platforms"`
	ScheduledAt string            `json:"scheduled_at"`
	MediaRef    *MediaRefPayload  `json:"media_ref,omitempty"`
	PostType    string            `json:"post_type,omitempty"`
	Fields      map[string]string `json:"fields,omitempty"` // caption template values
}

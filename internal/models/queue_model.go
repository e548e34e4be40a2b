package models

import "time"

// MediaRef points at a stored blob backing a post.
type MediaRef struct {
	URL  string `json:"url"`
	Kind string `json:"kind"` // image, video
}

type QueueEntry struct {
	ID            string    `db:"id" json:"id"`
	Content       string    `db:"content" json:"content"`
	Platforms     []string  `db:"platforms" json:"platforms"`
	MediaRef      *MediaRef `json:"media_ref,omitempty"`
	PostType      string    `db:"post_type" json:"post_type"` // post, reel
	ScheduledAt   time.Time `db:"scheduled_at" json:"scheduled_at"`
	Status        string    `db:"status" json:"status"`
	QueuePosition int64     `db:"queue_position" json:"queue_position"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}

const (
	QueueStatusScheduled = "scheduled"

	PostTypePost = "post"
	PostTypeReel = "reel"

	MediaKindImage = "image"
	MediaKindVideo = "video"
)

const (
	PlatformLinkedin  = "linkedin"
	PlatformX         = "x"
	PlatformFacebook  = "facebook"
	PlatformInstagram = "instagram"
	PlatformTelegram  = "telegram"
)

// SupportedPlatforms lists every platform a post can target.
var SupportedPlatforms = []string{
	PlatformLinkedin,
	PlatformX,
	PlatformFacebook,
	PlatformInstagram,
	PlatformTelegram,
}

func IsSupportedPlatform(platform string) bool {
	for _, p := range SupportedPlatforms {
		if p == platform {
			return true
		}
	}
	return false
}

package domain

import "time"

// ArchivedStory is a feed story already mirrored to Telegram.
type ArchivedStory struct {
	ID        int
	StoryID   string
	Author    string
	PhotoURL  string
	CreatedAt time.Time
}

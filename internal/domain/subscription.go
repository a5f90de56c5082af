package domain

import "time"

// Subscription is a Telegram chat that receives mirrored stories.
type Subscription struct {
	ID        int
	ChatID    int64
	CreatedAt time.Time
}

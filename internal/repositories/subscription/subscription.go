package subscription

import (
	"context"
	"errors"

	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
)

var (
	ErrAlreadyExists = errors.New("subscription already exists")
	ErrNotFound      = errors.New("subscription not found")
)

// Repository stores the Telegram chats subscribed to the mirrored feed.
type Repository interface {
	Create(ctx context.Context, sub domain.Subscription) error
	Delete(ctx context.Context, chatID int64) error
	GetAllChatIDs(ctx context.Context) ([]int64, error)
}

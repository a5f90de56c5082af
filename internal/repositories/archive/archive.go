package archive

import (
	"context"
	"errors"
	"time"

	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
)

var ErrNotFound = errors.New("archived story not found")
var ErrCannotCreate = errors.New("error archiving story")

// Repository records which feed stories have already been mirrored.
type Repository interface {
	GetByStoryID(ctx context.Context, storyID string) (*domain.ArchivedStory, error)
	Create(ctx context.Context, story domain.ArchivedStory) error
	CleanupOldRecords(ctx context.Context, olderThan time.Duration) (int64, error)
}

package collection

import (
	"context"

	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
)

// Snapshot is the observable state of the story collection. Stories are in
// page-arrival order with no duplicate ids.
type Snapshot struct {
	Stories      []domain.Story
	Detail       *domain.Story
	Loading      bool
	HasMore      bool
	Success      bool
	ErrorMessage string
}

// Controller maintains a continuously-updated, de-duplicated story
// collection. Refresh replaces, LoadMore appends; both require a live
// session and fail before any network call when the token is absent.
type Controller interface {
	Refresh(ctx context.Context) error
	LoadMore(ctx context.Context) error
	FetchDetail(ctx context.Context, id string) (*domain.Story, error)
	// FetchLocated returns the geotagged stories of the feed. The result is
	// not cached; it does not touch the paged collection.
	FetchLocated(ctx context.Context) ([]domain.Story, error)
	Upload(ctx context.Context, job domain.UploadJob) error
	Snapshot() Snapshot
	Watch(ctx context.Context) <-chan Snapshot
	// Invalidate drops all cached state; responses of in-flight loads started
	// before the call are discarded when they arrive.
	Invalidate()
}

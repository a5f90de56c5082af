package collectionimpl

import (
	"context"
	"sync"

	"github.com/orgball2608/story-sync-telegram-bot/internal/collection"
	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
	"github.com/orgball2608/story-sync-telegram-bot/internal/paging"
	"github.com/orgball2608/story-sync-telegram-bot/internal/storyapi"
	"github.com/orgball2608/story-sync-telegram-bot/internal/tokenstore"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/config"
	apperrors "github.com/orgball2608/story-sync-telegram-bot/pkg/errors"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

const defaultPageSize = 10

type CollectionImpl struct {
	API      storyapi.Client
	Tokens   tokenstore.Store
	Logger   logger.Logger
	PageSize int

	mu        sync.Mutex
	stories   []domain.Story
	seen      map[string]struct{}
	nextKey   *int
	detail    *domain.Story
	loading   bool
	success   bool
	errMsg    string
	epoch     uint64
	appending bool
	watchers  map[chan collection.Snapshot]struct{}
}

type Opts struct {
	fx.In

	API    storyapi.Client
	Tokens tokenstore.Store
	Logger logger.Logger
	Config *config.Config
}

func New(opts Opts) *CollectionImpl {
	pageSize := opts.Config.StoryAPI.PageSize
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}

	return &CollectionImpl{
		API:      opts.API,
		Tokens:   opts.Tokens,
		Logger:   opts.Logger.WithComponent("Collection"),
		PageSize: pageSize,
		seen:     make(map[string]struct{}),
		watchers: make(map[chan collection.Snapshot]struct{}),
	}
}

// NewManual wires the controller without fx, for tests and tooling.
func NewManual(api storyapi.Client, tokens tokenstore.Store, log logger.Logger, pageSize int) *CollectionImpl {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &CollectionImpl{
		API:      api,
		Tokens:   tokens,
		Logger:   log.WithComponent("Collection"),
		PageSize: pageSize,
		seen:     make(map[string]struct{}),
		watchers: make(map[chan collection.Snapshot]struct{}),
	}
}

var _ collection.Controller = (*CollectionImpl)(nil)

// Refresh reloads the collection from the first page, replacing its
// contents. A newer refresh supersedes an older in-flight one: the stale
// response is discarded when it arrives.
func (c *CollectionImpl) Refresh(ctx context.Context) error {
	token, err := c.requireToken(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	c.epoch++
	epoch := c.epoch
	c.loading = true
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()

	src := paging.NewSource(c.API, token, c.Logger)
	page, err := src.Load(ctx, nil, c.PageSize)

	c.mu.Lock()
	if epoch != c.epoch {
		// Superseded by a newer refresh or an invalidation.
		c.mu.Unlock()
		return nil
	}
	c.loading = false
	if err != nil {
		c.errMsg = apperrors.GetMessage(err)
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.stories = nil
	c.seen = make(map[string]struct{})
	c.appendLocked(page.Data)
	c.nextKey = page.NextKey
	c.mu.Unlock()
	c.notify()
	return nil
}

// LoadMore appends the next page. It is a no-op at end of data and while an
// append is already in flight, so scroll-driven callers cannot interleave
// duplicate page fetches.
func (c *CollectionImpl) LoadMore(ctx context.Context) error {
	token, err := c.requireToken(ctx)
	if err != nil {
		return err
	}

	c.mu.Lock()
	if c.appending || c.nextKey == nil {
		c.mu.Unlock()
		return nil
	}
	key := *c.nextKey
	epoch := c.epoch
	c.appending = true
	c.loading = true
	c.mu.Unlock()
	c.notify()

	src := paging.NewSource(c.API, token, c.Logger)
	page, err := src.Load(ctx, &key, c.PageSize)

	c.mu.Lock()
	c.appending = false
	if epoch != c.epoch {
		c.mu.Unlock()
		return nil
	}
	c.loading = false
	if err != nil {
		// Keep previously loaded pages intact; the same key stays current so
		// the caller may retry.
		c.errMsg = apperrors.GetMessage(err)
		c.mu.Unlock()
		c.notify()
		return err
	}

	c.appendLocked(page.Data)
	c.nextKey = page.NextKey
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()
	return nil
}

// FetchDetail loads a single story into the detail slot, independent of the
// paged collection.
func (c *CollectionImpl) FetchDetail(ctx context.Context, id string) (*domain.Story, error) {
	token, err := c.requireToken(ctx)
	if err != nil {
		return nil, err
	}

	c.setLoading(true)
	story, err := c.API.StoryByID(ctx, token, id)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.errMsg = apperrors.GetMessage(err)
		c.mu.Unlock()
		c.notify()
		return nil, err
	}
	c.detail = story
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()
	return story, nil
}

// FetchLocated loads the geotagged stories of the feed.
func (c *CollectionImpl) FetchLocated(ctx context.Context) ([]domain.Story, error) {
	token, err := c.requireToken(ctx)
	if err != nil {
		return nil, err
	}

	c.setLoading(true)
	stories, err := c.API.StoriesWithLocation(ctx, token)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.errMsg = apperrors.GetMessage(err)
		c.mu.Unlock()
		c.notify()
		return nil, err
	}
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()
	return stories, nil
}

// Upload publishes a story. Client-side validation rejects the job before
// any token read or network call. The collection is left untouched; callers
// trigger Refresh themselves after a success.
func (c *CollectionImpl) Upload(ctx context.Context, job domain.UploadJob) error {
	if job.Description == "" {
		return c.fail(apperrors.Validation("description must not be empty"))
	}
	if len(job.Image) == 0 {
		return c.fail(apperrors.Validation("a photo is required"))
	}

	token, err := c.requireToken(ctx)
	if err != nil {
		return err
	}

	c.setLoading(true)
	err = c.API.Upload(ctx, token, job)

	c.mu.Lock()
	c.loading = false
	if err != nil {
		c.errMsg = apperrors.GetMessage(err)
		c.success = false
		c.mu.Unlock()
		c.notify()
		return err
	}
	c.success = true
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()
	return nil
}

func (c *CollectionImpl) Snapshot() collection.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

func (c *CollectionImpl) Watch(ctx context.Context) <-chan collection.Snapshot {
	ch := make(chan collection.Snapshot, 8)

	c.mu.Lock()
	c.watchers[ch] = struct{}{}
	snap := c.snapshotLocked()
	c.mu.Unlock()

	ch <- snap

	go func() {
		<-ctx.Done()
		c.mu.Lock()
		delete(c.watchers, ch)
		c.mu.Unlock()
		close(ch)
	}()

	return ch
}

// Invalidate drops the cached collection. Bumping the epoch makes in-flight
// loads of the previous session discard their responses.
func (c *CollectionImpl) Invalidate() {
	c.mu.Lock()
	c.epoch++
	c.stories = nil
	c.seen = make(map[string]struct{})
	c.nextKey = nil
	c.detail = nil
	c.loading = false
	c.success = false
	c.errMsg = ""
	c.mu.Unlock()
	c.notify()
	c.Logger.Info("Collection invalidated")
}

func (c *CollectionImpl) appendLocked(stories []domain.Story) {
	for _, story := range stories {
		if _, dup := c.seen[story.ID]; dup {
			c.Logger.Warn("Dropping duplicate story", "id", story.ID)
			continue
		}
		c.seen[story.ID] = struct{}{}
		c.stories = append(c.stories, story)
	}
}

func (c *CollectionImpl) snapshotLocked() collection.Snapshot {
	stories := make([]domain.Story, len(c.stories))
	copy(stories, c.stories)
	return collection.Snapshot{
		Stories:      stories,
		Detail:       c.detail,
		Loading:      c.loading,
		HasMore:      c.nextKey != nil,
		Success:      c.success,
		ErrorMessage: c.errMsg,
	}
}

func (c *CollectionImpl) requireToken(ctx context.Context) (string, error) {
	token, _ := c.Tokens.Token(ctx)
	if token == "" {
		return "", c.fail(apperrors.Unauthorized("session expired, please log in again"))
	}
	return token, nil
}

func (c *CollectionImpl) fail(err error) error {
	c.mu.Lock()
	c.errMsg = apperrors.GetMessage(err)
	c.mu.Unlock()
	c.notify()
	return err
}

func (c *CollectionImpl) setLoading(v bool) {
	c.mu.Lock()
	c.loading = v
	c.mu.Unlock()
	c.notify()
}

func (c *CollectionImpl) notify() {
	c.mu.Lock()
	snap := c.snapshotLocked()
	for ch := range c.watchers {
		select {
		case ch <- snap:
		default:
		}
	}
	c.mu.Unlock()
}

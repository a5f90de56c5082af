// Package paging implements cursor-based loading of the story feed. Keys are
// 1-based page positions; an absent next key marks the end of the data.
package paging

import (
	"context"

	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
	"github.com/orgball2608/story-sync-telegram-bot/internal/storyapi"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
)

// Page is one loaded page of the feed together with its neighbour keys.
type Page struct {
	Data    []domain.Story
	PrevKey *int
	NextKey *int
}

// End reports whether the page terminates the feed.
func (p *Page) End() bool {
	return p.NextKey == nil
}

// Source loads pages for a single session token. It keeps no state, so a
// failed load can be retried with the same key without corrupting anything.
type Source struct {
	api    storyapi.Client
	token  string
	logger logger.Logger
}

func NewSource(api storyapi.Client, token string, log logger.Logger) *Source {
	return &Source{
		api:    api,
		token:  token,
		logger: log.WithComponent("PageSource"),
	}
}

// Load fetches the page at key. A nil key means the first page. An empty
// result is still a valid page; its absent NextKey signals end of data.
func (s *Source) Load(ctx context.Context, key *int, size int) (*Page, error) {
	position := 1
	if key != nil {
		position = *key
	}

	stories, err := s.api.Stories(ctx, s.token, position, size)
	if err != nil {
		s.logger.Warn("Page load failed", "position", position, "error", err)
		return nil, err
	}

	var prevKey, nextKey *int
	if position > 1 {
		prev := position - 1
		prevKey = &prev
	}
	if len(stories) > 0 {
		next := position + 1
		nextKey = &next
	}

	s.logger.Debug("Page loaded", "position", position, "count", len(stories), "end", nextKey == nil)
	return &Page{Data: stories, PrevKey: prevKey, NextKey: nextKey}, nil
}

// State is the snapshot of pages already delivered, used to recompute the
// key to reload from when re-anchoring.
type State struct {
	Pages []*Page
}

// RefreshKey returns the position to reload from for the given anchor item
// index. It prefers prevKey+1 of the page containing the anchor, falls back
// to nextKey-1, and returns nil (reload from page 1) when both are absent.
func (st State) RefreshKey(anchor *int) *int {
	if anchor == nil {
		return nil
	}
	page := st.closestPageToPosition(*anchor)
	if page == nil {
		return nil
	}
	if page.PrevKey != nil {
		key := *page.PrevKey + 1
		return &key
	}
	if page.NextKey != nil {
		key := *page.NextKey - 1
		return &key
	}
	return nil
}

// closestPageToPosition finds the page whose item range contains the anchor,
// clamping to the last page when the anchor lies beyond the loaded items.
func (st State) closestPageToPosition(anchor int) *Page {
	if len(st.Pages) == 0 {
		return nil
	}
	if anchor < 0 {
		return st.Pages[0]
	}

	offset := 0
	for _, page := range st.Pages {
		if anchor < offset+len(page.Data) {
			return page
		}
		offset += len(page.Data)
	}
	return st.Pages[len(st.Pages)-1]
}

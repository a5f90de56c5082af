package syncerimpl

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
	"github.com/orgball2608/story-sync-telegram-bot/internal/repositories/archive"
	"github.com/panjf2000/ants/v2"
)

// SyncOnce walks the feed page by page through the collection controller,
// archives stories it has not seen before and fans them out to subscribers.
func (s *SyncerImpl) SyncOnce(ctx context.Context) error {
	if err := s.Stories.Refresh(ctx); err != nil {
		return fmt.Errorf("failed to refresh story feed: %w", err)
	}

	maxPages := s.Config.Sync.MaxPagesPerRun
	if maxPages <= 0 {
		maxPages = 10
	}

	for page := 1; page < maxPages && s.Stories.Snapshot().HasMore; page++ {
		if err := s.Stories.LoadMore(ctx); err != nil {
			// Previously loaded pages stay intact; mirror what we have.
			s.Logger.Warn("Stopping page walk after load error", "page", page+1, "error", err)
			break
		}
	}

	snap := s.Stories.Snapshot()
	s.Logger.Info("Feed loaded", "count", len(snap.Stories), "has_more", snap.HasMore)

	newStories := s.pickNew(ctx, snap.Stories)
	if len(newStories) == 0 {
		s.Logger.Info("No new stories in this run")
		return nil
	}

	s.Logger.Info("Found new stories", "count", len(newStories))

	chatIDs, err := s.SubscriptionRepo.GetAllChatIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to get subscribed chats: %w", err)
	}

	for _, story := range newStories {
		archived := domain.ArchivedStory{
			StoryID:   story.ID,
			Author:    story.Name,
			PhotoURL:  story.PhotoURL,
			CreatedAt: time.Now(),
		}
		if err := s.ArchiveRepo.Create(ctx, archived); err != nil {
			if errors.Is(err, archive.ErrCannotCreate) {
				s.Logger.Warn("Story already archived by a concurrent run, skipping send", "story_id", story.ID)
				continue
			}
			s.Logger.Error("Failed to archive story", "story_id", story.ID, "error", err)
			continue
		}

		s.Telegram.SendPhotoToChannelByURL(story.PhotoURL, caption(story))

		if len(chatIDs) > 0 {
			s.fanOut(ctx, story, chatIDs)
		}

		time.Sleep(time.Duration(500+rand.Intn(1000)) * time.Millisecond)
	}

	return nil
}

// pickNew filters out stories already present in the archive.
func (s *SyncerImpl) pickNew(ctx context.Context, stories []domain.Story) []domain.Story {
	var fresh []domain.Story
	for _, story := range stories {
		if story.ID == "" {
			s.Logger.Warn("Skipping story with empty id")
			continue
		}
		_, err := s.ArchiveRepo.GetByStoryID(ctx, story.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, archive.ErrNotFound) {
			s.Logger.Error("Failed to check archive", "story_id", story.ID, "error", err)
			continue
		}
		fresh = append(fresh, story)
	}
	return fresh
}

// fanOut delivers one story to every subscribed chat on a bounded pool.
func (s *SyncerImpl) fanOut(ctx context.Context, story domain.Story, chatIDs []int64) {
	pool, err := ants.NewPool(5, ants.WithPreAlloc(true))
	if err != nil {
		s.Logger.Error("Failed to create delivery pool, delivering sequentially", "error", err)
		s.deliverSequential(ctx, story, chatIDs)
		return
	}
	defer pool.Release()

	var wg sync.WaitGroup

	for _, chatID := range chatIDs {
		wg.Add(1)
		chat := chatID

		err := pool.Submit(func() {
			defer wg.Done()
			select {
			case <-ctx.Done():
				s.Logger.Info("Skipping delivery due to context cancellation", "chat_id", chat)
				return
			default:
				if err := s.Telegram.SendPhotoByURL(chat, story.PhotoURL, caption(story)); err != nil {
					s.Logger.Error("Failed to deliver story", "chat_id", chat, "story_id", story.ID, "error", err)
				}
			}
		})
		if err != nil {
			wg.Done()
			s.Logger.Error("Failed to submit delivery to pool", "chat_id", chat, "error", err)
		}
	}

	wg.Wait()
}

// deliverSequential is the fallback path when no pool is available.
func (s *SyncerImpl) deliverSequential(ctx context.Context, story domain.Story, chatIDs []int64) {
	for _, chatID := range chatIDs {
		if ctx.Err() != nil {
			s.Logger.Info("Skipping delivery due to context cancellation", "chat_id", chatID)
			return
		}
		if err := s.Telegram.SendPhotoByURL(chatID, story.PhotoURL, caption(story)); err != nil {
			s.Logger.Error("Failed to deliver story", "chat_id", chatID, "story_id", story.ID, "error", err)
		}
	}
}

func caption(story domain.Story) string {
	text := story.Name
	if story.Description != "" {
		text = fmt.Sprintf("%s\n%s", story.Name, story.Description)
	}
	if story.HasLocation() {
		text = fmt.Sprintf("%s\n📍 %.5f, %.5f", text, *story.Lat, *story.Lon)
	}
	// Telegram caps captions at 1024 characters; cut on a rune boundary so a
	// multi-byte character is never split.
	const maxCaption = 1024
	if runes := []rune(text); len(runes) > maxCaption {
		text = string(runes[:maxCaption-3]) + "..."
	}
	return text
}

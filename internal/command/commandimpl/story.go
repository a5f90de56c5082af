package commandimpl

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
	apperrors "github.com/orgball2608/story-sync-telegram-bot/pkg/errors"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/retry"
)

const defaultLatestCount = 5

func (c *CommandImpl) handleLatestCommand(ctx context.Context, chatID int64, args string) error {
	count := defaultLatestCount
	if trimmed := strings.TrimSpace(args); trimmed != "" {
		n, err := strconv.Atoi(trimmed)
		if err != nil || n < 1 {
			_, err := c.Telegram.SendMessage(chatID, "Usage: /latest [n] where n is a positive number.")
			return err
		}
		count = n
	}

	initialMessage := "Fetching the latest stories... ⏳"
	sentMsgID, err := c.Telegram.SendMessage(chatID, initialMessage)
	if err != nil {
		return fmt.Errorf("failed to send initial message: %w", err)
	}

	op := func() error {
		return c.Stories.Refresh(ctx)
	}
	if err := retry.Do(ctx, c.Logger, "RefreshStories", op, retry.DefaultConfig()); err != nil {
		c.Telegram.EditMessageText(chatID, sentMsgID, "❌ Error fetching stories: "+apperrors.GetMessage(err))
		return err
	}

	snap := c.Stories.Snapshot()
	if len(snap.Stories) == 0 {
		c.Telegram.EditMessageText(chatID, sentMsgID, "The feed has no stories right now.")
		return nil
	}

	if count > len(snap.Stories) {
		count = len(snap.Stories)
	}
	c.Telegram.EditMessageText(chatID, sentMsgID, fmt.Sprintf("✅ Found %d stories. Sending the latest %d...", len(snap.Stories), count))

	for _, story := range snap.Stories[:count] {
		if story.PhotoURL == "" {
			continue
		}
		if err := c.Telegram.SendPhotoByURL(chatID, story.PhotoURL, storyCaption(story)); err != nil {
			c.Logger.Error("Failed to send story", "story_id", story.ID, "error", err)
		}
	}

	return nil
}

func (c *CommandImpl) handleStoryCommand(ctx context.Context, chatID int64, args string) error {
	id := strings.TrimSpace(args)
	if id == "" {
		_, err := c.Telegram.SendMessage(chatID, "Please provide a story id: /story <id>")
		return err
	}

	story, err := c.Stories.FetchDetail(ctx, id)
	if err != nil {
		if apperrors.IsNotFound(err) {
			_, err := c.Telegram.SendMessage(chatID, fmt.Sprintf("No story with id %s.", id))
			return err
		}
		c.Telegram.SendMessage(chatID, "❌ Error fetching the story: "+apperrors.GetMessage(err))
		return err
	}

	if err := c.Telegram.SendPhotoByURL(chatID, story.PhotoURL, storyCaption(*story)); err != nil {
		return fmt.Errorf("failed to send story %s: %w", story.ID, err)
	}
	return nil
}

func (c *CommandImpl) handleLocatedCommand(ctx context.Context, chatID int64) error {
	sentMsgID, err := c.Telegram.SendMessage(chatID, "Fetching geotagged stories... ⏳")
	if err != nil {
		return fmt.Errorf("failed to send initial message: %w", err)
	}

	stories, err := c.Stories.FetchLocated(ctx)
	if err != nil {
		c.Telegram.EditMessageText(chatID, sentMsgID, "❌ Error fetching stories: "+apperrors.GetMessage(err))
		return err
	}
	if len(stories) == 0 {
		c.Telegram.EditMessageText(chatID, sentMsgID, "The feed has no geotagged stories right now.")
		return nil
	}

	count := defaultLatestCount
	if count > len(stories) {
		count = len(stories)
	}
	c.Telegram.EditMessageText(chatID, sentMsgID, fmt.Sprintf("✅ Found %d geotagged stories. Sending %d...", len(stories), count))

	for _, story := range stories[:count] {
		if story.PhotoURL == "" {
			continue
		}
		if err := c.Telegram.SendPhotoByURL(chatID, story.PhotoURL, storyCaption(story)); err != nil {
			c.Logger.Error("Failed to send story", "story_id", story.ID, "error", err)
		}
	}

	return nil
}

func storyCaption(story domain.Story) string {
	caption := story.Name
	if story.Description != "" {
		caption = fmt.Sprintf("%s\n%s", story.Name, story.Description)
	}
	if story.HasLocation() {
		caption = fmt.Sprintf("%s\n📍 %.5f, %.5f", caption, *story.Lat, *story.Lon)
	}
	return caption
}

package commandimpl

import (
	"context"
	"errors"

	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
	"github.com/orgball2608/story-sync-telegram-bot/internal/repositories/subscription"
)

func (c *CommandImpl) handleSubscribe(ctx context.Context, chatID int64) {
	sub := domain.Subscription{
		ChatID: chatID,
	}

	err := c.SubscriptionRepo.Create(ctx, sub)
	if err != nil {
		if errors.Is(err, subscription.ErrAlreadyExists) {
			c.Telegram.SendMessage(chatID, "This chat is already subscribed to the story feed.")
		} else {
			c.Logger.Error("Failed to create subscription", "error", err)
			c.Telegram.SendMessage(chatID, "Something went wrong. Please try again later.")
		}
		return
	}

	c.Telegram.SendMessage(chatID, "✅ Subscribed! New stories from the feed will be delivered here.")
}

func (c *CommandImpl) handleUnsubscribe(ctx context.Context, chatID int64) {
	err := c.SubscriptionRepo.Delete(ctx, chatID)
	if err != nil {
		if errors.Is(err, subscription.ErrNotFound) {
			c.Telegram.SendMessage(chatID, "This chat is not subscribed.")
		} else {
			c.Logger.Error("Failed to delete subscription", "error", err)
			c.Telegram.SendMessage(chatID, "Something went wrong. Please try again later.")
		}
		return
	}

	c.Telegram.SendMessage(chatID, "Unsubscribed. You will no longer receive stories here.")
}

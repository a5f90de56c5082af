package commandimpl

import (
	"context"
	"errors"
	"runtime/debug"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/story-sync-telegram-bot/internal/collection"
	"github.com/orgball2608/story-sync-telegram-bot/internal/command"
	"github.com/orgball2608/story-sync-telegram-bot/internal/ratelimit"
	"github.com/orgball2608/story-sync-telegram-bot/internal/repositories/subscription"
	"github.com/orgball2608/story-sync-telegram-bot/internal/telegram"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/config"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
	"go.uber.org/fx"
)

const helpMessage = `👋 *Welcome to the Story Sync Bot!*

Here are the available commands:

*SUBSCRIPTIONS:*
/subscribe - Receive new stories from the feed in this chat.
/unsubscribe - Stop receiving stories.

*ON DEMAND:*
/latest [n] - Fetch the n most recent stories (default 5).
/story <id> - Fetch one story by its id.
/located - Fetch stories that carry a geotag.

*PUBLISHING:*
Send me a photo with a caption and I will publish it to the story feed.

Type /help at any time to see this guide.`

type Opts struct {
	fx.In

	Stories          collection.Controller
	Telegram         telegram.Client
	SubscriptionRepo subscription.Repository
	Logger           logger.Logger
	Config           *config.Config
}

type CommandImpl struct {
	Stories          collection.Controller
	Telegram         telegram.Client
	SubscriptionRepo subscription.Repository
	Logger           logger.Logger
	Config           *config.Config
	Limiter          ratelimit.Limiter
}

func New(opts Opts) *CommandImpl {
	return &CommandImpl{
		Stories:          opts.Stories,
		Telegram:         opts.Telegram,
		SubscriptionRepo: opts.SubscriptionRepo,
		Logger:           opts.Logger.WithComponent("Command"),
		Config:           opts.Config,
		Limiter:          ratelimit.NewInMemoryLimiter(1, 5*time.Second, 3),
	}
}

var _ command.Client = (*CommandImpl)(nil)

func (c *CommandImpl) HandleCommand(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := c.Telegram.GetUpdatesChan(u)
	c.Logger.Info("Command handler started, listening for updates.")

	for {
		select {
		case <-ctx.Done():
			c.Logger.Info("Command handler shutting down.")
			c.Telegram.StopReceivingUpdates()
			return ctx.Err()
		case update, ok := <-updates:
			if !ok {
				c.Logger.Warn("Telegram updates channel closed unexpectedly. Restarting handler...")
				return errors.New("telegram updates channel closed")
			}

			go func(u tgbotapi.Update) {
				defer func() {
					if r := recover(); r != nil {
						c.Logger.Error("Panic recovered while processing an update", "panic", r, "stack", string(debug.Stack()))
					}
				}()

				if u.Message == nil {
					return
				}

				chatID := u.Message.Chat.ID
				if !c.Limiter.Allow(chatID) {
					c.Logger.Warn("Rate limited chat", "chat_id", chatID)
					return
				}

				if len(u.Message.Photo) > 0 {
					c.handlePhotoUpload(ctx, u)
					return
				}

				if u.Message.IsCommand() {
					if err := c.processCommand(ctx, u); err != nil {
						c.Logger.Error("Error processing command",
							"command", u.Message.Command(),
							"error", err)
					}
				}
			}(update)
		}
	}
}

func (c *CommandImpl) processCommand(ctx context.Context, update tgbotapi.Update) error {
	command := update.Message.Command()
	args := update.Message.CommandArguments()
	chatID := update.Message.Chat.ID

	switch command {
	case "start", "help":
		_, err := c.Telegram.SendMessage(chatID, helpMessage)
		return err
	case "subscribe":
		c.handleSubscribe(ctx, chatID)
		return nil
	case "unsubscribe":
		c.handleUnsubscribe(ctx, chatID)
		return nil
	case "latest":
		return c.handleLatestCommand(ctx, chatID, args)
	case "story":
		return c.handleStoryCommand(ctx, chatID, args)
	case "located":
		return c.handleLocatedCommand(ctx, chatID)
	default:
		_, err := c.Telegram.SendMessage(chatID, "Unknown command. Type /help to see the list of available commands.")
		return err
	}
}

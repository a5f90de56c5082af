package commandimpl

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/story-sync-telegram-bot/internal/domain"
	apperrors "github.com/orgball2608/story-sync-telegram-bot/pkg/errors"
)

// handlePhotoUpload publishes a photo message to the story feed. The caption
// becomes the story description; a location attached to the message becomes
// the story geotag.
func (c *CommandImpl) handlePhotoUpload(ctx context.Context, update tgbotapi.Update) {
	chatID := update.Message.Chat.ID

	caption := strings.TrimSpace(update.Message.Caption)
	if caption == "" {
		c.Telegram.SendMessage(chatID, "Please add a caption to the photo; it becomes the story description.")
		return
	}

	sentMsgID, err := c.Telegram.SendMessage(chatID, "Publishing your story... ⏳")
	if err != nil {
		c.Logger.Error("Failed to send initial message", "error", err)
		return
	}

	// Telegram orders photo sizes ascending; take the largest.
	photos := update.Message.Photo
	fileID := photos[len(photos)-1].FileID

	fileURL, err := c.Telegram.FileURL(fileID)
	if err != nil {
		c.Logger.Error("Failed to resolve photo url", "error", err)
		c.Telegram.EditMessageText(chatID, sentMsgID, "❌ Could not read the photo from Telegram.")
		return
	}

	image, err := c.Telegram.DownloadMedia(fileURL)
	if err != nil {
		c.Logger.Error("Failed to download photo", "error", err)
		c.Telegram.EditMessageText(chatID, sentMsgID, "❌ Could not read the photo from Telegram.")
		return
	}

	job := domain.UploadJob{
		Description: caption,
		Image:       image,
		Filename:    fmt.Sprintf("telegram-%s.jpg", fileID),
	}
	if loc := update.Message.Location; loc != nil {
		lat, lon := loc.Latitude, loc.Longitude
		job.Lat = &lat
		job.Lon = &lon
	}

	if err := c.Stories.Upload(ctx, job); err != nil {
		c.Logger.Error("Upload failed", "chat_id", chatID, "error", err)
		c.Telegram.EditMessageText(chatID, sentMsgID, "❌ Upload failed: "+apperrors.GetMessage(err))
		return
	}

	// A successful upload does not refresh the collection by itself.
	if err := c.Stories.Refresh(ctx); err != nil {
		c.Logger.Warn("Refresh after upload failed", "error", err)
	}

	c.Telegram.EditMessageText(chatID, sentMsgID, "✅ Story published!")
}

package telegramimpl

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/orgball2608/story-sync-telegram-bot/pkg/logger"
)

// SendMessage sends a message to a specific chat ID
func (tg *TelegramImpl) SendMessage(chatID int64, text string) (int, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	sentMsg, err := tg.TgBot.Send(msg)
	if err != nil {
		tg.Logger.Error("Error sending message",
			"chatID", chatID,
			"error", err)
		return 0, fmt.Errorf("failed to send message: %w", err)
	}

	return sentMsg.MessageID, nil
}

// EditMessageText replaces the text of an already sent message.
func (tg *TelegramImpl) EditMessageText(chatID int64, messageID int, newText string) error {
	edit := tgbotapi.NewEditMessageText(chatID, messageID, newText)
	if _, err := tg.TgBot.Send(edit); err != nil {
		tg.Logger.Error("Error editing message",
			"chatID", chatID,
			"messageID", messageID,
			"error", err)
		return fmt.Errorf("failed to edit message: %w", err)
	}
	return nil
}

// SendPhotoByURL sends a photo to a chat, letting Telegram fetch the URL.
func (tg *TelegramImpl) SendPhotoByURL(chatID int64, url, caption string) error {
	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(url))
	photo.Caption = caption

	if _, err := tg.TgBot.Send(photo); err != nil {
		tg.Logger.Error("Error sending photo",
			"chatID", chatID,
			"url", url,
			"error", err)
		return fmt.Errorf("failed to send photo: %w", err)
	}
	return nil
}

// SendMessageToUser sends a text message to the configured admin user
func (tg *TelegramImpl) SendMessageToUser(message string) {
	msg := tgbotapi.NewMessage(tg.Config.Telegram.User, message)
	_, err := tg.TgBot.Send(msg)
	if err != nil {
		tg.Logger.Error("Error sending message to user",
			"userID", tg.Config.Telegram.User,
			"error", err)
		return
	}
}

// SendMessageToChannel sends a text message to the configured channel
func (tg *TelegramImpl) SendMessageToChannel(msg string) {
	channelName := "@" + tg.Config.Telegram.Channel
	newMsg := tgbotapi.NewMessageToChannel(channelName, msg)

	_, err := tg.TgBot.Send(newMsg)
	if err != nil {
		tg.Logger.Error("Error sending message to channel",
			"channel", channelName,
			"error", err)
		return
	}
}

// SendPhotoToChannelByURL sends a photo to the configured channel.
func (tg *TelegramImpl) SendPhotoToChannelByURL(url, caption string) {
	channelName := "@" + tg.Config.Telegram.Channel

	photo := tgbotapi.NewPhotoToChannel(channelName, tgbotapi.FileURL(url))
	photo.Caption = caption

	if _, err := tg.TgBot.Send(photo); err != nil {
		tg.Logger.Error("Error sending photo to channel",
			"channel", channelName,
			"url", url,
			"error", err)
	}
}

// DownloadMedia fetches a media file into memory.
func (tg *TelegramImpl) DownloadMedia(url string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	client := &http.Client{}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download media: %w", err)
	}
	defer safeClose(resp.Body, tg.Logger)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("media download returned status %d", resp.StatusCode)
	}

	media, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read media data: %w", err)
	}
	if len(media) == 0 {
		return nil, fmt.Errorf("received empty media data")
	}

	return media, nil
}

// FileURL resolves a Telegram file ID to a direct download URL.
func (tg *TelegramImpl) FileURL(fileID string) (string, error) {
	url, err := tg.TgBot.GetFileDirectURL(fileID)
	if err != nil {
		return "", fmt.Errorf("failed to resolve file url: %w", err)
	}
	return url, nil
}

// safeClose safely closes an io.ReadCloser and logs any errors
func safeClose(closer io.ReadCloser, logger logger.Logger) {
	if err := closer.Close(); err != nil {
		logger.Error("Error closing response body", "error", err)
	}
}

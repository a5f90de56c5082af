package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Client interface {
	GetUpdatesChan(u tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()

	SendMessage(chatID int64, text string) (int, error)
	EditMessageText(chatID int64, messageID int, newText string) error
	SendPhotoByURL(chatID int64, url, caption string) error

	SendMessageToUser(msg string)
	SendMessageToChannel(msg string)
	SendPhotoToChannelByURL(url, caption string)

	DownloadMedia(url string) ([]byte, error)
	FileURL(fileID string) (string, error)
}

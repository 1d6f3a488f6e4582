package services

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramService sends task notifications through a Telegram bot.
type TelegramService struct {
	bot *tgbotapi.BotAPI
}

// NewTelegramService connects to the bot API; it fails when the token is rejected.
func NewTelegramService(botToken string) (*TelegramService, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramService{bot: bot}, nil
}

// NewTelegramServiceWithAPI wraps an already configured bot client.
func NewTelegramServiceWithAPI(bot *tgbotapi.BotAPI) *TelegramService {
	return &TelegramService{bot: bot}
}

func (t *TelegramService) SendMessage(chatID int64, text string) error {
	if t == nil || t.bot == nil || chatID == 0 {
		return nil
	}
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram sendMessage: %w", err)
	}
	return nil
}

package notify

import (
	"context"
	"fmt"
	"log"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

type Telegram struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

func NewTelegram(token string, adminChatID int64) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("init telegram bot: %w", err)
	}
	return &Telegram{bot: bot, chatID: adminChatID}, nil
}

func (t *Telegram) Notify(ctx context.Context, err error, details string) error {
	text := fmt.Sprintf("❗ Speech service error\n\nError: %v\n\nDetails: %s", err, details)

	msg := tgbotapi.NewMessage(t.chatID, text)
	if _, sendErr := t.bot.Send(msg); sendErr != nil {
		log.Printf("[notify] send fail: %v", sendErr)
		return sendErr
	}
	return nil
}

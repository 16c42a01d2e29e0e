package notifier

import (
	"fmt"
	"strconv"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramNotifier sends alerts to a chat via the Telegram Bot API.
type TelegramNotifier struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramNotifier creates a Telegram notifier.
func NewTelegramNotifier(botToken, chatID string) (*TelegramNotifier, error) {
	bot, err := tgbotapi.NewBotAPI(botToken)
	if err != nil {
		return nil, fmt.Errorf("create Telegram bot: %w", err)
	}
	chatIDInt, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid chat ID: %w", err)
	}
	return &TelegramNotifier{bot: bot, chatID: chatIDInt}, nil
}

func (t *TelegramNotifier) Name() string { return "telegram" }

// Send delivers one alert message to the configured chat.
func (t *TelegramNotifier) Send(ticker, body string) error {
	msg := tgbotapi.NewMessage(t.chatID, fmt.Sprintf("[Buy-The-Dip] %s\n\n%s", ticker, body))
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("send telegram message: %w", err)
	}
	return nil
}

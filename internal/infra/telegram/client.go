// internal/infra/telegram/client.go
package telegram

import (
	"net/http"
	"time"

	"gopkg.in/telebot.v3"
)

// TelebotAdapter implements the Client interface using the gopkg.in/telebot.v3 library.
type TelebotAdapter struct {
	bot *telebot.Bot
}

func NewTelebotAdapter(b *telebot.Bot) *TelebotAdapter {
	return &TelebotAdapter{bot: b}
}

// NewSendOnlyBot creates a bot that is only used for sendMessage, so no Poller
// is configured. telebot calls getMe here, which rejects a bad token at startup.
func NewSendOnlyBot(token string, timeout time.Duration) (*telebot.Bot, error) {
	return telebot.NewBot(telebot.Settings{
		Token:  token,
		Client: &http.Client{Timeout: timeout},
	})
}

// SendMessage sends a plain-text message to the given chat.
func (tba *TelebotAdapter) SendMessage(chatID int64, text string) error {
	_, err := tba.bot.Send(telebot.ChatID(chatID), text, &telebot.SendOptions{
		DisableWebPagePreview: true,
	})
	return err
}

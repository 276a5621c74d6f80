package app

import (
	"context"
	"fmt"

	"homework_status_bot/internal/domain/homework"
	domainTelegram "homework_status_bot/internal/domain/telegram"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// Notifier delivers a message to the single preconfigured destination.
type Notifier interface {
	Notify(ctx context.Context, message string) error
}

// ChatNotifier implements Notifier on top of a Telegram client.
type ChatNotifier struct {
	telegramClient domainTelegram.Client
	chatID         int64
	limiter        *rate.Limiter
	logger         *logrus.Entry
}

// NewChatNotifier returns a notifier for chatID. ratePerSec <= 0 disables
// throttling.
func NewChatNotifier(tc domainTelegram.Client, chatID int64, ratePerSec int, logger *logrus.Entry) *ChatNotifier {
	n := &ChatNotifier{
		telegramClient: tc,
		chatID:         chatID,
		logger:         logger.WithField("chat_id", chatID),
	}
	if ratePerSec > 0 {
		n.limiter = rate.NewLimiter(rate.Limit(ratePerSec), ratePerSec)
	}
	return n
}

// Notify sends message. Every failure is reported as homework.KindDelivery.
func (n *ChatNotifier) Notify(ctx context.Context, message string) error {
	if n.limiter != nil {
		if err := n.limiter.Wait(ctx); err != nil {
			return homework.WrapError(homework.KindDelivery, "notify", fmt.Errorf("send limiter: %w", err))
		}
	}

	if err := n.telegramClient.SendMessage(n.chatID, message); err != nil {
		n.logger.WithError(err).Error("Failed to send message")
		return homework.WrapError(homework.KindDelivery, "notify", err)
	}
	n.logger.WithField("length", len(message)).Info("Message sent")
	return nil
}

// Command probe sends the status of the most recent homework to the chat once
// and exits. Useful for checking tokens and chat id before starting the bot.
package main

import (
	"context"
	"time"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/infra/config"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/practicum"
	"homework_status_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}
	log := logger.New(cfg)
	probeLogger := log.WithField("component", "probe")

	bot, err := telegram.NewSendOnlyBot(cfg.TelegramToken, cfg.HTTPTimeout)
	if err != nil {
		probeLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	notifier := app.NewChatNotifier(telegram.NewTelebotAdapter(bot), cfg.TelegramChatID, 0, log.WithField("component", "notifier"))
	client := practicum.New(cfg.PracticumEndpoint, cfg.PracticumToken, cfg.HTTPTimeout)

	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	watcher := app.NewStatusWatcher(client, notifier, nil, logrus.NewEntry(log))
	if err := watcher.ReportLatest(ctx); err != nil {
		probeLogger.WithError(err).Fatal("Probe failed")
	}
}

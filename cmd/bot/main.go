package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"homework_status_bot/internal/app"
	"homework_status_bot/internal/infra/config"
	"homework_status_bot/internal/infra/logger"
	"homework_status_bot/internal/infra/practicum"
	"homework_status_bot/internal/infra/scheduler"
	"homework_status_bot/internal/infra/telegram"

	"github.com/sirupsen/logrus"
)

func main() {
	fmt.Println("Homework Status Bot starting...")

	cfg, err := config.Load()
	if err != nil {
		logrus.Fatalf("Could not load application configuration: %v", err)
	}

	log := logger.New(cfg)
	mainLogger := log.WithField("component", "main")
	mainLogger.WithFields(logrus.Fields{
		"environment":   cfg.Environment,
		"chat_id":       cfg.TelegramChatID,
		"poll_schedule": cfg.PollSchedule,
	}).Info("Configuration loaded")

	// Initialize Telegram Bot
	bot, err := telegram.NewSendOnlyBot(cfg.TelegramToken, cfg.HTTPTimeout)
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create Telegram bot")
	}
	notifier := app.NewChatNotifier(telegram.NewTelebotAdapter(bot), cfg.TelegramChatID, cfg.NotifyRatePerSec, log.WithField("component", "notifier"))

	practicumClient := practicum.New(cfg.PracticumEndpoint, cfg.PracticumToken, cfg.HTTPTimeout)

	schedule, err := scheduler.NewPollSchedule(cfg.PollSchedule, log.WithField("component", "scheduler"))
	if err != nil {
		mainLogger.WithError(err).Fatal("Could not create poll schedule")
	}

	watcher := app.NewStatusWatcher(practicumClient, notifier, schedule, logrus.NewEntry(log))

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mainLogger.Info("Application setup complete. Polling is starting...")
	if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		mainLogger.WithError(err).Error("Status watcher exited")
		os.Exit(1)
	}
	mainLogger.Info("Application shut down gracefully.")
}

package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/travelco/travel-planner/internal/config"
	"github.com/travelco/travel-planner/internal/logger"
	"github.com/travelco/travel-planner/internal/queue"
)

func main() {
	_ = godotenv.Load()
	logger.InitLoggers(logger.Options{
		Env:   os.Getenv("APP_ENV"),
		Dir:   os.Getenv("LOG_DIR"),
		Level: os.Getenv("LOG_LEVEL"),
	})

	var notifier queue.Notifier
	if smtp := config.LoadSMTPConfig(); smtp.Enabled() {
		notifier = queue.NewMailNotifier(smtp)
	}
	bookingLogDir := os.Getenv("BOOKING_LOG_DIR")
	consumer := queue.NewConsumer(config.RabbitURL(), bookingLogDir, notifier)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.InfoLogger.WithField("mail", notifier != nil).Info("booking worker starting")
	if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.ErrorLogger.WithError(err).Fatal("booking worker stopped")
	}
	logger.InfoLogger.Info("booking worker stopped")
}

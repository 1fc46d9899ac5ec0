package main // Entry point for the mail delivery worker

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/social-blog/internal/config"
	"github.com/iliyamo/social-blog/internal/logger"
	"github.com/iliyamo/social-blog/internal/notify"
	"github.com/iliyamo/social-blog/internal/queue"
)

// The mailer drains the mail queue filled by the API server and hands
// each message to the SMTP relay.  It only needs the logging and mail
// settings, so it does not go through config.Load and its database
// requirements.
func main() {
	_ = godotenv.Load()
	lg, err := logger.New(config.LoadLogConfig())
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer lg.Sync() //nolint:errcheck

	mail := config.LoadMailConfig()
	sender := notify.NewSMTPSender(mail, lg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	lg.Info("mailer started", zap.String("queue", mail.Queue), zap.String("smtp", mail.SMTPHost))
	if err := queue.Consume(ctx, mail.AMQPURL, mail.Queue, sender.Deliver, lg); err != nil && !errors.Is(err, context.Canceled) {
		lg.Fatal("consumer stopped", zap.Error(err))
	}
	lg.Info("mailer stopped")
}

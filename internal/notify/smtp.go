package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/gomail.v2"

	"github.com/iliyamo/social-blog/internal/config"
	"github.com/iliyamo/social-blog/internal/metrics"
	"github.com/iliyamo/social-blog/internal/queue"
)

// ErrMailDisabled is returned when SMTP is not configured.
var ErrMailDisabled = errors.New("smtp not configured")

// SMTPSender delivers rendered messages.  It is the queue.Handler of the
// mail worker process.
type SMTPSender struct {
	cfg    config.MailConfig
	dialer *gomail.Dialer
	log    *zap.Logger
}

func NewSMTPSender(cfg config.MailConfig, log *zap.Logger) *SMTPSender {
	return &SMTPSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		log:    log,
	}
}

// Build converts msg into a multipart gomail message.
func Build(msg queue.MailMessage) *gomail.Message {
	m := gomail.NewMessage()
	m.SetHeader("From", msg.From)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetHeader("Message-ID", fmt.Sprintf("<%s@%s>", msg.ID, "social-blog"))
	m.SetBody("text/plain", msg.Text)
	if msg.HTML != "" {
		m.AddAlternative("text/html", msg.HTML)
	}
	return m
}

// Deliver sends msg through SMTP.
func (s *SMTPSender) Deliver(ctx context.Context, msg queue.MailMessage) error {
	if s.cfg.SMTPHost == "" {
		metrics.MailDeliveredTotal.WithLabelValues("skipped").Inc()
		s.log.Warn("smtp config missing, skip delivery", zap.String("id", msg.ID))
		return ErrMailDisabled
	}
	if strings.TrimSpace(msg.To) == "" {
		metrics.MailDeliveredTotal.WithLabelValues("skipped").Inc()
		return fmt.Errorf("message %s: empty recipient", msg.ID)
	}
	if err := s.dialer.DialAndSend(Build(msg)); err != nil {
		metrics.MailDeliveredTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("send email: %w", err)
	}
	metrics.MailDeliveredTotal.WithLabelValues("ok").Inc()
	s.log.Info("email sent", zap.String("id", msg.ID), zap.String("template", msg.Template), zap.String("to", msg.To))
	return nil
}

// Package queue carries outbound mail from the API process to the mail
// worker over RabbitMQ.
package queue

import (
	"time"

	"github.com/segmentio/ksuid"
)

// MailMessage is a fully rendered email.  The API renders it so the worker
// only has to deliver, and the ID doubles as the AMQP message id.
type MailMessage struct {
	ID        string    `json:"id"`
	Template  string    `json:"template"`
	To        string    `json:"to"`
	From      string    `json:"from"`
	Subject   string    `json:"subject"`
	Text      string    `json:"text"`
	HTML      string    `json:"html"`
	CreatedAt time.Time `json:"created_at"`
}

// NewMailMessage stamps a fresh id and creation time.
func NewMailMessage(template, from, to, subject string) MailMessage {
	return MailMessage{
		ID:        ksuid.New().String(),
		Template:  template,
		From:      from,
		To:        to,
		Subject:   subject,
		CreatedAt: time.Now().UTC(),
	}
}

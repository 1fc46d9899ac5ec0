package notify

import (
	"go.uber.org/zap"

	"github.com/iliyamo/social-blog/internal/model"
	"github.com/iliyamo/social-blog/internal/queue"
)

// Dispatcher accepts rendered messages without blocking.
type Dispatcher interface {
	Dispatch(msg queue.MailMessage) bool
}

// Notifier renders account emails and hands them to a Dispatcher.  Every
// method is fire-and-forget: failures are logged, never returned.
type Notifier struct {
	composer *Composer
	out      Dispatcher
	log      *zap.Logger
}

func NewNotifier(composer *Composer, out Dispatcher, log *zap.Logger) *Notifier {
	return &Notifier{composer: composer, out: out, log: log}
}

func (n *Notifier) SendConfirmation(u *model.User, token string) {
	n.send(TemplateConfirm, u.Email, Data{Username: u.Username, Link: n.composer.Link("confirm/" + token)})
}

// SendChangeEmail goes to the new address so only its owner can confirm.
func (n *Notifier) SendChangeEmail(u *model.User, newEmail, token string) {
	n.send(TemplateChangeEmail, newEmail, Data{Username: u.Username, Link: n.composer.Link("confirm/" + token)})
}

func (n *Notifier) SendPasswordReset(u *model.User, token string) {
	n.send(TemplateReset, u.Email, Data{Username: u.Username, Link: n.composer.Link("reset/" + token)})
}

func (n *Notifier) send(name, to string, data Data) {
	msg, err := n.composer.Compose(name, to, data)
	if err != nil {
		n.log.Error("render mail failed", zap.String("template", name), zap.Error(err))
		return
	}
	if !n.out.Dispatch(msg) {
		n.log.Warn("mail not queued", zap.String("template", name), zap.String("id", msg.ID))
	}
}

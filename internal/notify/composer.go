// Package notify renders account emails and delivers them over SMTP.
package notify

import (
	"bytes"
	"embed"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"

	"github.com/iliyamo/social-blog/internal/config"
	"github.com/iliyamo/social-blog/internal/queue"
)

// Template names; each has a .txt and a .html file under templates/.
const (
	TemplateConfirm     = "confirm"
	TemplateChangeEmail = "change_email"
	TemplateReset       = "reset_password"
)

var subjects = map[string]string{
	TemplateConfirm:     "Confirm Your Account",
	TemplateChangeEmail: "Confirm your email address",
	TemplateReset:       "Reset Your Password",
}

//go:embed templates/*
var templateFS embed.FS

var (
	textTemplates = texttemplate.Must(texttemplate.ParseFS(templateFS, "templates/*.txt"))
	htmlTemplates = htmltemplate.Must(htmltemplate.ParseFS(templateFS, "templates/*.html"))
)

// Data is what every template may reference.
type Data struct {
	Username string
	Link     string
}

// Composer renders messages with the configured sender and subject prefix.
type Composer struct {
	sender   string
	prefix   string
	linkBase string
}

func NewComposer(cfg config.MailConfig) *Composer {
	return &Composer{sender: cfg.Sender, prefix: cfg.SubjectPrefix, linkBase: cfg.LinkBase}
}

// Link builds an absolute front-end URL from path.
func (c *Composer) Link(path string) string {
	return c.linkBase + "/" + strings.TrimLeft(path, "/")
}

// Compose renders template name for recipient to.
func (c *Composer) Compose(name, to string, data Data) (queue.MailMessage, error) {
	subject := subjects[name]
	if c.prefix != "" {
		subject = c.prefix + " " + subject
	}
	msg := queue.NewMailMessage(name, c.sender, to, subject)

	var text, html bytes.Buffer
	if err := textTemplates.ExecuteTemplate(&text, name+".txt", data); err != nil {
		return queue.MailMessage{}, err
	}
	if err := htmlTemplates.ExecuteTemplate(&html, name+".html", data); err != nil {
		return queue.MailMessage{}, err
	}
	msg.Text, msg.HTML = text.String(), html.String()
	return msg, nil
}

package mailer

import (
	"context"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

// Sender delivers a rendered message.
type Sender interface {
	Send(ctx context.Context, to, subject, text, html string) error
}

// Mailgun delivers through the Mailgun HTTP API.
type Mailgun struct {
	client *mg.MailgunImpl
	from   string
	tags   []string
}

func NewMailgun(domain, apiKey, sender string, tags ...string) *Mailgun {
	return &Mailgun{client: mg.NewMailgun(domain, apiKey), from: sender, tags: tags}
}

// Send uses html as the HTML part when non-empty; text is always sent as the plain part.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.from, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	for _, tag := range m.tags {
		if err := msg.AddTag(tag); err != nil {
			return err
		}
	}
	c, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	_, _, err := m.client.Send(c, msg)
	return err
}

var _ Sender = (*Mailgun)(nil)

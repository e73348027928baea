package notification

import (
	"context"
	"net/http"

	"github.com/juju/errors"
	"github.com/resend/resend-go/v2"

	"github.com/iliyamo/storefront/internal/config"
)

// Message is one outgoing email.
type Message struct {
	To      []string
	Subject string
	HTML    string
}

// Mailer sends email through Resend.
type Mailer struct {
	client *resend.Client
	from   string
}

// NewMailer returns a Mailer.  httpClient may be nil to use Resend's default
// client.
func NewMailer(cfg config.MailConfig, httpClient *http.Client) *Mailer {
	var c *resend.Client
	if httpClient != nil {
		c = resend.NewCustomClient(httpClient, cfg.ResendAPIKey)
	} else {
		c = resend.NewClient(cfg.ResendAPIKey)
	}
	return &Mailer{client: c, from: cfg.From}
}

// Send delivers msg and returns the provider's message id.
func (m *Mailer) Send(ctx context.Context, msg Message) (string, error) {
	if len(msg.To) == 0 {
		return "", errors.NotValidf("email without recipients")
	}
	resp, err := m.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    m.from,
		To:      msg.To,
		Subject: msg.Subject,
		Html:    msg.HTML,
	})
	if err != nil {
		return "", errors.Annotate(err, "send email")
	}
	return resp.Id, nil
}

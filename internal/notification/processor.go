package notification

import (
	"context"
	"encoding/json"

	"github.com/juju/errors"

	"github.com/iliyamo/storefront/internal/metrics"
	"github.com/iliyamo/storefront/internal/queue"
)

// Recipients resolves who receives audit emails.
type Recipients interface {
	AdminEmails(ctx context.Context) ([]string, error)
}

// Sender delivers one email.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

// Processor handles one audit event body: decode, render, resolve
// recipients, send.
type Processor struct {
	renderer   *Renderer
	recipients Recipients
	sender     Sender
	metrics    *metrics.Collector
}

func NewProcessor(r *Renderer, recipients Recipients, sender Sender, m *metrics.Collector) *Processor {
	return &Processor{renderer: r, recipients: recipients, sender: sender, metrics: m}
}

// Handle is a queue.HandlerFunc.  Any failing step returns an error.
func (p *Processor) Handle(ctx context.Context, body []byte) error {
	var ev queue.AuditEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return errors.NewNotValid(err, "decode audit event")
	}
	if ev.Action == "" || ev.Model == "" {
		return errors.NotValidf("audit event without action or model")
	}

	subject, html, err := p.renderer.Render(ev)
	if err != nil {
		return errors.Trace(err)
	}

	to, err := p.recipients.AdminEmails(ctx)
	if err != nil {
		return errors.Trace(err)
	}
	if len(to) == 0 {
		return errors.NotFoundf("admin recipients")
	}

	id, err := p.sender.Send(ctx, Message{To: to, Subject: subject, HTML: html})
	p.metrics.NotificationSent(err)
	if err != nil {
		return errors.Trace(err)
	}
	logger.Infof("sent %q to %d admin(s) (id %s)", subject, len(to), id)
	return nil
}

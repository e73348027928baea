package queue

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/juju/errors"
	"github.com/juju/loggo"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/metrics"
)

var logger = loggo.GetLogger("storefront.queue")

// Publisher sends audit events to the configured durable queue.  Each
// Publish opens its own connection, so a Publisher holds no broker state and
// is safe for concurrent use.
type Publisher struct {
	url     string
	queue   string
	metrics *metrics.Collector
}

func NewPublisher(cfg config.MQConfig, m *metrics.Collector) *Publisher {
	return &Publisher{url: cfg.AMQPURL(), queue: cfg.Queue, metrics: m}
}

// Publish serializes ev and publishes it as a persistent message to the
// default exchange, routed by queue name.  There is no confirm wait and no
// retry; the error is returned to the caller.
func (p *Publisher) Publish(ctx context.Context, ev AuditEvent) (err error) {
	defer func() { p.metrics.EventPublished(err) }()

	body, err := json.Marshal(ev)
	if err != nil {
		return errors.Annotate(err, "marshal audit event")
	}

	conn, err := amqp.Dial(p.url)
	if err != nil {
		logger.Errorf("rabbitmq: dial failed: %v", err)
		return errors.Annotate(err, "dial broker")
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		logger.Errorf("rabbitmq: channel open failed: %v", err)
		return errors.Annotate(err, "open channel")
	}
	defer func() { _ = ch.Close() }()

	if err := declare(ch, p.queue); err != nil {
		logger.Errorf("rabbitmq: queue declare failed: %v", err)
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent, // store on disk
		MessageId:    uuid.NewString(),
		Timestamp:    time.Now().UTC(),
		Type:         ev.Model + "." + ev.Action,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx,
		"",      // default exchange
		p.queue, // routing key = queue name
		false,   // mandatory
		false,   // immediate
		pub,
	); err != nil {
		logger.Errorf("rabbitmq: publish failed: %v", err)
		return errors.Annotate(err, "publish audit event")
	}
	logger.Debugf("published %s on %s %s", ev.Action, ev.Model, ev.RecordID)
	return nil
}

// declare makes sure the durable queue exists.  Publisher and consumer
// declare it with identical arguments.
func declare(ch *amqp.Channel, name string) error {
	_, err := ch.QueueDeclare(
		name,  // name
		true,  // durable
		false, // autoDelete
		false, // exclusive
		false, // noWait
		nil,   // args
	)
	return errors.Annotatef(err, "declare queue %q", name)
}

package queue

import (
	"context"
	"time"

	"github.com/juju/errors"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/storefront/internal/config"
	"github.com/iliyamo/storefront/internal/metrics"
)

// HandlerFunc processes one message body.  A returned error rejects the
// message when the consumer acks after handling.
type HandlerFunc func(ctx context.Context, body []byte) error

const (
	minBackoff = time.Second
	maxBackoff = 30 * time.Second
)

// Consumer reads audit events one at a time from the durable queue and
// hands each body to a HandlerFunc.
type Consumer struct {
	url     string
	queue   string
	ackMode string
	handle  HandlerFunc
	metrics *metrics.Collector
}

func NewConsumer(cfg config.MQConfig, ackMode string, h HandlerFunc, m *metrics.Collector) *Consumer {
	if ackMode == "" {
		ackMode = config.AckAfterSend
	}
	return &Consumer{url: cfg.AMQPURL(), queue: cfg.Queue, ackMode: ackMode, handle: h, metrics: m}
}

// Run connects to the broker and consumes until ctx is cancelled.  Dial
// failures and dropped connections are retried with a capped exponential
// backoff.  Run returns nil once ctx is done.
func (c *Consumer) Run(ctx context.Context) error {
	backoff := minBackoff
	for {
		if ctx.Err() != nil {
			return nil
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			logger.Warningf("consumer: failed to dial broker: %v; retrying in %s", err, backoff)
			if !sleep(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff)
			continue
		}
		backoff = minBackoff // reset after successful connect

		err = c.consumeLoop(ctx, conn)
		_ = conn.Close()
		if err == nil {
			return nil
		}
		logger.Warningf("consumer: consume loop ended: %v; reconnecting", err)
		if !sleep(ctx, 2*time.Second) {
			return nil
		}
	}
}

// consumeLoop returns nil when ctx is cancelled and an error when the
// broker side goes away.
func (c *Consumer) consumeLoop(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return errors.Annotate(err, "channel open")
	}
	defer func() { _ = ch.Close() }()

	// one unacknowledged message at a time
	if err := ch.Qos(1, 0, false); err != nil {
		return errors.Annotate(err, "set qos")
	}
	if err := declare(ch, c.queue); err != nil {
		return err
	}
	msgs, err := ch.Consume(c.queue, "", false, false, false, false, nil)
	if err != nil {
		return errors.Annotate(err, "queue consume")
	}
	logger.Infof("consuming from %q (ack mode %s)", c.queue, c.ackMode)

	closed := conn.NotifyClose(make(chan *amqp.Error, 1))
	for {
		select {
		case <-ctx.Done():
			return nil
		case amqpErr := <-closed:
			if amqpErr == nil {
				return errors.New("connection closed")
			}
			return amqpErr
		case d, ok := <-msgs:
			if !ok {
				return errors.New("deliveries channel closed")
			}
			// The in-flight message is finished even if ctx is cancelled
			// meanwhile.
			c.deliver(context.WithoutCancel(ctx), d)
		}
	}
}

// deliver runs the handler for d and settles it according to the ack mode.
func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	if c.ackMode == config.AckOnReceipt {
		if err := d.Ack(false); err != nil {
			logger.Errorf("consumer: ack failed: %v", err)
		}
	}

	err := c.handle(ctx, d.Body)
	c.metrics.EventConsumed(err)
	if err != nil {
		logger.Errorf("consumer: handle message %s failed: %v", d.MessageId, err)
	}
	if c.ackMode == config.AckOnReceipt {
		return
	}
	if err != nil {
		_ = d.Nack(false, false) // reject, do not requeue to avoid tight loops
		return
	}
	if err := d.Ack(false); err != nil {
		logger.Errorf("consumer: ack failed: %v", err)
	}
}

func nextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

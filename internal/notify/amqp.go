// AngelaMos | 2026
// amqp.go

package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/carterperez-dev/learnhub/internal/config"
)

type channel interface {
	QueueDeclare(
		name string,
		durable, autoDelete, exclusive, noWait bool,
		args amqp.Table,
	) (amqp.Queue, error)
	PublishWithContext(
		ctx context.Context,
		exchange, key string,
		mandatory, immediate bool,
		msg amqp.Publishing,
	) error
	IsClosed() bool
	Close() error
}

type dialFunc func(ctx context.Context, url string) (channel, io.Closer, error)

const defaultDialTimeout = 5 * time.Second

// dialAMQP connects within the deadline of ctx. The deadline covers the TCP
// connect and the AMQP handshake, which the library would otherwise bound
// only by its own 30 second default.
func dialAMQP(ctx context.Context, url string) (channel, io.Closer, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultDialTimeout)
	}

	conn, err := amqp.DialConfig(url, amqp.Config{
		Heartbeat: 10 * time.Second,
		Locale:    "en_US",
		Dial: func(network, addr string) (net.Conn, error) {
			d := net.Dialer{Deadline: deadline}
			c, err := d.DialContext(ctx, network, addr)
			if err != nil {
				return nil, err
			}
			if err := c.SetDeadline(deadline); err != nil {
				_ = c.Close() //nolint:errcheck // cleanup on deadline failure
				return nil, err
			}
			return c, nil
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close() //nolint:errcheck // cleanup on channel failure
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	return ch, conn, nil
}

// AMQPNotifier publishes persistent JSON messages to a durable queue on
// the default exchange. The connection is opened lazily and re-established
// after the broker drops it. Every Send, including waiting for another
// sender's reconnect, is bounded by the configured timeout.
type AMQPNotifier struct {
	url     string
	queue   string
	timeout time.Duration
	logger  *slog.Logger
	dial    dialFunc

	// sem guards ch and conn. It is a channel so waiters can give up when
	// their context ends.
	sem  chan struct{}
	ch   channel
	conn io.Closer
}

func NewAMQPNotifier(cfg config.NotifyConfig, logger *slog.Logger) *AMQPNotifier {
	return &AMQPNotifier{
		url:     cfg.AMQPURL,
		queue:   cfg.Queue,
		timeout: cfg.Timeout,
		logger:  logger,
		dial:    dialAMQP,
		sem:     make(chan struct{}, 1),
	}
}

func (n *AMQPNotifier) lock(ctx context.Context) error {
	select {
	case n.sem <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *AMQPNotifier) unlock() {
	<-n.sem
}

func (n *AMQPNotifier) Send(ctx context.Context, msg Message) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	if err := n.lock(ctx); err != nil {
		return fmt.Errorf("wait for broker connection: %w", err)
	}
	defer n.unlock()

	ch, err := n.channelLocked(ctx)
	if err != nil {
		return err
	}

	pub := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		Type:         string(msg.Kind),
		Body:         body,
	}

	if err := ch.PublishWithContext(ctx, "", n.queue, false, false, pub); err != nil {
		n.resetLocked()
		n.logger.Error("notification publish failed",
			"queue", n.queue,
			"kind", msg.Kind,
			"error", err,
		)
		return fmt.Errorf("publish notification: %w", err)
	}

	return nil
}

func (n *AMQPNotifier) channelLocked(ctx context.Context) (channel, error) {
	if n.ch != nil && !n.ch.IsClosed() {
		return n.ch, nil
	}
	n.resetLocked()

	ch, conn, err := n.dial(ctx, n.url)
	if err != nil {
		return nil, err
	}

	if _, err := ch.QueueDeclare(n.queue, true, false, false, false, nil); err != nil {
		_ = ch.Close()   //nolint:errcheck // cleanup on declare failure
		_ = conn.Close() //nolint:errcheck // cleanup on declare failure
		return nil, fmt.Errorf("declare queue %s: %w", n.queue, err)
	}

	n.ch = ch
	n.conn = conn
	return ch, nil
}

func (n *AMQPNotifier) resetLocked() {
	if n.ch != nil {
		_ = n.ch.Close() //nolint:errcheck // best-effort teardown
	}
	if n.conn != nil {
		_ = n.conn.Close() //nolint:errcheck // best-effort teardown
	}
	n.ch = nil
	n.conn = nil
}

func (n *AMQPNotifier) Close() error {
	n.sem <- struct{}{}
	defer n.unlock()
	n.resetLocked()
	return nil
}

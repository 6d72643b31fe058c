package notification

import (
	"context"
	"errors"
	"fmt"

	"stayhub/pkg/utils"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

type Consumer struct {
	config  utils.RabbitConfig
	handler *Handler
	log     *zap.Logger

	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewConsumer(config utils.RabbitConfig, handler *Handler, log *zap.Logger) *Consumer {
	return &Consumer{
		config:  config,
		handler: handler,
		log:     log.With(zap.String("component", "consumer")),
	}
}

// Connect declares the exchange, the work queue with its dead-letter
// exchange, and binds every notification routing key.
func (c *Consumer) Connect() error {
	conn, err := amqp.Dial(c.config.URL)
	if err != nil {
		return fmt.Errorf("rabbit dial failed: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("open channel failed: %w", err)
	}

	fail := func(err error) error {
		_ = ch.Close()
		_ = conn.Close()
		return err
	}

	if err := ch.ExchangeDeclare(c.config.Exchange, "topic", true, false, false, false, nil); err != nil {
		return fail(fmt.Errorf("declare exchange %s failed: %w", c.config.Exchange, err))
	}

	args := amqp.Table{}
	if c.config.DLX != "" {
		if err := ch.ExchangeDeclare(c.config.DLX, "topic", true, false, false, false, nil); err != nil {
			return fail(fmt.Errorf("declare dlx failed: %w", err))
		}
		if _, err := ch.QueueDeclare(c.config.DLQ, true, false, false, false, nil); err != nil {
			return fail(fmt.Errorf("declare dlq failed: %w", err))
		}
		if err := ch.QueueBind(c.config.DLQ, "#", c.config.DLX, false, nil); err != nil {
			return fail(fmt.Errorf("bind dlq failed: %w", err))
		}
		args["x-dead-letter-exchange"] = c.config.DLX
	}

	q, err := ch.QueueDeclare(c.config.Queue, true, false, false, false, args)
	if err != nil {
		return fail(fmt.Errorf("declare queue failed: %w", err))
	}

	for _, key := range []string{RKBookingCreated, RKPaymentCompleted} {
		if err := ch.QueueBind(q.Name, key, c.config.Exchange, false, nil); err != nil {
			return fail(fmt.Errorf("bind key=%s failed: %w", key, err))
		}
	}

	prefetch := c.config.Prefetch
	if prefetch <= 0 {
		prefetch = 8
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		return fail(fmt.Errorf("set qos failed: %w", err))
	}

	c.conn = conn
	c.ch = ch
	return nil
}

func (c *Consumer) Close() {
	if c.ch != nil {
		_ = c.ch.Close()
	}
	if c.conn != nil {
		_ = c.conn.Close()
	}
}

// Run consumes until ctx is done or the broker closes the channel.
func (c *Consumer) Run(ctx context.Context) error {
	msgs, err := c.ch.ConsumeWithContext(ctx, c.config.Queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("consume failed: %w", err)
	}

	c.log.Info("Consuming notifications", zap.String("queue", c.config.Queue))

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return errors.New("delivery channel closed")
			}
			c.deliver(ctx, d)
		}
	}
}

func (c *Consumer) deliver(ctx context.Context, d amqp.Delivery) {
	err := c.handler.Handle(ctx, d.RoutingKey, d.Body)
	switch {
	case err == nil:
		_ = d.Ack(false)
	case errors.Is(err, ErrUndeliverable):
		c.log.Error("Dropping undeliverable message",
			zap.Error(err),
			zap.String("routing_key", d.RoutingKey),
		)
		_ = d.Nack(false, false)
	default:
		c.log.Error("Notification failed, requeueing",
			zap.Error(err),
			zap.String("routing_key", d.RoutingKey),
		)
		_ = d.Nack(false, true)
	}
}

// Package events publishes order and payment lifecycle events to RabbitMQ so
// notification and analytics consumers can react without polling the store.
package events

import (
	"context"
	"encoding/json"

	"github.com/dukan-market/dukanpay/internal/core/port"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"
)

const exchangeName = "dukan.orders"

type RabbitMQPublisher struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	logger  *zap.Logger
}

func NewRabbitMQPublisher(url string, logger *zap.Logger) (*RabbitMQPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}

	err = ch.ExchangeDeclare(
		exchangeName,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()
		return nil, err
	}

	return &RabbitMQPublisher{conn: conn, channel: ch, logger: logger}, nil
}

// Publish routes the event by its type ("order.created", "payment.completed",
// ...), which consumers bind with topic patterns like "payment.*".
func (p *RabbitMQPublisher) Publish(ctx context.Context, event port.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.channel.PublishWithContext(ctx,
		exchangeName,
		event.Type,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType: "application/json",
			Body:        body,
			Timestamp:   event.At,
		})
}

func (p *RabbitMQPublisher) Close() {
	if err := p.channel.Close(); err != nil {
		p.logger.Warn("close amqp channel", zap.Error(err))
	}
	if err := p.conn.Close(); err != nil {
		p.logger.Warn("close amqp connection", zap.Error(err))
	}
}

// NoopPublisher is used when no AMQP URL is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(ctx context.Context, event port.Event) error { return nil }

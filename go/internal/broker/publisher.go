package broker

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/eventrelay/go/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// PublisherConfig holds the fixed addressing for outbound messages.
type PublisherConfig struct {
	Exchange   string
	RoutingKey string
	Timeout    time.Duration // bounds publish + confirm; zero means the caller's context only
}

// RabbitMQPublisher publishes events to RabbitMQ with persistent delivery.
// It shares the ConnectionManager and never closes it.
type RabbitMQPublisher struct {
	conn       *ConnectionManager
	exchange   string
	routingKey string
	timeout    time.Duration
	clock      clockwork.Clock
}

func NewRabbitMQPublisher(conn *ConnectionManager, cfg PublisherConfig) *RabbitMQPublisher {
	return &RabbitMQPublisher{
		conn:       conn,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		timeout:    cfg.Timeout,
		clock:      clockwork.NewRealClock(),
	}
}

// WithClock replaces the clock used for the message timestamp.
func (p *RabbitMQPublisher) WithClock(clock clockwork.Clock) *RabbitMQPublisher {
	p.clock = clock
	return p
}

func (p *RabbitMQPublisher) Publish(ctx context.Context, msg events.Message) error {
	body, err := msg.Encode()
	if err != nil {
		log.Error().Err(err).Str("event", msg.Event).Msg("error encoding message")
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	publishing := amqp.Publishing{
		ContentType:  "application/json; charset=utf-8",
		DeliveryMode: amqp.Persistent,
		MessageId:    uuid.NewString(),
		Timestamp:    p.clock.Now().UTC(),
		Type:         msg.Event,
		Body:         body,
	}

	if err := p.conn.publish(ctx, p.exchange, p.routingKey, publishing); err != nil {
		log.Error().
			Err(err).
			Str("exchange", p.exchange).
			Str("routing_key", p.routingKey).
			Str("event", msg.Event).
			Msg("error publishing message")
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	log.Info().
		Str("exchange", p.exchange).
		Str("routing_key", p.routingKey).
		Str("message_id", publishing.MessageId).
		RawJSON("body", body).
		Msg("message published to RabbitMQ")

	return nil
}

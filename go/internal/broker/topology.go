package broker

import (
	"fmt"
	"strings"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Topology describes the exchange and optional queue binding the relay publishes into.
type Topology struct {
	Exchange     string
	ExchangeKind string
	Queue        string
	RoutingKey   string
}

// DeclareTopology declares a durable exchange and, when a queue is named, a durable
// queue bound to it with the routing key. Declarations are idempotent on the broker
// as long as the existing entities have the same properties.
func (cm *ConnectionManager) DeclareTopology(t Topology) error {
	cm.publishMu.Lock()
	defer cm.publishMu.Unlock()

	ch := cm.Channel()
	if ch == nil {
		return ErrNotConnected
	}

	kind := t.ExchangeKind
	if kind == "" {
		kind = amqp.ExchangeDirect
	}

	// predeclared exchanges cannot be redeclared
	if t.Exchange != "" && !strings.HasPrefix(t.Exchange, "amq.") {
		if err := ch.ExchangeDeclare(t.Exchange, kind, true, false, false, false, nil); err != nil {
			return fmt.Errorf("%w: declare exchange %s: %w", ErrBrokerConnection, t.Exchange, err)
		}
	}

	if t.Queue == "" {
		return nil
	}
	q, err := ch.QueueDeclare(t.Queue, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("%w: declare queue %s: %w", ErrBrokerConnection, t.Queue, err)
	}
	if t.Exchange != "" {
		if err := ch.QueueBind(q.Name, t.RoutingKey, t.Exchange, false, nil); err != nil {
			return fmt.Errorf("%w: bind queue %s: %w", ErrBrokerConnection, q.Name, err)
		}
	}

	log.Info().
		Str("exchange", t.Exchange).
		Str("kind", kind).
		Str("queue", q.Name).
		Str("routing_key", t.RoutingKey).
		Msg("RabbitMQ topology declared")
	return nil
}

package broker

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog/log"
)

// Config holds RabbitMQ connection settings.
type Config struct {
	Host           string
	Port           string
	Username       string
	Password       string
	VHost          string
	DialTimeout    time.Duration
	Heartbeat      time.Duration
	ConnectionName string
}

// DefaultConfig returns a config for a local broker with the guest account.
func DefaultConfig() Config {
	return Config{
		Host:           "localhost",
		Port:           "5672",
		Username:       "guest",
		Password:       "guest",
		VHost:          "/",
		DialTimeout:    10 * time.Second,
		Heartbeat:      10 * time.Second,
		ConnectionName: "eventrelay",
	}
}

// Addr returns host:port of the broker.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// URL returns the AMQP URL without credentials; those travel in the SASL config.
func (c Config) URL() string {
	return fmt.Sprintf("amqp://%s/", c.Addr())
}

// Channel is the subset of *amqp.Channel used for publishing and topology setup
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Close() error
}

type connection interface {
	Channel() (*amqp.Channel, error)
	NotifyClose(receiver chan *amqp.Error) chan *amqp.Error
	IsClosed() bool
	Close() error
}

type dialFunc func(url string, cfg amqp.Config) (connection, error)

func dialAMQP(url string, cfg amqp.Config) (connection, error) {
	conn, err := amqp.DialConfig(url, cfg)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// ConnectionManager owns the single process-wide connection and channel to RabbitMQ.
// The connection is created once and never recreated; a dropped connection surfaces
// as a failure on the next publish.
type ConnectionManager struct {
	cfg  Config
	dial dialFunc

	mu       sync.RWMutex
	conn     connection
	channel  Channel
	confirms chan amqp.Confirmation

	// publishMu serializes all writes on the shared channel.
	publishMu sync.Mutex
	published uint64
}

// NewConnectionManager connects eagerly and fails fast when the broker is unreachable.
func NewConnectionManager(cfg Config) (*ConnectionManager, error) {
	cm := &ConnectionManager{cfg: cfg, dial: dialAMQP}
	if err := cm.Connect(); err != nil {
		return nil, err
	}
	return cm, nil
}

// Connect dials the broker, opens one channel and puts it in confirm mode.
func (cm *ConnectionManager) Connect() error {
	props := amqp.NewConnectionProperties()
	if cm.cfg.ConnectionName != "" {
		props.SetClientConnectionName(cm.cfg.ConnectionName)
	}

	conn, err := cm.dial(cm.cfg.URL(), amqp.Config{
		SASL:       []amqp.Authentication{&amqp.PlainAuth{Username: cm.cfg.Username, Password: cm.cfg.Password}},
		Vhost:      cm.cfg.VHost,
		Heartbeat:  cm.cfg.Heartbeat,
		Properties: props,
		Dial:       amqp.DefaultDial(cm.cfg.DialTimeout),
	})
	if err != nil {
		log.Error().Err(err).Str("addr", cm.cfg.Addr()).Msg("error connecting to RabbitMQ")
		return fmt.Errorf("%w: dial %s: %w", ErrBrokerConnection, cm.cfg.Addr(), err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		log.Error().Err(err).Str("addr", cm.cfg.Addr()).Msg("error opening RabbitMQ channel")
		return fmt.Errorf("%w: open channel: %w", ErrBrokerConnection, err)
	}

	if err := ch.Confirm(false); err != nil {
		_ = ch.Close()
		_ = conn.Close()
		log.Error().Err(err).Msg("error enabling publisher confirms")
		return fmt.Errorf("%w: confirm mode: %w", ErrBrokerConnection, err)
	}

	confirms := ch.NotifyPublish(make(chan amqp.Confirmation, 16))
	go watchClose(conn.NotifyClose(make(chan *amqp.Error, 1)), cm.cfg.Addr())

	cm.mu.Lock()
	cm.conn = conn
	cm.channel = ch
	cm.confirms = confirms
	cm.mu.Unlock()

	cm.publishMu.Lock()
	cm.published = 0
	cm.publishMu.Unlock()

	log.Info().
		Str("addr", cm.cfg.Addr()).
		Str("vhost", cm.cfg.VHost).
		Msg("connection to RabbitMQ established")
	return nil
}

func watchClose(closed chan *amqp.Error, addr string) {
	for err := range closed {
		if err != nil {
			log.Error().
				Str("addr", addr).
				Int("code", err.Code).
				Str("reason", err.Reason).
				Msg("RabbitMQ connection lost")
		}
	}
}

// Channel returns the open channel, or nil before Connect succeeded.
func (cm *ConnectionManager) Channel() Channel {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.channel
}

// IsConnected reports whether the connection is open.
func (cm *ConnectionManager) IsConnected() bool {
	cm.mu.RLock()
	defer cm.mu.RUnlock()
	return cm.conn != nil && !cm.conn.IsClosed()
}

// Close closes the connection. Calling it again, or before Connect, is a no-op.
func (cm *ConnectionManager) Close() error {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.conn == nil {
		return nil
	}

	var err error
	if !cm.conn.IsClosed() {
		err = cm.conn.Close()
	}
	cm.conn = nil
	cm.channel = nil
	cm.confirms = nil

	if err != nil {
		return fmt.Errorf("close RabbitMQ connection: %w", err)
	}
	log.Info().Str("addr", cm.cfg.Addr()).Msg("connection to RabbitMQ closed")
	return nil
}

// publish writes one message on the shared channel and waits for the broker confirm.
func (cm *ConnectionManager) publish(ctx context.Context, exchange, key string, msg amqp.Publishing) error {
	cm.publishMu.Lock()
	defer cm.publishMu.Unlock()

	cm.mu.RLock()
	ch, confirms := cm.channel, cm.confirms
	cm.mu.RUnlock()
	if ch == nil {
		return ErrNotConnected
	}

	if err := ch.PublishWithContext(ctx, exchange, key, false, false, msg); err != nil {
		return fmt.Errorf("basic.publish: %w", err)
	}
	cm.published++
	tag := cm.published

	for {
		select {
		case c, ok := <-confirms:
			if !ok {
				return fmt.Errorf("channel closed before confirm: %w", ErrNotConnected)
			}
			// confirms for publishes that timed out earlier are still delivered in order
			if c.DeliveryTag < tag {
				continue
			}
			if !c.Ack {
				return ErrNacked
			}
			return nil
		case <-ctx.Done():
			return fmt.Errorf("waiting for confirm: %w", ctx.Err())
		}
	}
}

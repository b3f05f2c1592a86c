package broker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mcdev12/eventrelay/go/internal/events"
	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"
	"github.com/rs/zerolog/log"
)

type JetStreamConfig struct {
	URL             string
	Exchange        string // becomes the stream name and subject prefix
	RoutingKey      string
	MaxReconnects   int
	ReconnectWait   time.Duration
	ConnectTimeout  time.Duration
	MaxAge          time.Duration // How long to keep messages
	Replicas        int
	DuplicateWindow time.Duration
	Timeout         time.Duration
}

func DefaultJetStreamConfig() JetStreamConfig {
	return JetStreamConfig{
		URL:             nats.DefaultURL,
		Exchange:        "events",
		RoutingKey:      "webhook",
		MaxReconnects:   0, // the connection is never recreated
		ReconnectWait:   2 * time.Second,
		ConnectTimeout:  10 * time.Second,
		MaxAge:          7 * 24 * time.Hour,
		Replicas:        1,
		DuplicateWindow: 2 * time.Minute,
		Timeout:         5 * time.Second,
	}
}

// StreamName maps the exchange onto a valid JetStream stream name.
func (c JetStreamConfig) StreamName() string {
	r := strings.NewReplacer(".", "_", "-", "_", " ", "_", "*", "_", ">", "_")
	return strings.ToUpper(r.Replace(c.Exchange))
}

// Subject is the subject every message is published on.
func (c JetStreamConfig) Subject() string {
	return fmt.Sprintf("%s.%s", c.Exchange, c.RoutingKey)
}

// JetStreamPublisher publishes events to a file-backed JetStream stream.
type JetStreamPublisher struct {
	nc     *nats.Conn
	js     jetstream.JetStream
	config JetStreamConfig
}

func NewJetStreamPublisher(cfg JetStreamConfig) (*JetStreamPublisher, error) {
	opts := []nats.Option{
		nats.Name("eventrelay"),
		nats.Timeout(cfg.ConnectTimeout),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Error().Err(err).Msg("NATS disconnected")
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Info().Msg("connection to NATS closed")
		}),
		nats.ErrorHandler(func(nc *nats.Conn, sub *nats.Subscription, err error) {
			log.Error().Err(err).Msg("NATS error")
		}),
	}

	nc, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		log.Error().Err(err).Str("url", cfg.URL).Msg("error connecting to NATS")
		return nil, fmt.Errorf("%w: connect to NATS: %w", ErrBrokerConnection, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("%w: create JetStream context: %w", ErrBrokerConnection, err)
	}

	p := &JetStreamPublisher{nc: nc, js: js, config: cfg}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ConnectTimeout)
	defer cancel()
	if err := p.ensureStream(ctx); err != nil {
		nc.Close()
		return nil, fmt.Errorf("%w: ensure stream: %w", ErrBrokerConnection, err)
	}

	log.Info().
		Str("url", nc.ConnectedUrl()).
		Str("stream", cfg.StreamName()).
		Msg("connection to NATS established")

	return p, nil
}

func (p *JetStreamPublisher) ensureStream(ctx context.Context) error {
	sc := jetstream.StreamConfig{
		Name:        p.config.StreamName(),
		Description: "Webhook events relayed by eventrelay",
		Subjects:    []string{fmt.Sprintf("%s.>", p.config.Exchange)},
		Retention:   jetstream.LimitsPolicy,
		MaxAge:      p.config.MaxAge,
		Storage:     jetstream.FileStorage,
		Replicas:    p.config.Replicas,
		Duplicates:  p.config.DuplicateWindow,
	}

	if _, err := p.js.CreateOrUpdateStream(ctx, sc); err != nil {
		return fmt.Errorf("create or update stream: %w", err)
	}
	return nil
}

func (p *JetStreamPublisher) Publish(ctx context.Context, msg events.Message) error {
	data, err := msg.Encode()
	if err != nil {
		log.Error().Err(err).Str("event", msg.Event).Msg("error encoding message")
		return fmt.Errorf("%w: %w", ErrPublish, err)
	}

	if p.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()
	}

	subject := p.config.Subject()
	msgID := uuid.NewString()
	ack, err := p.js.PublishMsg(ctx, &nats.Msg{
		Subject: subject,
		Data:    data,
		Header: nats.Header{
			"Content-Type": []string{"application/json"},
			"Event-Type":   []string{msg.Event},
		},
	},
		jetstream.WithMsgID(msgID),
		jetstream.WithExpectStream(p.config.StreamName()),
	)
	if err != nil {
		log.Error().Err(err).Str("subject", subject).Str("event", msg.Event).Msg("error publishing message")
		return fmt.Errorf("%w: publish to JetStream: %w", ErrPublish, err)
	}

	log.Info().
		Str("subject", subject).
		Str("message_id", msgID).
		Uint64("sequence", ack.Sequence).
		Str("stream", ack.Stream).
		RawJSON("body", data).
		Msg("message published to JetStream")

	return nil
}

func (p *JetStreamPublisher) IsConnected() bool {
	return p.nc != nil && p.nc.IsConnected()
}

func (p *JetStreamPublisher) Close() error {
	if p.nc != nil && !p.nc.IsClosed() {
		p.nc.Close()
	}
	return nil
}

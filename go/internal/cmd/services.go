package main

import (
	"fmt"
	"io"

	"github.com/mcdev12/eventrelay/go/internal/broker"
	"github.com/mcdev12/eventrelay/go/internal/config"
	"github.com/mcdev12/eventrelay/go/internal/ingest"
	"github.com/prometheus/client_golang/prometheus"
)

// Broker bundles the publisher with what is needed to report on and release it
type Broker struct {
	Publisher broker.Publisher
	Health    *broker.HealthChecker
	Closer    io.Closer
}

type Services struct {
	Ingest *ingest.Service
	Health *broker.HealthChecker
}

// setupBroker connects to the configured broker. Failing here must abort startup
// before any endpoint is reachable.
func setupBroker(cfg config.Config, reg prometheus.Registerer) (*Broker, error) {
	var metrics broker.MetricsCollector = broker.NoOpMetricsCollector{}
	if cfg.MetricsEnabled {
		metrics = broker.NewPrometheusMetrics(reg)
	}

	switch cfg.BrokerDriver {
	case config.DriverJetStream:
		js, err := broker.NewJetStreamPublisher(jetStreamConfig(cfg))
		if err != nil {
			return nil, err
		}
		return &Broker{
			Publisher: broker.NewMetricPublisher(js, metrics),
			Health:    broker.NewHealthChecker(cfg.BrokerDriver, js),
			Closer:    js,
		}, nil

	case config.DriverAMQP:
		conn, err := broker.NewConnectionManager(amqpConfig(cfg))
		if err != nil {
			return nil, err
		}
		if cfg.Rabbit.Queue != "" {
			if err := conn.DeclareTopology(topology(cfg)); err != nil {
				_ = conn.Close()
				return nil, err
			}
		}
		pub := broker.NewRabbitMQPublisher(conn, publisherConfig(cfg))
		return &Broker{
			Publisher: broker.NewMetricPublisher(pub, metrics),
			Health:    broker.NewHealthChecker(cfg.BrokerDriver, conn),
			Closer:    conn,
		}, nil
	}

	return nil, fmt.Errorf("unknown broker driver %q", cfg.BrokerDriver)
}

func setupServices(cfg config.Config, b *Broker) *Services {
	// Broker → App layer → Service layer
	ingestApp := ingest.NewApp(b.Publisher).WithStrictDates(cfg.StrictDates)
	ingestService := ingest.NewService(ingestApp)

	return &Services{
		Ingest: ingestService,
		Health: b.Health,
	}
}

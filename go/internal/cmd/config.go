package main

import (
	"strconv"

	"github.com/mcdev12/eventrelay/go/internal/broker"
	"github.com/mcdev12/eventrelay/go/internal/config"
)

func amqpConfig(cfg config.Config) broker.Config {
	c := broker.DefaultConfig()
	c.Host = cfg.Rabbit.Host
	c.Port = strconv.Itoa(cfg.Rabbit.Port)
	c.Username = cfg.Rabbit.Username
	c.Password = cfg.Rabbit.Password
	c.VHost = cfg.Rabbit.VHost
	c.DialTimeout = cfg.DialTimeout
	c.ConnectionName = cfg.API.Title
	return c
}

func topology(cfg config.Config) broker.Topology {
	return broker.Topology{
		Exchange:     cfg.Rabbit.Exchange,
		ExchangeKind: cfg.Rabbit.ExchangeType,
		Queue:        cfg.Rabbit.Queue,
		RoutingKey:   cfg.Rabbit.RoutingKey,
	}
}

func publisherConfig(cfg config.Config) broker.PublisherConfig {
	return broker.PublisherConfig{
		Exchange:   cfg.Rabbit.Exchange,
		RoutingKey: cfg.Rabbit.RoutingKey,
		Timeout:    cfg.PublishTimeout,
	}
}

func jetStreamConfig(cfg config.Config) broker.JetStreamConfig {
	c := broker.DefaultJetStreamConfig()
	c.URL = cfg.NATSURL
	c.Exchange = cfg.Rabbit.Exchange
	c.RoutingKey = cfg.Rabbit.RoutingKey
	c.ConnectTimeout = cfg.DialTimeout
	c.Timeout = cfg.PublishTimeout
	return c
}

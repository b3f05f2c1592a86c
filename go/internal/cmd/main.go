package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mcdev12/eventrelay/go/internal/config"
	"github.com/mcdev12/eventrelay/go/internal/logging"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Setup logging
	logging.Setup(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	log.Info().
		Str("title", cfg.API.Title).
		Str("version", cfg.API.Version).
		Str("driver", cfg.BrokerDriver).
		Str("exchange", cfg.Rabbit.Exchange).
		Str("routing_key", cfg.Rabbit.RoutingKey).
		Msg("starting event relay")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	// Connect to the broker before accepting requests
	b, err := setupBroker(cfg, reg)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to message broker")
	}

	services := setupServices(cfg, b)
	server := setupServer(cfg, services, reg)

	go func() {
		log.Info().Str("addr", server.Addr).Msg("HTTP server starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	sig := <-sigChan

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("HTTP server shutdown failed")
	}

	if err := b.Closer.Close(); err != nil {
		log.Error().Err(err).Msg("broker shutdown failed")
	}

	log.Info().Msg("event relay shutdown complete")
}

package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mcdev12/eventrelay/go/internal/broker"
	"github.com/mcdev12/eventrelay/go/internal/config"
	"github.com/mcdev12/eventrelay/go/internal/events"
	"github.com/prometheus/client_golang/prometheus"
)

type recordingPublisher struct {
	messages []events.Message
}

func (p *recordingPublisher) Publish(_ context.Context, msg events.Message) error {
	p.messages = append(p.messages, msg)
	return nil
}

type staticConn bool

func (c staticConn) IsConnected() bool { return bool(c) }

func newTestHandler(t *testing.T, connected bool) (http.Handler, *recordingPublisher) {
	t.Helper()
	cfg := config.Default()
	cfg.Rabbit.Exchange = "events"
	cfg.Rabbit.RoutingKey = "relay.events"

	reg := prometheus.NewRegistry()
	pub := &recordingPublisher{}
	b := &Broker{
		Publisher: broker.NewMetricPublisher(pub, broker.NewPrometheusMetrics(reg)),
		Health:    broker.NewHealthChecker(cfg.BrokerDriver, staticConn(connected)),
	}
	return setupServer(cfg, setupServices(cfg, b), reg).Handler, pub
}

func TestServerRoutes(t *testing.T) {
	handler, pub := newTestHandler(t, true)
	srv := httptest.NewServer(handler)
	defer srv.Close()

	body := `{"event":"card","time":"2024-08-27T14:55:00","body":{"card_id":1,"card_number":"4111","account_id":2,"status_id":1,"limit":100,"expiration_date":"2030-01-31"}}`
	resp, err := http.Post(srv.URL+"/card", "application/json", strings.NewReader(body))
	if err != nil {
		t.Fatalf("POST /card: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("POST /card status = %d", resp.StatusCode)
	}
	if len(pub.messages) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(pub.messages))
	}

	for path, want := range map[string]int{"/health": http.StatusOK, "/metrics": http.StatusOK} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != want {
			t.Fatalf("GET %s status = %d, expected %d", path, resp.StatusCode, want)
		}
	}
}

func TestHealthReportsDisconnectedBroker(t *testing.T) {
	handler, _ := newTestHandler(t, false)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, expected 503", rec.Code)
	}
}

func TestBrokerConfigTranslation(t *testing.T) {
	cfg := config.Default()
	cfg.Rabbit.Host = "rabbit"
	cfg.Rabbit.Port = 5673
	cfg.Rabbit.Exchange = "events"
	cfg.Rabbit.RoutingKey = "relay.events"
	cfg.PublishTimeout = 3 * time.Second

	if got := amqpConfig(cfg).Addr(); got != "rabbit:5673" {
		t.Fatalf("Addr() = %q", got)
	}
	if got := publisherConfig(cfg); got.Exchange != "events" || got.RoutingKey != "relay.events" || got.Timeout != 3*time.Second {
		t.Fatalf("unexpected publisher config %+v", got)
	}
	if got := jetStreamConfig(cfg).Subject(); got != "events.relay.events" {
		t.Fatalf("Subject() = %q", got)
	}
}

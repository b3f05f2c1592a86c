package broker

import (
	"context"
	"time"

	"github.com/mcdev12/eventrelay/go/internal/events"
	"github.com/prometheus/client_golang/prometheus"
)

// MetricsCollector defines the interface for collecting publish metrics
type MetricsCollector interface {
	RecordPublish(event string, success bool, duration time.Duration)
}

// NoOpMetricsCollector is used when metrics are disabled
type NoOpMetricsCollector struct{}

func (NoOpMetricsCollector) RecordPublish(event string, success bool, duration time.Duration) {}

// MetricPublisher wraps a Publisher with metrics collection
type MetricPublisher struct {
	publisher Publisher
	metrics   MetricsCollector
}

func NewMetricPublisher(publisher Publisher, metrics MetricsCollector) *MetricPublisher {
	return &MetricPublisher{
		publisher: publisher,
		metrics:   metrics,
	}
}

func (p *MetricPublisher) Publish(ctx context.Context, msg events.Message) error {
	start := time.Now()
	err := p.publisher.Publish(ctx, msg)
	p.metrics.RecordPublish(msg.Event, err == nil, time.Since(start))
	return err
}

// PrometheusMetrics implements MetricsCollector with client_golang
type PrometheusMetrics struct {
	publishTotal    *prometheus.CounterVec
	publishDuration *prometheus.HistogramVec
}

func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	m := &PrometheusMetrics{
		publishTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "eventrelay_publish_total",
				Help: "Messages handed to the broker, by event and outcome.",
			},
			[]string{"event", "status"},
		),
		publishDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "eventrelay_publish_duration_seconds",
				Help:    "Time taken to publish and confirm one message.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"event"},
		),
	}
	reg.MustRegister(m.publishTotal, m.publishDuration)
	return m
}

func (m *PrometheusMetrics) RecordPublish(event string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	m.publishTotal.WithLabelValues(event, status).Inc()
	m.publishDuration.WithLabelValues(event).Observe(duration.Seconds())
}

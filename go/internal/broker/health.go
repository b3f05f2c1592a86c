package broker

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

type HealthStatus struct {
	Healthy         bool     `json:"healthy"`
	Driver          string   `json:"driver"`
	BrokerConnected bool     `json:"broker_connected"`
	Errors          []string `json:"errors"`
}

type HealthChecker struct {
	driver string
	conn   Connectivity
}

func NewHealthChecker(driver string, conn Connectivity) *HealthChecker {
	return &HealthChecker{driver: driver, conn: conn}
}

// Check reports the connection state held by the backend; it does no network I/O.
func (h *HealthChecker) Check() HealthStatus {
	status := HealthStatus{
		Healthy: true,
		Driver:  h.driver,
		Errors:  []string{},
	}

	status.BrokerConnected = h.conn != nil && h.conn.IsConnected()
	if !status.BrokerConnected {
		status.Healthy = false
		status.Errors = append(status.Errors, h.driver+" disconnected")
	}

	return status
}

func (h *HealthChecker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := h.Check()

	w.Header().Set("Content-Type", "application/json")
	if !status.Healthy {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	if err := json.NewEncoder(w).Encode(status); err != nil {
		log.Error().Err(err).Msg("failed to write health check response")
	}
}

package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"
)

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Detail string `json:"detail"`
	Errors any    `json:"errors,omitempty"`
}

// WriteJSON writes v with the given status code.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Int("status", status).Msg("failed to write response")
	}
}

// WriteError maps err and writes the structured error body. Server errors are
// logged with their cause; the response only carries the mapped message.
func (m *ErrorMapper) WriteError(w http.ResponseWriter, err error, details any) {
	info := m.Map(err)
	if info.Status >= http.StatusInternalServerError {
		log.Error().Err(err).Int("status", info.Status).Msg("request failed")
	} else {
		log.Warn().Err(err).Int("status", info.Status).Msg("request rejected")
	}
	WriteJSON(w, info.Status, ErrorResponse{Detail: info.Message, Errors: details})
}

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/mcdev12/eventrelay/go/internal/broker"
	"github.com/mcdev12/eventrelay/go/internal/httputil"
	"github.com/mcdev12/eventrelay/go/internal/models"
	"github.com/rs/zerolog/log"
)

const maxBodyBytes = 1 << 20

// Processor defines what the service layer needs from the ingest application
type Processor interface {
	Process(ctx context.Context, raw RawEnvelope, expected models.EventType) (*Result, error)
}

// Service exposes one webhook endpoint per event type
type Service struct {
	app    Processor
	errors *httputil.ErrorMapper
}

// NewService creates a new ingest HTTP service
func NewService(app Processor) *Service {
	return &Service{
		app: app,
		errors: httputil.NewErrorMapper().
			WithMapping(ErrInvalidEventType, http.StatusBadRequest, "Invalid event type").
			WithMapping(ErrMalformedPayload, http.StatusBadRequest, "Malformed request body").
			WithMapping(ErrSchemaValidation, http.StatusUnprocessableEntity, "Invalid record body").
			WithMapping(broker.ErrPublish, http.StatusBadGateway, "Failed to publish event"),
	}
}

// RegisterRoutes binds POST /person, /account and /card
func (s *Service) RegisterRoutes(mux *http.ServeMux) {
	for _, t := range []models.EventType{models.EventTypePerson, models.EventTypeAccount, models.EventTypeCard} {
		mux.Handle("POST /"+t.String(), s.handler(t))
	}
}

func (s *Service) handler(t models.EventType) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log.Info().Str("event", t.String()).Msgf("%s event received", t)

		raw, err := decodeEnvelope(w, r)
		if err != nil {
			s.errors.WriteError(w, err, nil)
			return
		}

		result, err := s.app.Process(r.Context(), raw, t)
		if err != nil {
			var verr *SchemaValidationError
			if errors.As(err, &verr) {
				s.errors.WriteError(w, err, verr.Errors)
				return
			}
			s.errors.WriteError(w, err, nil)
			return
		}

		httputil.WriteJSON(w, http.StatusOK, result)
	}
}

// wireEnvelope keeps event raw so a non-string tag is reported as a tag mismatch
// rather than a malformed body.
type wireEnvelope struct {
	Event json.RawMessage `json:"event"`
	Time  string          `json:"time"`
	Body  json.RawMessage `json:"body"`
}

func decodeEnvelope(w http.ResponseWriter, r *http.Request) (RawEnvelope, error) {
	var wire wireEnvelope
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&wire); err != nil {
		return RawEnvelope{}, fmt.Errorf("%w: %w", ErrMalformedPayload, err)
	}

	raw := RawEnvelope{Time: wire.Time, Body: wire.Body}
	if err := json.Unmarshal(wire.Event, &raw.Event); err != nil {
		// never equal to a known tag, so Process rejects it as an invalid event type
		raw.Event = string(wire.Event)
	}
	return raw, nil
}

package ingest

import (
	"context"
	"fmt"

	"github.com/mcdev12/eventrelay/go/internal/events"
	"github.com/mcdev12/eventrelay/go/internal/models"
	"github.com/rs/zerolog/log"
)

// Publisher defines what the processor needs from the broker layer
type Publisher interface {
	Publish(ctx context.Context, msg events.Message) error
}

// App validates webhook envelopes and forwards them to the broker
type App struct {
	publisher   Publisher
	strictDates bool
}

// NewApp creates a new ingest App
func NewApp(publisher Publisher) *App {
	return &App{
		publisher: publisher,
	}
}

// WithStrictDates makes date fields require YYYY-MM-DD instead of any string.
func (a *App) WithStrictDates(strict bool) *App {
	a.strictDates = strict
	return a
}

// Process checks the envelope tag, parses the body into the record bound to the
// expected event type and publishes exactly one message. Nothing is published when
// validation fails.
func (a *App) Process(ctx context.Context, raw RawEnvelope, expected models.EventType) (*Result, error) {
	schema, ok := models.SchemaFor(expected)
	if !ok {
		return nil, fmt.Errorf("%w: no schema for %q", ErrInvalidEventType, expected)
	}
	if raw.Event != expected.String() {
		return nil, fmt.Errorf("%w: got %q, expected %q", ErrInvalidEventType, raw.Event, expected)
	}

	record := schema.New()
	if err := decodeRecord(raw.Body, record, a.strictDates); err != nil {
		if verr, ok := err.(*SchemaValidationError); ok {
			verr.Schema = schema.Name
		}
		return nil, err
	}

	log.Info().
		Interface("object", record).
		Str("time", raw.Time).
		Str("event", raw.Event).
		Msg("event parsed")

	if err := a.publisher.Publish(ctx, events.NewMessage(record, raw.Time, raw.Event)); err != nil {
		return nil, fmt.Errorf("publish %s event: %w", raw.Event, err)
	}

	return &Result{
		Record: record,
		Time:   raw.Time,
		Event:  raw.Event,
	}, nil
}

package ingest

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/mcdev12/eventrelay/go/internal/broker"
	"github.com/mcdev12/eventrelay/go/internal/models"
)

func TestProcessPublishesOneMessage(t *testing.T) {
	pub := &fakePublisher{}
	app := NewApp(pub)

	raw := RawEnvelope{Event: "person", Time: "2024-08-27T14:55:00", Body: json.RawMessage(personBody)}
	result, err := app.Process(context.Background(), raw, models.EventTypePerson)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}

	person, ok := result.Record.(*models.Person)
	if !ok {
		t.Fatalf("expected *models.Person, got %T", result.Record)
	}
	if person.PersonID != 1 || result.Time != raw.Time || result.Event != "person" {
		t.Fatalf("unexpected result %+v", result)
	}

	msgs := pub.published()
	if len(msgs) != 1 {
		t.Fatalf("expected 1 published message, got %d", len(msgs))
	}
	if diff := cmp.Diff(result.Record, msgs[0].Object); diff != "" {
		t.Fatalf("published object mismatch (-want +got):\n%s", diff)
	}
	if msgs[0].Time != raw.Time || msgs[0].Event != raw.Event {
		t.Fatalf("unexpected message envelope %+v", msgs[0])
	}
}

func TestProcessRejectsWithoutPublishing(t *testing.T) {
	tests := []struct {
		name     string
		raw      RawEnvelope
		expected models.EventType
		wantErr  error
	}{
		{
			name:     "tag mismatch",
			raw:      RawEnvelope{Event: "card", Time: "t", Body: json.RawMessage(personBody)},
			expected: models.EventTypeAccount,
			wantErr:  ErrInvalidEventType,
		},
		{
			name:     "tag case differs",
			raw:      RawEnvelope{Event: "Person", Time: "t", Body: json.RawMessage(personBody)},
			expected: models.EventTypePerson,
			wantErr:  ErrInvalidEventType,
		},
		{
			name:     "unknown expected type",
			raw:      RawEnvelope{Event: "loan", Time: "t", Body: json.RawMessage(`{}`)},
			expected: models.EventType("loan"),
			wantErr:  ErrInvalidEventType,
		},
		{
			name:     "body does not fit schema",
			raw:      RawEnvelope{Event: "account", Time: "t", Body: json.RawMessage(personBody)},
			expected: models.EventTypeAccount,
			wantErr:  ErrSchemaValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub := &fakePublisher{}
			_, err := NewApp(pub).Process(context.Background(), tt.raw, tt.expected)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Process() error = %v, expected %v", err, tt.wantErr)
			}
			if n := len(pub.published()); n != 0 {
				t.Fatalf("expected nothing published, got %d messages", n)
			}
		})
	}
}

func TestProcessNamesSchemaOnValidationError(t *testing.T) {
	raw := RawEnvelope{Event: "account", Time: "t", Body: json.RawMessage(`{"account_id":1}`)}
	_, err := NewApp(&fakePublisher{}).Process(context.Background(), raw, models.EventTypeAccount)

	var verr *SchemaValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *SchemaValidationError, got %v", err)
	}
	if verr.Schema != "Account" {
		t.Fatalf("Schema = %q, expected Account", verr.Schema)
	}
	if len(verr.Errors) != 5 {
		t.Fatalf("expected 5 missing fields, got %v", verr.Errors)
	}
}

func TestProcessPropagatesPublishError(t *testing.T) {
	pub := &fakePublisher{err: fmt.Errorf("%w: %w", broker.ErrPublish, broker.ErrNacked)}
	raw := RawEnvelope{Event: "person", Time: "t", Body: json.RawMessage(personBody)}

	result, err := NewApp(pub).Process(context.Background(), raw, models.EventTypePerson)
	if !errors.Is(err, broker.ErrPublish) {
		t.Fatalf("Process() error = %v, expected ErrPublish", err)
	}
	if result != nil {
		t.Fatalf("expected no result on publish failure, got %+v", result)
	}
}

func TestResultMarshalsAsTriple(t *testing.T) {
	res := Result{Record: &models.Account{AccountID: 2}, Time: "t1", Event: "account"}
	b, err := json.Marshal(res)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var got []json.RawMessage
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatalf("result is not an array: %s", b)
	}
	if len(got) != 3 || string(got[1]) != `"t1"` || string(got[2]) != `"account"` {
		t.Fatalf("unexpected result %s", b)
	}
}

func TestProcessAcceptsLooseDatesAndNumericStrings(t *testing.T) {
	pub := &fakePublisher{}
	body := `{"person_id":1,"name":"Username","email":"useremail@gmail.com","gender":"M","birth_date":"2000/01/01","address":"Balneário-SC","salary":"9.990","cpf":"542.952.678-99"}`
	raw := RawEnvelope{Event: "person", Time: "2024-08-27T14:55:00", Body: json.RawMessage(body)}

	result, err := NewApp(pub).Process(context.Background(), raw, models.EventTypePerson)
	if err != nil {
		t.Fatalf("Process() error = %v", err)
	}
	person := result.Record.(*models.Person)
	if person.BirthDate != "2000/01/01" || person.Salary != 9.99 {
		t.Fatalf("unexpected person %+v", person)
	}
	if n := len(pub.published()); n != 1 {
		t.Fatalf("expected 1 published message, got %d", n)
	}

	strict := &fakePublisher{}
	_, err = NewApp(strict).WithStrictDates(true).Process(context.Background(), raw, models.EventTypePerson)
	if !errors.Is(err, ErrSchemaValidation) {
		t.Fatalf("strict dates should reject 2000/01/01, got %v", err)
	}
	if n := len(strict.published()); n != 0 {
		t.Fatalf("expected nothing published, got %d", n)
	}
}

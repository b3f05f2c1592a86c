package ingest

import (
	"encoding/json"

	"github.com/mcdev12/eventrelay/go/internal/models"
)

// RawEnvelope is the inbound webhook payload before validation
type RawEnvelope struct {
	Event string          `json:"event"`
	Time  string          `json:"time"`
	Body  json.RawMessage `json:"body"`
}

// Result is what an ingestion endpoint returns for a processed event
type Result struct {
	Record models.Record
	Time   string
	Event  string
}

// MarshalJSON renders the result as [record, time, event]
func (r Result) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{r.Record, r.Time, r.Event})
}

package events

import (
	"encoding/json"
	"fmt"

	"github.com/mcdev12/eventrelay/go/internal/models"
)

// Message is the envelope published to the broker for downstream consumers
type Message struct {
	Object models.Record `json:"object"`
	Time   string        `json:"time"`
	Event  string        `json:"event"`
}

// NewMessage builds the outbound envelope for a parsed record
func NewMessage(record models.Record, time, event string) Message {
	return Message{
		Object: record,
		Time:   time,
		Event:  event,
	}
}

// Encode serializes the message as UTF-8 JSON
func (m Message) Encode() ([]byte, error) {
	if m.Object == nil {
		return nil, fmt.Errorf("message has no object")
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal message: %w", err)
	}
	return data, nil
}

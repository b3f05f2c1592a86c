package models

// EventType is the tag carried by an inbound webhook envelope
type EventType string

const (
	EventTypePerson  EventType = "person"
	EventTypeAccount EventType = "account"
	EventTypeCard    EventType = "card"
)

// Valid reports whether t is one of the known event tags
func (t EventType) Valid() bool {
	switch t {
	case EventTypePerson, EventTypeAccount, EventTypeCard:
		return true
	}
	return false
}

func (t EventType) String() string {
	return string(t)
}

// Record is a validated, typed representation of one domain entity
type Record interface {
	EventType() EventType
}

// Schema selects which Record variant a webhook body is parsed into
type Schema struct {
	Name string
	New  func() Record
}

var schemas = map[EventType]Schema{
	EventTypePerson:  {Name: "Person", New: func() Record { return &Person{} }},
	EventTypeAccount: {Name: "Account", New: func() Record { return &Account{} }},
	EventTypeCard:    {Name: "Card", New: func() Record { return &Card{} }},
}

// SchemaFor returns the record schema bound to an event type
func SchemaFor(t EventType) (Schema, bool) {
	s, ok := schemas[t]
	return s, ok
}

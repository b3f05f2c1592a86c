package broker

import (
	"context"

	"github.com/mcdev12/eventrelay/go/internal/events"
)

// Publisher sends one outbound message to the broker
type Publisher interface {
	Publish(ctx context.Context, msg events.Message) error
}

// Connectivity reports whether a broker backend currently holds a live connection
type Connectivity interface {
	IsConnected() bool
}

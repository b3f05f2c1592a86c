package broker

import "errors"

var (
	// ErrBrokerConnection is returned when the connection or channel to the broker cannot be set up
	ErrBrokerConnection = errors.New("broker connection failed")

	// ErrPublish is returned when a message could not be handed to the broker
	ErrPublish = errors.New("publish failed")

	// ErrNotConnected is returned when publishing without an open channel
	ErrNotConnected = errors.New("broker not connected")

	// ErrNacked is returned when the broker refuses a published message
	ErrNacked = errors.New("message nacked by broker")
)

package ingest

import (
	"context"
	"sync"

	"github.com/mcdev12/eventrelay/go/internal/events"
)

type fakePublisher struct {
	mu       sync.Mutex
	messages []events.Message
	err      error
}

func (f *fakePublisher) Publish(_ context.Context, msg events.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, msg)
	return nil
}

func (f *fakePublisher) published() []events.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]events.Message(nil), f.messages...)
}

const personBody = `{"person_id":1,"name":"Username","email":"useremail@gmail.com","gender":"M","birth_date":"2000-01-01","address":"Balneário-SC","salary":9990.0,"cpf":"542.952.678-99"}`

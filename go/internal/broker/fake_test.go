package broker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/mcdev12/eventrelay/go/internal/events"
	amqp "github.com/rabbitmq/amqp091-go"
)

type publishedMsg struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type binding struct {
	queue    string
	key      string
	exchange string
}

type fakeChannel struct {
	mu        sync.Mutex
	exchanges map[string]string
	queues    []string
	bindings  []binding
	declErr   error
	confirms  chan amqp.Confirmation
	published []publishedMsg
	err       error
	nack      bool
	hold      bool // withhold the confirm until the next publish
	tag       uint64
	held      []uint64
	closed    bool
}

func newFakeChannel() *fakeChannel {
	return &fakeChannel{confirms: make(chan amqp.Confirmation, 16)}
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.err != nil {
		return f.err
	}
	f.tag++
	f.published = append(f.published, publishedMsg{exchange: exchange, key: key, msg: msg})

	if f.hold {
		f.held = append(f.held, f.tag)
		return nil
	}
	for _, tag := range f.held {
		f.confirms <- amqp.Confirmation{DeliveryTag: tag, Ack: true}
	}
	f.held = nil
	f.confirms <- amqp.Confirmation{DeliveryTag: f.tag, Ack: !f.nack}
	return nil
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.declErr != nil {
		return f.declErr
	}
	if f.exchanges == nil {
		f.exchanges = make(map[string]string)
	}
	f.exchanges[name] = kind
	return nil
}

func (f *fakeChannel) QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queues = append(f.queues, name)
	return amqp.Queue{Name: name}, nil
}

func (f *fakeChannel) QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bindings = append(f.bindings, binding{queue: name, key: key, exchange: exchange})
	return nil
}

func (f *fakeChannel) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeChannel) messages() []publishedMsg {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]publishedMsg(nil), f.published...)
}

type fakeConn struct {
	closed     bool
	closeCalls int
}

func (c *fakeConn) Channel() (*amqp.Channel, error) {
	return nil, errors.New("not supported by fake")
}

func (c *fakeConn) NotifyClose(receiver chan *amqp.Error) chan *amqp.Error {
	return receiver
}

func (c *fakeConn) IsClosed() bool { return c.closed }

func (c *fakeConn) Close() error {
	c.closeCalls++
	c.closed = true
	return nil
}

func newTestManager(ch *fakeChannel) *ConnectionManager {
	return &ConnectionManager{
		cfg:      DefaultConfig(),
		dial:     dialAMQP,
		conn:     &fakeConn{},
		channel:  ch,
		confirms: ch.confirms,
	}
}

type stubPublisher struct {
	err   error
	delay time.Duration
	calls []events.Message
}

func (s *stubPublisher) Publish(ctx context.Context, msg events.Message) error {
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.calls = append(s.calls, msg)
	return s.err
}

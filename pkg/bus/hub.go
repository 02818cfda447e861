// Package bus carries the cross-component notifications the project tree
// consumes and emits, and bridges them to a remote message hub.
package bus

import (
	"io"
	"sync"

	"github.com/sirupsen/logrus"
)

// Message is a single notification on a topic.
type Message struct {
	Topic string
	Data  any
	// Source names the origin of a message that entered through a bridge so
	// it is not echoed back.
	Source string
}

// Handler receives messages for a subscribed topic.
type Handler func(Message)

// Hub is an in-process topic fan-out. Handlers run synchronously on the
// publishing goroutine, in subscription order.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string][]subscription
	nextID int
	logger *logrus.Entry
}

type subscription struct {
	id      int
	handler Handler
}

// NewHub creates an empty hub. A nil logger discards output.
func NewHub(logger *logrus.Entry) *Hub {
	if logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		logger = logrus.NewEntry(l)
	}
	return &Hub{
		subs:   make(map[string][]subscription),
		logger: logger.WithField("component", "bus"),
	}
}

// Subscribe registers a handler for topic and returns a function that removes
// it again.
func (h *Hub) Subscribe(topic string, handler Handler) func() {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	h.subs[topic] = append(h.subs[topic], subscription{id: id, handler: handler})
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { h.unsubscribe(topic, id) })
	}
}

func (h *Hub) unsubscribe(topic string, id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	subs := h.subs[topic]
	for i, s := range subs {
		if s.id == id {
			h.subs[topic] = append(subs[:i:i], subs[i+1:]...)
			break
		}
	}
	if len(h.subs[topic]) == 0 {
		delete(h.subs, topic)
	}
}

// Publish sends data to every subscriber of topic.
func (h *Hub) Publish(topic string, data any) {
	h.Dispatch(Message{Topic: topic, Data: data})
}

// Dispatch delivers a fully formed message.
func (h *Hub) Dispatch(msg Message) {
	h.mu.RLock()
	subs := make([]subscription, len(h.subs[msg.Topic]))
	copy(subs, h.subs[msg.Topic])
	h.mu.RUnlock()

	h.logger.WithFields(logrus.Fields{
		"topic":       msg.Topic,
		"subscribers": len(subs),
	}).Debug("dispatch")

	for _, s := range subs {
		s.handler(msg)
	}
}

// Subscribers returns the number of handlers registered for topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}

// util/event_bus.go

package util

import (
	"context"
	"fmt"
	"reflect"
	"sync"

	"go.uber.org/zap"

	logger "github.com/campusmesh/campus/api/logging"
)

// Event is a record lifecycle notification. Topics follow the
// "<entity>.<change>" convention the services publish under, e.g.
// "institution.created" or "enrollment.deleted", and Payload carries the
// affected record.
type Event struct {
	Topic   string
	Payload interface{}
}

// EventHandler consumes one event. Returned errors are collected and
// logged; they never affect the request that published the event.
type EventHandler func(context.Context, Event) error

// EventBus fans record lifecycle events out to the services subscribed to
// their topic. Delivery is asynchronous: publishers never wait on handlers.
type EventBus struct {
	subscribers map[string][]EventHandler
	mu          sync.RWMutex
	errors      chan error
}

// NewEventBus creates an empty bus. Call Start to begin draining handler
// errors.
func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[string][]EventHandler),
		errors:      make(chan error, 100),
	}
}

// Subscribe registers a handler for a topic. Services subscribe in their
// constructors, before the router starts serving.
func (eb *EventBus) Subscribe(topic string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.subscribers[topic] = append(eb.subscribers[topic], handler)
}

// Publish delivers an event to every handler subscribed to its topic, each
// on its own goroutine.
func (eb *EventBus) Publish(ctx context.Context, topic string, payload interface{}) {
	eb.mu.RLock()
	handlers := eb.subscribers[topic]
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		return
	}

	event := Event{
		Topic:   topic,
		Payload: payload,
	}

	for _, handler := range handlers {
		go func(h EventHandler) {
			if err := h(ctx, event); err != nil {
				select {
				case eb.errors <- fmt.Errorf("handler for %s: %w", topic, err):
				default:
					logger.Error("Event error channel full",
						zap.Error(err),
						zap.String("topic", topic))
				}
			}
		}(handler)
	}
}

// Start drains handler errors until ctx is cancelled.
func (eb *EventBus) Start(ctx context.Context) {
	go func() {
		for {
			select {
			case err := <-eb.errors:
				logger.Error("Event handler failed", zap.Error(err))
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Unsubscribe removes a previously subscribed handler from a topic.
func (eb *EventBus) Unsubscribe(topic string, handler EventHandler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	target := reflect.ValueOf(handler).Pointer()
	handlers := eb.subscribers[topic]
	for i, h := range handlers {
		if reflect.ValueOf(h).Pointer() == target {
			eb.subscribers[topic] = append(handlers[:i], handlers[i+1:]...)
			return
		}
	}
}

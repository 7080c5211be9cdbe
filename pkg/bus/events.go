package bus

import (
	"context"
	"sync"
	"time"
)

type EventType string

const (
	EventClientReady       EventType = "client_ready"
	EventMessageReceived   EventType = "message_received"
	EventMessageDiscarded  EventType = "message_discarded"
	EventServiceLaunched   EventType = "service_launched"
	EventServiceFailed     EventType = "service_failed"
	EventArgsRejected      EventType = "args_rejected"
	EventContractViolation EventType = "contract_violation"
)

// Event is one dispatch lifecycle notification.
type Event struct {
	Type       EventType     `json:"type"`
	At         time.Time     `json:"at"`
	Client     string        `json:"client,omitempty"`
	DispatchID string        `json:"dispatch_id,omitempty"`
	Service    string        `json:"service,omitempty"`
	Condition  string        `json:"condition,omitempty"`
	ChannelID  string        `json:"channel_id,omitempty"`
	Duration   time.Duration `json:"duration,omitempty"`
	Error      string        `json:"error,omitempty"`
}

// EventBus fans lifecycle events out to subscribers without ever blocking
// the publisher.
type EventBus struct {
	subscribers map[uint64]chan Event
	nextID      uint64

	done      chan struct{}
	closeOnce sync.Once

	mu sync.RWMutex
}

func NewEventBus() *EventBus {
	return &EventBus{
		subscribers: make(map[uint64]chan Event),
		done:        make(chan struct{}),
	}
}

func (eb *EventBus) PublishEvent(ctx context.Context, event Event) bool {
	if ctx == nil {
		ctx = context.Background()
	}

	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}

	select {
	case <-ctx.Done():
		return false
	case <-eb.done:
		return false
	default:
	}

	// Sends are non-blocking, so holding the read lock keeps unsubscribe
	// from closing a channel mid-send.
	eb.mu.RLock()
	for _, ch := range eb.subscribers {
		select {
		case ch <- event:
		default:
			// Slow subscribers lose events.
		}
	}
	eb.mu.RUnlock()

	return true
}

func (eb *EventBus) SubscribeEvents(ctx context.Context, buffer int) (<-chan Event, func()) {
	if ctx == nil {
		ctx = context.Background()
	}
	if buffer <= 0 {
		buffer = DefaultBufferSize
	}

	ch := make(chan Event, buffer)

	eb.mu.Lock()
	select {
	case <-eb.done:
		eb.mu.Unlock()
		close(ch)
		return ch, func() {}
	default:
	}

	id := eb.nextID
	eb.nextID++
	eb.subscribers[id] = ch
	eb.mu.Unlock()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			eb.mu.Lock()
			if eventCh, ok := eb.subscribers[id]; ok {
				delete(eb.subscribers, id)
				close(eventCh)
			}
			eb.mu.Unlock()
		})
	}

	go func() {
		select {
		case <-ctx.Done():
			unsubscribe()
		case <-eb.done:
			unsubscribe()
		}
	}()

	return ch, unsubscribe
}

func (eb *EventBus) Close() {
	eb.closeOnce.Do(func() {
		close(eb.done)

		eb.mu.Lock()
		for id, ch := range eb.subscribers {
			close(ch)
			delete(eb.subscribers, id)
		}
		eb.mu.Unlock()
	})
}

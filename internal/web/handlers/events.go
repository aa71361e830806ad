package handlers

import (
	"sync"

	"github.com/kozaktomas/face-attendance/internal/constants"
	"github.com/kozaktomas/face-attendance/internal/tick"
)

// Event types pushed to SSE and websocket subscribers.
const (
	EventTick       = "tick"
	EventLiveness   = "liveness"
	EventEnrolled   = "enrolled"
	EventIdentities = "identities"
	EventAttendance = "attendance"
)

// Event is one message pushed to subscribers.
type Event struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// EventBroadcaster fans events out to every connected listener. Slow
// listeners drop events instead of blocking the tick loop.
type EventBroadcaster struct {
	listeners []chan Event
	mu        sync.RWMutex
}

// NewEventBroadcaster creates a broadcaster with no listeners.
func NewEventBroadcaster() *EventBroadcaster {
	return &EventBroadcaster{}
}

// AddListener adds an event listener.
func (b *EventBroadcaster) AddListener() chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan Event, constants.EventChannelBuffer)
	b.listeners = append(b.listeners, ch)
	return ch
}

// RemoveListener removes an event listener.
func (b *EventBroadcaster) RemoveListener(ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, listener := range b.listeners {
		if listener == ch {
			b.listeners = append(b.listeners[:i], b.listeners[i+1:]...)
			close(ch)
			return
		}
	}
}

// ListenerCount returns the number of connected listeners.
func (b *EventBroadcaster) ListenerCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}

// SendEvent sends an event to all listeners.
func (b *EventBroadcaster) SendEvent(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, listener := range b.listeners {
		select {
		case listener <- event:
		default:
			// Listener buffer full, skip.
		}
	}
}

// PublishTick sends a tick result. It matches tick.Runner's Publish hook.
func (b *EventBroadcaster) PublishTick(res tick.Result) {
	b.SendEvent(Event{Type: EventTick, Data: res})
}

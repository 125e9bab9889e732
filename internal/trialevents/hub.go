package trialevents

import (
	"context"
	"sync"
)

const subscriberBuffer = 64

// SessionHub broadcasts events to the observers of one session
type SessionHub interface {
	BroadcastToSession(sessionID string, event *Event)
}

// Hub keeps in-process subscribers per session. Slow subscribers drop events
// rather than stall the trial.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan *Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan *Event]struct{})}
}

// Subscribe returns a channel of the session's events and a cancel func
// that closes it.
func (h *Hub) Subscribe(sessionID string) (<-chan *Event, func()) {
	ch := make(chan *Event, subscriberBuffer)
	h.mu.Lock()
	if h.subs[sessionID] == nil {
		h.subs[sessionID] = make(map[chan *Event]struct{})
	}
	h.subs[sessionID][ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if set, ok := h.subs[sessionID]; ok {
				if _, ok := set[ch]; ok {
					delete(set, ch)
					close(ch)
				}
				if len(set) == 0 {
					delete(h.subs, sessionID)
				}
			}
		})
	}
}

// BroadcastToSession delivers without blocking
func (h *Hub) BroadcastToSession(sessionID string, event *Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[sessionID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Publish lets the hub act as a Publisher for single-instance deployments
func (h *Hub) Publish(_ context.Context, sessionID string, event *Event) error {
	h.BroadcastToSession(sessionID, event)
	return nil
}

// CloseSession drops every subscriber of a session
func (h *Hub) CloseSession(sessionID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subs[sessionID] {
		close(ch)
	}
	delete(h.subs, sessionID)
}

// Subscribers returns the number of observers of a session
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[sessionID])
}

// Package events is the gateway-side fanout for entity changes. Handlers
// publish after a successful write; websocket watchers subscribed to the
// project receive the change. Slow watchers drop events rather than block
// the writer.
package events

import (
	"sync"
	"time"
)

type Event struct {
	Type      string    `json:"type"`
	ProjectID string    `json:"projectId"`
	Kind      string    `json:"kind,omitempty"`
	EntityID  string    `json:"entityId,omitempty"`
	At        time.Time `json:"at"`
}

const (
	TypeEntityCreated = "entity_created"
	TypeEntityDeleted = "entity_deleted"
	TypeOutputCreated = "output_created"
)

type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[chan Event]struct{})}
}

func (h *Hub) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now()
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs[ev.ProjectID] {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe returns the event feed for one project and a cancel func that
// must be called exactly once.
func (h *Hub) Subscribe(projectID string) (<-chan Event, func()) {
	ch := make(chan Event, 16)
	h.mu.Lock()
	if h.subs[projectID] == nil {
		h.subs[projectID] = make(map[chan Event]struct{})
	}
	h.subs[projectID][ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if set, ok := h.subs[projectID]; ok {
			delete(set, ch)
			if len(set) == 0 {
				delete(h.subs, projectID)
			}
		}
		h.mu.Unlock()
		close(ch)
	}
	return ch, cancel
}

package sse

import (
	"encoding/json"
	"fmt"
	"io"
	"sync"
)

// Event is one message pushed to a stream
type Event struct {
	Name string
	Data any
}

// WriteTo renders the event in text/event-stream framing.
func (e Event) WriteTo(w io.Writer) (int64, error) {
	payload, err := json.Marshal(e.Data)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal event data: %w", err)
	}
	n, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", e.Name, payload)
	return int64(n), err
}

// Subscriber identifies the owner of a stream
type Subscriber struct {
	UserID      string
	WorkspaceID string
	Admin       bool
}

type subscription struct {
	Subscriber
	ch chan Event
}

// Hub fans events out to open streams, by user or to every admin of a workspace
type Hub struct {
	mu     sync.RWMutex
	byUser map[string]map[*subscription]struct{}
	buffer int
	closed bool
}

func NewHub() *Hub {
	return &Hub{
		byUser: make(map[string]map[*subscription]struct{}),
		buffer: 16,
	}
}

// Subscribe registers a stream and returns its channel and the cleanup to call when the client leaves
func (h *Hub) Subscribe(s Subscriber) (<-chan Event, func()) {
	sub := &subscription{Subscriber: s, ch: make(chan Event, h.buffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(sub.ch)
		return sub.ch, func() {}
	}
	if h.byUser[s.UserID] == nil {
		h.byUser[s.UserID] = make(map[*subscription]struct{})
	}
	h.byUser[s.UserID][sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cleanup := func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			// Close may have released it already
			if _, ok := h.byUser[s.UserID][sub]; !ok {
				return
			}
			delete(h.byUser[s.UserID], sub)
			if len(h.byUser[s.UserID]) == 0 {
				delete(h.byUser, s.UserID)
			}
			close(sub.ch)
		})
	}
	return sub.ch, cleanup
}

// Publish sends to every stream of one user. Full buffers drop the event.
func (h *Hub) Publish(userID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.byUser[userID] {
		send(sub, event)
	}
}

// PublishToAdmins sends to every admin stream of a workspace.
func (h *Hub) PublishToAdmins(workspaceID string, event Event) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	delivered := 0
	for _, subs := range h.byUser {
		for sub := range subs {
			if sub.Admin && sub.WorkspaceID == workspaceID {
				if send(sub, event) {
					delivered++
				}
			}
		}
	}
	return delivered
}

func send(sub *subscription, event Event) bool {
	select {
	case sub.ch <- event:
		return true
	default:
		return false
	}
}

func (h *Hub) SubscriberCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}

func (h *Hub) TotalSubscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	total := 0
	for _, subs := range h.byUser {
		total += len(subs)
	}
	return total
}

// Close ends every open stream and refuses new ones. Used on server shutdown.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true
	for userID, subs := range h.byUser {
		for sub := range subs {
			close(sub.ch)
		}
		delete(h.byUser, userID)
	}
}

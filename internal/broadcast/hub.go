// Package broadcast delivers every newly persisted club document to its
// subscribers: local websocket listeners through Hub and remote mirrors
// through Pub/Sub.
package broadcast

import (
	"sync"

	"github.com/mauv0809/courtside/internal/club"
)

// Hub fans club documents out to in-process subscribers. Subscribers only
// ever need the latest document, so a slow reader sees intermediate
// versions dropped rather than blocking the writer.
type Hub struct {
	mu   sync.Mutex
	subs map[string]map[*Subscription]struct{}
}

// Subscription receives documents for one club on C until closed.
type Subscription struct {
	C      <-chan club.Club
	ch     chan club.Club
	clubID string
	hub    *Hub
	once   sync.Once
}

func NewHub() *Hub {
	return &Hub{subs: make(map[string]map[*Subscription]struct{})}
}

// Subscribe registers a listener for clubID.
func (h *Hub) Subscribe(clubID string) *Subscription {
	ch := make(chan club.Club, 1)
	s := &Subscription{C: ch, ch: ch, clubID: clubID, hub: h}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.subs[clubID] == nil {
		h.subs[clubID] = make(map[*Subscription]struct{})
	}
	h.subs[clubID][s] = struct{}{}
	return s
}

// Close unregisters the subscription and closes C. Safe to call twice.
func (s *Subscription) Close() {
	s.once.Do(func() {
		h := s.hub
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.subs[s.clubID], s)
		if len(h.subs[s.clubID]) == 0 {
			delete(h.subs, s.clubID)
		}
		close(s.ch)
	})
}

// Publish hands c to every subscriber of c.ID without blocking.
func (h *Hub) Publish(c club.Club) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for s := range h.subs[c.ID] {
		doc := c.Clone()
		select {
		case s.ch <- doc:
		default:
			// Replace the stale pending document with the newer one.
			select {
			case <-s.ch:
			default:
			}
			s.ch <- doc
		}
	}
}

// Subscribers returns the number of listeners for clubID.
func (h *Hub) Subscribers(clubID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[clubID])
}

// Close ends every subscription. Later subscriptions are unaffected.
func (h *Hub) Close() {
	h.mu.Lock()
	var all []*Subscription
	for _, subs := range h.subs {
		for s := range subs {
			all = append(all, s)
		}
	}
	h.mu.Unlock()
	for _, s := range all {
		s.Close()
	}
}

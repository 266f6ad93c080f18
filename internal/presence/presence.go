// Package presence keeps the in-memory liveness map fed by guest
// heartbeats. It never touches persisted club state.
package presence

import (
	"sort"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
)

// Tracker records the last heartbeat per club and sanitized name.
type Tracker struct {
	clock clockwork.Clock
	mu    sync.RWMutex
	seen  map[string]map[string]time.Time
}

func New(clock clockwork.Clock) *Tracker {
	return &Tracker{
		clock: clock,
		seen:  make(map[string]map[string]time.Time),
	}
}

// Touch marks name as alive now.
func (t *Tracker) Touch(clubID, name string) {
	if name == "" {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.seen[clubID]
	if !ok {
		m = make(map[string]time.Time)
		t.seen[clubID] = m
	}
	m[name] = t.clock.Now()
}

// LastSeen returns the last heartbeat for name, if any.
func (t *Tracker) LastSeen(clubID, name string) (time.Time, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	at, ok := t.seen[clubID][name]
	return at, ok
}

// Stale returns the names in clubID whose last heartbeat is older than
// olderThan, sorted. Names that never sent a heartbeat are not tracked
// and so are never stale.
func (t *Tracker) Stale(clubID string, olderThan time.Duration) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	cutoff := t.clock.Now().Add(-olderThan)
	var names []string
	for name, at := range t.seen[clubID] {
		if at.Before(cutoff) {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Forget drops the records for names.
func (t *Tracker) Forget(clubID string, names ...string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := t.seen[clubID]
	for _, n := range names {
		delete(m, n)
	}
	if len(m) == 0 {
		delete(t.seen, clubID)
	}
}

// ForgetClub drops every record for clubID.
func (t *Tracker) ForgetClub(clubID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.seen, clubID)
}

// Clubs lists the clubs with at least one heartbeat record.
func (t *Tracker) Clubs() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	ids := make([]string, 0, len(t.seen))
	for id := range t.seen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

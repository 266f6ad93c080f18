package inbox

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MockInbox is an in-memory Inbox for testing.
type MockInbox struct {
	mu      sync.Mutex
	entries []Entry
	nextSeq int64

	EnqueueFunc func(clubID, action string, payload []byte, requester string) (string, error)
	PendingFunc func(clubID string, limit int) ([]Entry, error)
	MarkFunc    func(id string, status Status) error
	PruneFunc   func(olderThan time.Duration) (int64, error)

	MarkCalls []struct {
		ID     string
		Status Status
	}
	PruneCalls []time.Duration
}

func NewMock() *MockInbox {
	return &MockInbox{}
}

func (m *MockInbox) Enqueue(ctx context.Context, clubID, action string, payload []byte, requester string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EnqueueFunc != nil {
		return m.EnqueueFunc(clubID, action, payload, requester)
	}
	m.nextSeq++
	id := fmt.Sprintf("req-%d", m.nextSeq)
	m.entries = append(m.entries, Entry{
		Seq:       m.nextSeq,
		ID:        id,
		ClubID:    clubID,
		Action:    action,
		Payload:   payload,
		Requester: requester,
		Status:    StatusPending,
	})
	return id, nil
}

func (m *MockInbox) Pending(ctx context.Context, clubID string, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PendingFunc != nil {
		return m.PendingFunc(clubID, limit)
	}
	var out []Entry
	for _, e := range m.entries {
		if e.ClubID == clubID && e.Status == StatusPending && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *MockInbox) Mark(ctx context.Context, id string, status Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MarkCalls = append(m.MarkCalls, struct {
		ID     string
		Status Status
	}{id, status})
	if m.MarkFunc != nil {
		return m.MarkFunc(id, status)
	}
	for i := range m.entries {
		if m.entries[i].ID == id {
			if m.entries[i].Status == StatusPending {
				m.entries[i].Status = status
				m.entries[i].Payload = []byte(consumedPayload)
			}
			return nil
		}
	}
	return ErrEntryNotFound
}

// Prune drops every consumed entry; the mock keeps no processing times.
func (m *MockInbox) Prune(ctx context.Context, olderThan time.Duration) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.PruneCalls = append(m.PruneCalls, olderThan)
	if m.PruneFunc != nil {
		return m.PruneFunc(olderThan)
	}
	kept := m.entries[:0]
	var n int64
	for _, e := range m.entries {
		if e.Status == StatusPending {
			kept = append(kept, e)
			continue
		}
		n++
	}
	m.entries = kept
	return n, nil
}

func (m *MockInbox) ClubsWithPending(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[string]bool{}
	var out []string
	for _, e := range m.entries {
		if e.Status == StatusPending && !seen[e.ClubID] {
			seen[e.ClubID] = true
			out = append(out, e.ClubID)
		}
	}
	return out, nil
}

// Statuses returns the current status of every entry keyed by id.
func (m *MockInbox) Statuses() map[string]Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Status, len(m.entries))
	for _, e := range m.entries {
		out[e.ID] = e.Status
	}
	return out
}

// Payload returns the stored payload of an entry.
func (m *MockInbox) Payload(id string) ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range m.entries {
		if e.ID == id {
			return e.Payload, true
		}
	}
	return nil, false
}

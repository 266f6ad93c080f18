package club

import (
	"context"
	"sync"
)

// MockStore is an in-memory ClubStore for testing. Behaviour can be
// overridden per method through the XxxFunc spies.
// It is safe for concurrent use.
type MockStore struct {
	mu    sync.Mutex
	clubs map[string]Club

	// Spies for method calls
	CreateFunc  func(c Club) error
	GetFunc     func(id string) (Club, error)
	UpdateFunc  func(c Club, expectedVersion int64) error
	ListIDsFunc func() ([]string, error)

	// Call records
	CreateCalls []Club
	UpdateCalls []struct {
		Club            Club
		ExpectedVersion int64
	}
	DeleteCalls []string
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{clubs: map[string]Club{}}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = nil
	m.UpdateCalls = nil
	m.DeleteCalls = nil
}

// Put seeds a document without recording a call.
func (m *MockStore) Put(c Club) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clubs[c.ID] = c.Clone()
}

func (m *MockStore) Create(ctx context.Context, c Club) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateCalls = append(m.CreateCalls, c)
	if m.CreateFunc != nil {
		return m.CreateFunc(c)
	}
	if _, ok := m.clubs[c.ID]; ok {
		return ErrClubExists
	}
	c.Version = 0
	m.clubs[c.ID] = c.Clone()
	return nil
}

func (m *MockStore) Get(ctx context.Context, id string) (Club, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetFunc != nil {
		return m.GetFunc(id)
	}
	c, ok := m.clubs[id]
	if !ok {
		return Club{}, ErrClubNotFound
	}
	return c.Clone(), nil
}

func (m *MockStore) Update(ctx context.Context, c Club, expectedVersion int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateCalls = append(m.UpdateCalls, struct {
		Club            Club
		ExpectedVersion int64
	}{c, expectedVersion})
	if m.UpdateFunc != nil {
		return m.UpdateFunc(c, expectedVersion)
	}
	current, ok := m.clubs[c.ID]
	if !ok {
		return ErrClubNotFound
	}
	if current.Version != expectedVersion {
		return ErrVersionConflict
	}
	c.Version = expectedVersion + 1
	m.clubs[c.ID] = c.Clone()
	return nil
}

func (m *MockStore) ListIDs(ctx context.Context) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListIDsFunc != nil {
		return m.ListIDsFunc()
	}
	ids := make([]string, 0, len(m.clubs))
	for id := range m.clubs {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, id)
	delete(m.clubs, id)
	return nil
}

package metrics

import "sync"

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	applied             map[string]int
	rejected            map[string]int
	audited             map[string]int
	persistFailures     int
	applyDurations      []float64
	announcementsSent   int
	announcementsFailed int
	evictions           int
	rotations           int
	activeSessions      int
	startupTime         float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		applied:        map[string]int{},
		rejected:       map[string]int{},
		audited:        map[string]int{},
		applyDurations: make([]float64, 0),
	}
}

func (m *Mock) IncRequestsApplied(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applied[action]++
}

func (m *Mock) IncRequestsRejected(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rejected[action]++
}

func (m *Mock) IncRequestsAudited(action string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.audited[action]++
}

func (m *Mock) IncPersistFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.persistFailures++
}

func (m *Mock) ObserveApplyDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.applyDurations = append(m.applyDurations, duration)
}

func (m *Mock) IncAnnouncementsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcementsSent++
}

func (m *Mock) IncAnnouncementsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcementsFailed++
}

func (m *Mock) AddEvictions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.evictions += n
}

func (m *Mock) IncRotations() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rotations++
}

func (m *Mock) SetActiveSessions(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.activeSessions = n
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// Applied returns how many times IncRequestsApplied was called for action.
func (m *Mock) Applied(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.applied[action]
}

// Rejected returns how many times IncRequestsRejected was called for action.
func (m *Mock) Rejected(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rejected[action]
}

// Audited returns how many times IncRequestsAudited was called for action.
func (m *Mock) Audited(action string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.audited[action]
}

// PersistFailures returns the number of times IncPersistFailures was called.
func (m *Mock) PersistFailures() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.persistFailures
}

// AnnouncementsSent returns the number of times IncAnnouncementsSent was called.
func (m *Mock) AnnouncementsSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.announcementsSent
}

// AnnouncementsFailed returns the number of times IncAnnouncementsFailed was called.
func (m *Mock) AnnouncementsFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.announcementsFailed
}

// Evictions returns the total passed to AddEvictions.
func (m *Mock) Evictions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.evictions
}

// Rotations returns the number of times IncRotations was called.
func (m *Mock) Rotations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rotations
}

// ActiveSessions returns the last value passed to SetActiveSessions.
func (m *Mock) ActiveSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.activeSessions
}

// MockStore is an in-memory MetricsStore.
type MockStore struct {
	mu       sync.Mutex
	counters map[string]int
}

func NewMockStore() *MockStore {
	return &MockStore{counters: map[string]int{}}
}

func (m *MockStore) Increment(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key]++
}

func (m *MockStore) Add(key string, n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[key] += n
}

func (m *MockStore) GetAll() (map[string]int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]int, len(m.counters))
	for k, v := range m.counters {
		out[k] = v
	}
	return out, nil
}

package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncRequestsApplied(action string)
	IncRequestsRejected(action string)
	IncRequestsAudited(action string)
	IncPersistFailures()
	ObserveApplyDuration(duration float64)
	IncAnnouncementsSent()
	IncAnnouncementsFailed()
	AddEvictions(n int)
	IncRotations()
	SetActiveSessions(n int)
	SetStartupTime(duration float64)
}

// MetricsStore keeps lifetime counters that survive restarts.
type MetricsStore interface {
	Increment(key string)
	Add(key string, n int)
	GetAll() (map[string]int, error)
}

package metrics

import "github.com/prometheus/client_golang/prometheus"

// Service holds all the Prometheus metrics for the application.
type Service struct {
	RequestsApplied     *prometheus.CounterVec
	RequestsRejected    *prometheus.CounterVec
	RequestsAudited     *prometheus.CounterVec
	PersistFailures     prometheus.Counter
	ApplyDuration       prometheus.Histogram
	AnnouncementsSent   prometheus.Counter
	AnnouncementsFailed prometheus.Counter
	Evictions           prometheus.Counter
	Rotations           prometheus.Counter
	ActiveSessions      prometheus.Gauge
	StartupTimeSeconds  prometheus.Gauge
}

// Keys of the lifetime counters kept by MetricsStore.
const (
	KeyMatchesStarted  = "matches_started"
	KeyMatchesFinished = "matches_finished"
	KeyPlayersJoined   = "players_joined"
	KeyClubsCreated    = "clubs_created"
)

package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		RequestsApplied: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courtside_requests_applied_total",
			Help: "Requests that changed club state, by action.",
		}, []string{"action"}),
		RequestsRejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courtside_requests_rejected_total",
			Help: "Requests rejected without a state change, by action.",
		}, []string{"action"}),
		RequestsAudited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "courtside_requests_audited_total",
			Help: "Requests rejected with an audit line (wrong credentials), by action.",
		}, []string{"action"}),
		PersistFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courtside_persist_failures_total",
			Help: "Club document writes that failed and were rolled back.",
		}),
		ApplyDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "courtside_apply_duration_seconds",
			Help:    "Time to apply and persist one mutation.",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}),
		AnnouncementsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courtside_announcements_sent_total",
			Help: "Narration messages delivered.",
		}),
		AnnouncementsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courtside_announcements_failed_total",
			Help: "Narration messages that failed to send.",
		}),
		Evictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courtside_stale_evictions_total",
			Help: "Players removed from a queue after their heartbeat went stale.",
		}),
		Rotations: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "courtside_top_rotations_total",
			Help: "Times a timed-out top player was moved down one place.",
		}),
		ActiveSessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "courtside_active_sessions",
			Help: "Club sessions currently held in memory.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "courtside_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.RequestsApplied,
		s.RequestsRejected,
		s.RequestsAudited,
		s.PersistFailures,
		s.ApplyDuration,
		s.AnnouncementsSent,
		s.AnnouncementsFailed,
		s.Evictions,
		s.Rotations,
		s.ActiveSessions,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncRequestsApplied(action string) {
	s.RequestsApplied.WithLabelValues(action).Inc()
}

func (s *Service) IncRequestsRejected(action string) {
	s.RequestsRejected.WithLabelValues(action).Inc()
}

func (s *Service) IncRequestsAudited(action string) {
	s.RequestsAudited.WithLabelValues(action).Inc()
}

func (s *Service) IncPersistFailures() {
	s.PersistFailures.Inc()
}

func (s *Service) ObserveApplyDuration(duration float64) {
	s.ApplyDuration.Observe(duration)
}

func (s *Service) IncAnnouncementsSent() {
	s.AnnouncementsSent.Inc()
}

func (s *Service) IncAnnouncementsFailed() {
	s.AnnouncementsFailed.Inc()
}

func (s *Service) AddEvictions(n int) {
	s.Evictions.Add(float64(n))
}

func (s *Service) IncRotations() {
	s.Rotations.Inc()
}

func (s *Service) SetActiveSessions(n int) {
	s.ActiveSessions.Set(float64(n))
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}

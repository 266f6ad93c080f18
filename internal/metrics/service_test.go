package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestServiceCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	s := NewService(reg)

	s.IncRequestsApplied("leave")
	s.IncRequestsApplied("leave")
	s.IncRequestsRejected("start_match")
	s.AddEvictions(3)
	s.SetActiveSessions(2)

	assert.Equal(t, 2.0, testutil.ToFloat64(s.RequestsApplied.WithLabelValues("leave")))
	assert.Equal(t, 1.0, testutil.ToFloat64(s.RequestsRejected.WithLabelValues("start_match")))
	assert.Equal(t, 3.0, testutil.ToFloat64(s.Evictions))
	assert.Equal(t, 2.0, testutil.ToFloat64(s.ActiveSessions))

	rec := httptest.NewRecorder()
	NewMetricsHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `courtside_requests_applied_total{action="leave"} 2`)
}

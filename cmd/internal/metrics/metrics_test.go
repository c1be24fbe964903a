package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Counters(t *testing.T) {
	t.Parallel()

	m := New()
	m.AuthAttempt("pin", "ok")
	m.AuthAttempt("pin", "ok")
	m.AuthAttempt("pin", "wrong_pin")
	m.EntryRecorded(16)
	m.EntryRecorded(4)
	m.StreakConflict()

	require.Equal(t, 2.0, testutil.ToFloat64(m.authAttempts.WithLabelValues("pin", "ok")))
	require.Equal(t, 1.0, testutil.ToFloat64(m.authAttempts.WithLabelValues("pin", "wrong_pin")))
	require.Equal(t, 2.0, testutil.ToFloat64(m.entries))
	require.Equal(t, 20.0, testutil.ToFloat64(m.rounds))
	require.Equal(t, 1.0, testutil.ToFloat64(m.streakConflicts))
}

func TestMetrics_HandlerExposesSeries(t *testing.T) {
	t.Parallel()

	m := New()
	m.ObserveHTTP("POST /chanting/add", 200, 15*time.Millisecond)

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 200, rr.Code)

	body, err := io.ReadAll(rr.Body)
	require.NoError(t, err)
	out := string(body)
	require.True(t, strings.Contains(out, `japa_http_requests_total{code="200",route="POST /chanting/add"} 1`), out)
	require.True(t, strings.Contains(out, "japa_http_request_duration_seconds_bucket"))
	require.True(t, strings.Contains(out, "go_goroutines"))
}

func TestMetrics_NilSafe(t *testing.T) {
	t.Parallel()

	var m *Metrics
	m.AuthAttempt("pin", "ok")
	m.EntryRecorded(1)
	m.StreakConflict()
	m.ObserveHTTP("x", 200, time.Second)
	require.Nil(t, m.Registry())

	rr := httptest.NewRecorder()
	m.Handler().ServeHTTP(rr, httptest.NewRequest("GET", "/metrics", nil))
	require.Equal(t, 404, rr.Code)
}

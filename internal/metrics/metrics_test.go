package metrics

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics(t *testing.T) {
	t.Run("should record turns and tool executions", func(t *testing.T) {
		m := New()

		m.RecordTurn("ok", 2, 150*time.Millisecond)
		m.RecordTurn("error", 1, time.Second)
		m.RecordToolExecution("start_sleep", "ok", 20*time.Millisecond)
		m.SetActiveSessions(3)
		m.RecordSessionCreated()
		m.RecordSessionsEvicted(2)

		assert.Equal(t, float64(1), testutil.ToFloat64(m.TurnsTotal.WithLabelValues("ok")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.TurnsTotal.WithLabelValues("error")))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.ToolExecutionsTotal.WithLabelValues("start_sleep", "ok")))
		assert.Equal(t, float64(3), testutil.ToFloat64(m.SessionsActive))
		assert.Equal(t, float64(1), testutil.ToFloat64(m.SessionsCreated))
		assert.Equal(t, float64(2), testutil.ToFloat64(m.SessionsEvicted))
	})

	t.Run("should be nil-safe", func(t *testing.T) {
		var m *Metrics

		assert.NotPanics(t, func() {
			m.RecordTurn("ok", 1, time.Second)
			m.RecordToolExecution("log_diaper", "error", time.Second)
			m.SetActiveSessions(1)
			m.RecordSessionCreated()
			m.RecordSessionsEvicted(1)
		})
	})

	t.Run("should expose metrics over HTTP", func(t *testing.T) {
		m := New()
		m.RecordTurn("ok", 1, time.Second)

		rec := httptest.NewRecorder()
		req := httptest.NewRequest("GET", "/metrics", nil)
		m.Handler().ServeHTTP(rec, req)

		require.Equal(t, 200, rec.Code)
		assert.Contains(t, rec.Body.String(), "cradle_turns_total")
	})
}

package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitPrometheusMetrics_RegistersAndExposes(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := InitPrometheusMetrics("test", reg)

	m.IncMessages()
	m.IncMessages()
	m.RecordCommand("idle", "ok")
	m.RecordRemoval("removed")
	m.RecordRemoval("failed")
	m.ObserveRemovalRun(2 * time.Second)
	m.IncPersistFailures()
	m.RecordDelivery("sent")
	m.SetTrackedUsers(12)
	m.SetIdleUsers(3)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	for _, want := range []string{
		"test_messages_total",
		"test_commands_total",
		"test_removals_total",
		"test_removal_run_duration_seconds",
		"test_activity_persist_failures_total",
		"test_outbound_messages_total",
		"test_tracked_users",
		"test_idle_users",
	} {
		assert.True(t, names[want], "missing %s", want)
	}

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, "test_messages_total 2"))
	assert.True(t, strings.Contains(body, "test_tracked_users 12"))
	assert.True(t, strings.Contains(body, `test_removals_total{status="removed"} 1`))
}

func TestPrometheusMetrics_NilSafe(t *testing.T) {
	var m *PrometheusMetrics
	assert.NotPanics(t, func() {
		m.IncMessages()
		m.RecordCommand("help", "ok")
		m.RecordRemoval("removed")
		m.ObserveRemovalRun(time.Second)
		m.IncPersistFailures()
		m.RecordDelivery("failed")
		m.SetTrackedUsers(1)
		m.SetIdleUsers(1)
	})
}

func TestInitPrometheusMetrics_NilRegistry(t *testing.T) {
	assert.NotPanics(t, func() {
		InitPrometheusMetrics(Namespace, nil)
		InitPrometheusMetrics(Namespace, nil)
	})
}

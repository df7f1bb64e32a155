package observability

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordToolDispatch(t *testing.T) {
	m := getMetrics()
	before := testutil.ToFloat64(m.toolErrorsTotal.WithLabelValues("metrics_test_tool"))

	RecordToolDispatch("metrics_test_tool", 10*time.Millisecond, true)
	RecordToolDispatch("metrics_test_tool", 10*time.Millisecond, false)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.toolDispatchTotal.WithLabelValues("metrics_test_tool", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.toolDispatchTotal.WithLabelValues("metrics_test_tool", "error")))
	assert.Equal(t, before+1, testutil.ToFloat64(m.toolErrorsTotal.WithLabelValues("metrics_test_tool")))
}

func TestRecordModelCallAndTokens(t *testing.T) {
	m := getMetrics()

	RecordModelCall("metrics_test", "planning", time.Second, false)
	RecordTokens("metrics_test", 12, 0)

	assert.Equal(t, float64(1), testutil.ToFloat64(m.modelCallTotal.WithLabelValues("metrics_test", "planning", "error")))
	assert.Equal(t, float64(12), testutil.ToFloat64(m.modelTokensTotal.WithLabelValues("metrics_test", "input")))
	assert.Equal(t, float64(0), testutil.ToFloat64(m.modelTokensTotal.WithLabelValues("metrics_test", "output")))
}

func TestRecordExecutionTruncated(t *testing.T) {
	m := getMetrics()
	before := testutil.ToFloat64(m.executionTruncated)

	RecordExecution(3, false)
	RecordExecution(10, true)

	assert.Equal(t, before+1, testutil.ToFloat64(m.executionTruncated))
}

func TestMetricsHandler(t *testing.T) {
	RecordRun(time.Second, true)
	RecordSchemaFetch(false)

	rec := httptest.NewRecorder()
	MetricsHandler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), "mcpilot_runs_total")
	assert.Contains(t, string(body), "mcpilot_schema_fetch_total")
}

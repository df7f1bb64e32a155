package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type moduleMetrics struct {
	modelCallTotal    *prometheus.CounterVec
	modelCallDuration *prometheus.HistogramVec
	modelTokensTotal  *prometheus.CounterVec

	toolDispatchTotal    *prometheus.CounterVec
	toolDispatchDuration *prometheus.HistogramVec
	toolErrorsTotal      *prometheus.CounterVec

	runTotal            *prometheus.CounterVec
	runDuration         prometheus.Histogram
	executionIterations prometheus.Histogram
	executionTruncated  prometheus.Counter
	schemaFetchTotal    *prometheus.CounterVec
}

var (
	metricsOnce sync.Once
	metricsInst *moduleMetrics
)

func getMetrics() *moduleMetrics {
	metricsOnce.Do(func() {
		m := &moduleMetrics{
			modelCallTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mcpilot_model_calls_total",
					Help: "Total model calls by provider, phase and status.",
				},
				[]string{"provider", "phase", "status"},
			),
			modelCallDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "mcpilot_model_call_duration_seconds",
					Help:    "Model call duration in seconds by provider and phase.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"provider", "phase"},
			),
			modelTokensTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mcpilot_model_tokens_total",
					Help: "Tokens consumed by provider and direction (input, output).",
				},
				[]string{"provider", "direction"},
			),
			toolDispatchTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mcpilot_tool_dispatch_total",
					Help: "Total tool dispatches by tool and status.",
				},
				[]string{"tool", "status"},
			),
			toolDispatchDuration: prometheus.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "mcpilot_tool_dispatch_duration_seconds",
					Help:    "Tool dispatch duration in seconds by tool.",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"tool"},
			),
			toolErrorsTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mcpilot_tool_errors_total",
					Help: "Total tool results flagged as errors by tool.",
				},
				[]string{"tool"},
			),
			runTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mcpilot_runs_total",
					Help: "Total orchestrated requests by status.",
				},
				[]string{"status"},
			),
			runDuration: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "mcpilot_run_duration_seconds",
					Help:    "End-to-end request duration in seconds.",
					Buckets: prometheus.ExponentialBuckets(0.5, 2, 10),
				},
			),
			executionIterations: prometheus.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "mcpilot_execution_iterations",
					Help:    "Model calls made by the execution loop per request.",
					Buckets: prometheus.LinearBuckets(1, 1, 10),
				},
			),
			executionTruncated: prometheus.NewCounter(
				prometheus.CounterOpts{
					Name: "mcpilot_execution_truncated_total",
					Help: "Execution loops stopped by the iteration bound.",
				},
			),
			schemaFetchTotal: prometheus.NewCounterVec(
				prometheus.CounterOpts{
					Name: "mcpilot_schema_fetch_total",
					Help: "Schema resource reads by status.",
				},
				[]string{"status"},
			),
		}

		prometheus.MustRegister(
			m.modelCallTotal,
			m.modelCallDuration,
			m.modelTokensTotal,
			m.toolDispatchTotal,
			m.toolDispatchDuration,
			m.toolErrorsTotal,
			m.runTotal,
			m.runDuration,
			m.executionIterations,
			m.executionTruncated,
			m.schemaFetchTotal,
		)

		metricsInst = m
	})

	return metricsInst
}

// EnsureRegistered initializes and registers metrics the first time it is called.
func EnsureRegistered() {
	_ = getMetrics()
}

func MetricsHandler() http.Handler {
	EnsureRegistered()
	return promhttp.Handler()
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "error"
}

func RecordModelCall(provider, phase string, duration time.Duration, success bool) {
	m := getMetrics()
	m.modelCallTotal.WithLabelValues(provider, phase, status(success)).Inc()
	m.modelCallDuration.WithLabelValues(provider, phase).Observe(duration.Seconds())
}

func RecordTokens(provider string, input, output int) {
	m := getMetrics()
	if input > 0 {
		m.modelTokensTotal.WithLabelValues(provider, "input").Add(float64(input))
	}
	if output > 0 {
		m.modelTokensTotal.WithLabelValues(provider, "output").Add(float64(output))
	}
}

func RecordToolDispatch(tool string, duration time.Duration, success bool) {
	m := getMetrics()
	m.toolDispatchTotal.WithLabelValues(tool, status(success)).Inc()
	m.toolDispatchDuration.WithLabelValues(tool).Observe(duration.Seconds())
	if !success {
		m.toolErrorsTotal.WithLabelValues(tool).Inc()
	}
}

func RecordRun(duration time.Duration, success bool) {
	m := getMetrics()
	m.runTotal.WithLabelValues(status(success)).Inc()
	m.runDuration.Observe(duration.Seconds())
}

func RecordExecution(iterations int, truncated bool) {
	m := getMetrics()
	m.executionIterations.Observe(float64(iterations))
	if truncated {
		m.executionTruncated.Inc()
	}
}

func RecordSchemaFetch(success bool) {
	getMetrics().schemaFetchTotal.WithLabelValues(status(success)).Inc()
}

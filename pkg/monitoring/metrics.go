// Package monitoring exposes Prometheus metrics and a passive provider
// health report for routemodel.
package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/NERVsystems/routemodel/pkg/version"
)

// Namespace prefixes every routemodel metric
const Namespace = "routemodel"

// Outcome label values
const (
	outcomeOK     = "success"
	outcomeFailed = "error"
)

var (
	// PlansTotal counts plans by the stage they ended at ("complete" on success).
	PlansTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "plans_total",
		Help:      "Itinerary plans by final stage and outcome",
	}, []string{"stage", "status"})

	PlanDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "plan_duration_seconds",
		Help:      "Time from validation to parsed itinerary",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
	}, []string{"status"})

	ItineraryRows = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "itinerary_rows",
		Help:      "Maneuver rows per successfully parsed itinerary",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 10),
	})

	// ProviderRequestsTotal counts Routes API round trips.
	ProviderRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "provider",
		Name:      "requests_total",
		Help:      "Route provider requests by outcome",
	}, []string{"provider", "operation", "status"})

	ProviderRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "provider",
		Name:      "request_duration_seconds",
		Help:      "Route provider round trip latency",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"provider", "operation"})

	// ProviderFailuresTotal breaks provider failures down by error code.
	ProviderFailuresTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "provider",
		Name:      "failures_total",
		Help:      "Failed plans that reached the provider, by error kind and code",
	}, []string{"provider", "kind", "code"})

	ToolCallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "mcp",
		Name:      "tool_calls_total",
		Help:      "MCP tool calls by tool and outcome",
	}, []string{"tool", "status"})

	ToolCallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "mcp",
		Name:      "tool_call_duration_seconds",
		Help:      "MCP tool call latency",
		Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"tool"})

	// HTTPRequestsTotal counts requests on the HTTP transport by endpoint.
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP transport requests by endpoint and status code",
	}, []string{"endpoint", "code"})

	ErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "errors_total",
		Help:      "Errors by reporting component and kind",
	}, []string{"component", "kind"})

	// BuildInfo is a constant 1 labelled with the running build.
	BuildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build metadata of the running binary",
	}, []string{"version", "go_version", "commit", "build_date"})
)

func init() {
	info := version.Info()
	BuildInfo.WithLabelValues(info["version"], info["go_version"], info["commit"], info["build_date"]).Set(1)
}

func outcome(success bool) string {
	if success {
		return outcomeOK
	}
	return outcomeFailed
}

// RecordPlan records one plan. An empty stage means the plan completed.
func RecordPlan(stage string, duration time.Duration, rows int, success bool) {
	if stage == "" {
		stage = "complete"
	}
	PlansTotal.WithLabelValues(stage, outcome(success)).Inc()
	PlanDuration.WithLabelValues(outcome(success)).Observe(duration.Seconds())
	if success {
		ItineraryRows.Observe(float64(rows))
	}
}

// RecordProviderRequest records one provider round trip
func RecordProviderRequest(provider, operation string, duration time.Duration, success bool) {
	ProviderRequestsTotal.WithLabelValues(provider, operation, outcome(success)).Inc()
	ProviderRequestDuration.WithLabelValues(provider, operation).Observe(duration.Seconds())
}

// RecordToolCall records one MCP tool invocation
func RecordToolCall(tool string, duration time.Duration, success bool) {
	ToolCallsTotal.WithLabelValues(tool, outcome(success)).Inc()
	ToolCallDuration.WithLabelValues(tool).Observe(duration.Seconds())
}

// RecordHTTPRequest records one request served by the HTTP transport
func RecordHTTPRequest(endpoint string, status int) {
	HTTPRequestsTotal.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
}

// RecordError counts an error of the given kind reported by component
func RecordError(component, kind string) {
	ErrorsTotal.WithLabelValues(component, kind).Inc()
}

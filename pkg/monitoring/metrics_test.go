package monitoring

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/NERVsystems/routemodel/pkg/version"
)

func TestRecordPlan(t *testing.T) {
	PlansTotal.Reset()
	PlanDuration.Reset()

	RecordPlan("", 250*time.Millisecond, 4, true)
	RecordPlan("fetch", 100*time.Millisecond, 0, false)
	RecordPlan("fetch", 100*time.Millisecond, 0, false)

	if got := testutil.ToFloat64(PlansTotal.WithLabelValues("complete", "success")); got != 1 {
		t.Errorf("Expected 1 completed plan, got %v", got)
	}
	if got := testutil.ToFloat64(PlansTotal.WithLabelValues("fetch", "error")); got != 2 {
		t.Errorf("Expected 2 plans failed at fetch, got %v", got)
	}
	if got := testutil.CollectAndCount(PlanDuration); got != 2 {
		t.Errorf("Expected 2 plan duration series, got %d", got)
	}
}

func TestRecordProviderRequest(t *testing.T) {
	ProviderRequestsTotal.Reset()
	ProviderRequestDuration.Reset()

	RecordProviderRequest("bing", "routes", 500*time.Millisecond, true)
	RecordProviderRequest("bing", "routes", time.Second, false)

	if got := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("bing", "routes", "success")); got != 1 {
		t.Errorf("Expected 1 successful request, got %v", got)
	}
	if got := testutil.ToFloat64(ProviderRequestsTotal.WithLabelValues("bing", "routes", "error")); got != 1 {
		t.Errorf("Expected 1 failed request, got %v", got)
	}
	if got := testutil.CollectAndCount(ProviderRequestDuration); got != 1 {
		t.Errorf("Expected 1 duration series, got %d", got)
	}
}

func TestRecordToolCall(t *testing.T) {
	ToolCallsTotal.Reset()

	RecordToolCall("get_itinerary", 100*time.Millisecond, true)
	RecordToolCall("get_itinerary", 200*time.Millisecond, false)

	if got := testutil.ToFloat64(ToolCallsTotal.WithLabelValues("get_itinerary", "success")); got != 1 {
		t.Errorf("Expected 1 successful call, got %v", got)
	}
	if got := testutil.ToFloat64(ToolCallsTotal.WithLabelValues("get_itinerary", "error")); got != 1 {
		t.Errorf("Expected 1 failed call, got %v", got)
	}
}

func TestRecordHTTPRequest(t *testing.T) {
	HTTPRequestsTotal.Reset()

	RecordHTTPRequest("message", 202)
	RecordHTTPRequest("message", 202)
	RecordHTTPRequest("health", 503)

	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("message", "202")); got != 2 {
		t.Errorf("Expected 2 message requests, got %v", got)
	}
	if got := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("health", "503")); got != 1 {
		t.Errorf("Expected 1 unhealthy health request, got %v", got)
	}
}

func TestRecordError(t *testing.T) {
	ErrorsTotal.Reset()

	RecordError("planner", "parse")
	RecordError("planner", "parse")
	RecordError("bing", "request")

	if got := testutil.ToFloat64(ErrorsTotal.WithLabelValues("planner", "parse")); got != 2 {
		t.Errorf("Expected 2 parse errors, got %v", got)
	}
	if got := testutil.ToFloat64(ErrorsTotal.WithLabelValues("bing", "request")); got != 1 {
		t.Errorf("Expected 1 request error, got %v", got)
	}
}

func TestBuildInfo(t *testing.T) {
	expected := `
# HELP routemodel_build_info Build metadata of the running binary
# TYPE routemodel_build_info gauge
`
	info := version.Info()
	expected += `routemodel_build_info{build_date="` + info["build_date"] + `",commit="` + info["commit"] +
		`",go_version="` + info["go_version"] + `",version="` + info["version"] + `"} 1
`
	if err := testutil.CollectAndCompare(BuildInfo, strings.NewReader(expected)); err != nil {
		t.Error(err)
	}
}

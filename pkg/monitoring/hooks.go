package monitoring

import (
	"time"

	"github.com/NERVsystems/routemodel/pkg/bing"
	"github.com/NERVsystems/routemodel/pkg/core"
)

// FetchHooks returns bing client hooks that feed the provider metrics
func FetchHooks() *bing.MonitoringHooks {
	return &bing.MonitoringHooks{
		OnResponse: func(provider, operation string, duration time.Duration, success bool) {
			RecordProviderRequest(provider, operation, duration, success)
		},
		OnError: func(provider, kind string) {
			RecordError(provider, kind)
		},
	}
}

// PlanObserver returns a planner observer that records plan metrics and,
// when hc is non-nil, reports fetch and parse outcomes for provider to it.
// Validation failures never reach the provider and cancelled plans say
// nothing about it, so neither touches health or provider failures.
func PlanObserver(hc *HealthChecker, provider string) func(stage string, d time.Duration, rows int, err error) {
	return func(stage string, d time.Duration, rows int, err error) {
		RecordPlan(stage, d, rows, err == nil)
		if err != nil {
			RecordError("planner", core.KindOf(err).String())
		}

		if stage == "validate" || core.IsCancelled(err) {
			return
		}
		if err != nil {
			ProviderFailuresTotal.WithLabelValues(provider, core.KindOf(err).String(), errorCode(err)).Inc()
		}
		if hc != nil {
			hc.ObserveFetch(provider, d, err)
		}
	}
}

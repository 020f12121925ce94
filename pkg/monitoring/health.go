package monitoring

import (
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/NERVsystems/routemodel/pkg/core"
	"github.com/NERVsystems/routemodel/pkg/version"
)

// Provider and overall health states
const (
	StatusOK        = "ok"
	StatusDegraded  = "degraded"
	StatusFailing   = "failing"
	StatusUnhealthy = "unhealthy"
	StatusHealthy   = "healthy"
)

// ProviderStatus summarises what routemodel has seen from one route provider.
type ProviderStatus struct {
	Status     string           `json:"status"`
	LastCode   string           `json:"last_code,omitempty"`
	LastError  string           `json:"last_error,omitempty"`
	LatencyMS  int64            `json:"latency_ms"`
	Successes  int64            `json:"successes"`
	Failures   map[string]int64 `json:"failures,omitempty"`
	ObservedAt time.Time        `json:"observed_at"`
}

// Report is the body served on /health.
type Report struct {
	Service       string                    `json:"service"`
	Version       string                    `json:"version"`
	Status        string                    `json:"status"`
	UptimeSeconds int64                     `json:"uptime_seconds"`
	Providers     map[string]ProviderStatus `json:"providers"`
	Runtime       map[string]any            `json:"runtime"`
}

// HealthChecker derives provider health from real plan outcomes. It never
// calls the provider itself, so it costs no API quota.
type HealthChecker struct {
	service   string
	version   string
	started   time.Time
	mu        sync.RWMutex
	providers map[string]*ProviderStatus
}

// NewHealthChecker creates a checker reporting as service at version
func NewHealthChecker(service, version string) *HealthChecker {
	return &HealthChecker{
		service:   service,
		version:   version,
		started:   time.Now(),
		providers: make(map[string]*ProviderStatus),
	}
}

// ObserveFetch folds one provider outcome into its status. A request error
// marks the provider failing. A parse error marks it degraded since the
// provider answered, just not with a usable route.
func (h *HealthChecker) ObserveFetch(provider string, latency time.Duration, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	ps, ok := h.providers[provider]
	if !ok {
		ps = &ProviderStatus{Failures: map[string]int64{}}
		h.providers[provider] = ps
	}
	ps.LatencyMS = latency.Milliseconds()
	ps.ObservedAt = time.Now()

	if err == nil {
		ps.Status = StatusOK
		ps.LastCode = ""
		ps.LastError = ""
		ps.Successes++
		return
	}

	code := errorCode(err)
	ps.LastCode = code
	ps.LastError = err.Error()
	ps.Failures[code]++
	if core.IsParseError(err) {
		ps.Status = StatusDegraded
	} else {
		ps.Status = StatusFailing
	}
}

func errorCode(err error) string {
	var re *core.RouteError
	if errors.As(err, &re) {
		return re.Code
	}
	return string(core.ErrInternalError)
}

// Report snapshots the current health. The service is unhealthy when more
// than half of the known providers are failing.
func (h *HealthChecker) Report() Report {
	h.mu.RLock()
	defer h.mu.RUnlock()

	providers := make(map[string]ProviderStatus, len(h.providers))
	failing, degraded := 0, 0
	for name, ps := range h.providers {
		cp := *ps
		cp.Failures = make(map[string]int64, len(ps.Failures))
		for code, n := range ps.Failures {
			cp.Failures[code] = n
		}
		providers[name] = cp

		switch ps.Status {
		case StatusFailing:
			failing++
		case StatusDegraded:
			degraded++
		}
	}

	status := StatusHealthy
	switch {
	case failing > len(h.providers)/2:
		status = StatusUnhealthy
	case failing > 0 || degraded > 0:
		status = StatusDegraded
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Report{
		Service:       h.service,
		Version:       h.version,
		Status:        status,
		UptimeSeconds: int64(time.Since(h.started).Seconds()),
		Providers:     providers,
		Runtime: map[string]any{
			"goroutines":    runtime.NumGoroutine(),
			"heap_alloc_mb": mem.HeapAlloc >> 20,
			"build":         version.Info(),
		},
	}
}

// HealthHandler serves the Report, with 503 while unhealthy.
func (h *HealthChecker) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := h.Report()
		code := http.StatusOK
		if report.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, report)
	}
}

// LivenessHandler answers as long as the process can serve HTTP
func (h *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{
			"alive":  true,
			"uptime": time.Since(h.started).Round(time.Second).String(),
		})
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

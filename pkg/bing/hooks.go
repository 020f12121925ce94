package bing

import "time"

// MonitoringHooks receive fetch outcomes. Any field may be nil.
type MonitoringHooks struct {
	// OnRequest is called before the HTTP request is sent
	OnRequest func(service, operation string)

	// OnResponse is called once the request finishes or fails
	OnResponse func(service, operation string, duration time.Duration, success bool)

	// OnError is called with the failure kind ("request" or "parse")
	OnError func(service, errorType string)
}

func (h *MonitoringHooks) request(operation string) {
	if h != nil && h.OnRequest != nil {
		h.OnRequest(ServiceName, operation)
	}
}

func (h *MonitoringHooks) response(operation string, d time.Duration, success bool) {
	if h != nil && h.OnResponse != nil {
		h.OnResponse(ServiceName, operation, d, success)
	}
}

func (h *MonitoringHooks) failure(errorType string) {
	if h != nil && h.OnError != nil {
		h.OnError(ServiceName, errorType)
	}
}

package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/NERVsystems/routemodel/pkg/monitoring"
	"github.com/NERVsystems/routemodel/pkg/tracing"
)

func TestInstrument(t *testing.T) {
	ctx := context.Background()
	shutdown, err := tracing.Setup(ctx, tracing.Config{})
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}
	defer shutdown(ctx)
	monitoring.HTTPRequestsTotal.Reset()

	classify := func(r *http.Request) string { return strings.TrimPrefix(r.URL.Path, "/") }

	tests := []struct {
		name      string
		target    string
		requestID string
		status    int
	}{
		{"message with session", "/message?sessionId=abc", "", http.StatusAccepted},
		{"caller request id", "/health", "req-123", http.StatusOK},
		{"server error", "/message", "", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := instrument(quietLogger(), classify)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = RequestID(r.Context())
				w.WriteHeader(tt.status)
			}))

			req := httptest.NewRequest(http.MethodPost, tt.target, nil)
			if tt.requestID != "" {
				req.Header.Set("X-Request-ID", tt.requestID)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			if rec.Code != tt.status {
				t.Errorf("status = %d, want %d", rec.Code, tt.status)
			}
			if seen == "" || rec.Header().Get("X-Request-ID") != seen {
				t.Errorf("request id %q not echoed (header %q)", seen, rec.Header().Get("X-Request-ID"))
			}
			if tt.requestID != "" && seen != tt.requestID {
				t.Errorf("request id = %q, want %q", seen, tt.requestID)
			}
		})
	}

	if got := testutil.ToFloat64(monitoring.HTTPRequestsTotal.WithLabelValues("message", "202")); got != 1 {
		t.Errorf("message 202 count = %v, want 1", got)
	}
	if got := testutil.ToFloat64(monitoring.HTTPRequestsTotal.WithLabelValues("message", "500")); got != 1 {
		t.Errorf("message 500 count = %v, want 1", got)
	}
}

func TestStatusRecorder(t *testing.T) {
	rec := httptest.NewRecorder()
	sr := &statusRecorder{ResponseWriter: rec, status: http.StatusOK}

	sr.Write([]byte("event: endpoint\n"))
	sr.WriteHeader(http.StatusTeapot)
	sr.Flush()

	if sr.status != http.StatusOK {
		t.Errorf("status = %d, want implicit 200 to stick", sr.status)
	}
	if sr.bytes != int64(len("event: endpoint\n")) {
		t.Errorf("bytes = %d", sr.bytes)
	}
	if !rec.Flushed {
		t.Error("Flush not forwarded")
	}
	if sr.Unwrap() != rec {
		t.Error("Unwrap does not return the underlying writer")
	}
}

func TestLimitBody(t *testing.T) {
	handler := limitBody(8)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := io.ReadAll(r.Body); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/message", strings.NewReader("short")))
	if rec.Code != http.StatusOK {
		t.Errorf("small body status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/message", strings.NewReader(`{"jsonrpc":"2.0"}`)))
	if rec.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("large body status = %d, want 413", rec.Code)
	}
}

func TestAPIHeaders(t *testing.T) {
	handler := apiHeaders(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("Cache-Control"); got != "no-store" {
		t.Errorf("Cache-Control = %q", got)
	}
}

func TestChainOrder(t *testing.T) {
	var order []string
	mark := func(name string) middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	h := chain(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mark("first"), mark("second"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	if got := strings.Join(order, ","); got != "first,second,handler" {
		t.Errorf("order = %s", got)
	}
}

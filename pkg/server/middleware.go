package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/routemodel/pkg/monitoring"
	"github.com/NERVsystems/routemodel/pkg/tracing"
)

type middleware func(http.Handler) http.Handler

type ctxKey int

const requestIDKey ctxKey = iota

// RequestID returns the ID instrument assigned to the request, if any
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// chain applies mws so that the first one sees the request first
func chain(h http.Handler, mws ...middleware) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

// limitBody caps the size of JSON-RPC message bodies
func limitBody(maxBytes int64) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

// apiHeaders keeps itinerary responses out of shared caches
func apiHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

// instrument gives each request an ID and a server span, then logs it and
// counts it under the endpoint label returned by classify.
func instrument(logger *slog.Logger, classify func(*http.Request) string) middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			endpoint := classify(r)
			session := r.URL.Query().Get("sessionId")

			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
			}
			w.Header().Set("X-Request-ID", id)

			ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
			ctx, span := tracing.StartSpan(ctx, "http "+endpoint,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					semconv.HTTPRequestMethodKey.String(r.Method),
					semconv.URLPath(r.URL.Path),
					semconv.HTTPRoute(endpoint),
				),
			)
			defer span.End()
			if session != "" {
				span.SetAttributes(attribute.String(tracing.AttrMCPSessionID, session))
			}

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(context.WithValue(ctx, requestIDKey, id)))

			span.SetAttributes(
				semconv.HTTPResponseStatusCode(rec.status),
				semconv.HTTPResponseBodySize(int(rec.bytes)),
			)
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}
			monitoring.RecordHTTPRequest(endpoint, rec.status)

			level := slog.LevelInfo
			if endpoint == "health" || endpoint == "live" || endpoint == "metrics" {
				level = slog.LevelDebug
			}
			logger.Log(ctx, level, "http request",
				"request_id", id,
				"endpoint", endpoint,
				"method", r.Method,
				"session", session,
				"status", rec.status,
				"bytes", rec.bytes,
				"elapsed", time.Since(start),
			)
		})
	}
}

// statusRecorder remembers the status and size of a response. It forwards
// Flush so SSE events are not buffered.
type statusRecorder struct {
	http.ResponseWriter
	status      int
	bytes       int64
	wroteHeader bool
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.wroteHeader {
		return
	}
	s.status = code
	s.wroteHeader = true
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if !s.wroteHeader {
		s.WriteHeader(http.StatusOK)
	}
	n, err := s.ResponseWriter.Write(b)
	s.bytes += int64(n)
	return n, err
}

func (s *statusRecorder) Flush() {
	if f, ok := s.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap lets http.ResponseController reach the underlying writer
func (s *statusRecorder) Unwrap() http.ResponseWriter {
	return s.ResponseWriter
}

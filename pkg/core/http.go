package core

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/routemodel/pkg/tracing"
)

// DefaultTimeout bounds a single provider request when the caller sets none.
const DefaultTimeout = 30 * time.Second

// maxErrorBody caps how much of a failed response body is kept as error detail.
const maxErrorBody = 64 << 10

// NewHTTPClient returns a client with pooled connections and the given timeout.
// A non-positive timeout falls back to DefaultTimeout.
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// DetailFunc extracts a human-readable error detail from a failed response body.
type DetailFunc func(body []byte) string

// RequestOptions configures a single outbound request
type RequestOptions struct {
	// Service names the provider in errors, logs and spans
	Service string

	// Client is the HTTP client to use; nil means a client with DefaultTimeout
	Client *http.Client

	// Detail extracts provider error detail; nil keeps the raw body text
	Detail DetailFunc

	// Redact lists query parameters whose values are masked in logs and spans
	Redact []string
}

// Do performs exactly one HTTP request. A 2xx response is returned to the
// caller, who must close its body. Transport failures and non-2xx statuses
// are returned as request errors and the response body is consumed.
func Do(ctx context.Context, req *http.Request, opts RequestOptions) (*http.Response, error) {
	client := opts.Client
	if client == nil {
		client = NewHTTPClient(DefaultTimeout)
	}
	service := opts.Service
	if service == "" {
		service = req.URL.Host
	}
	safeURL := RedactURL(req.URL, opts.Redact...)

	spanName := fmt.Sprintf("http.request %s %s", req.Method, req.URL.Host)
	ctx, span := tracing.StartSpan(ctx, spanName,
		trace.WithAttributes(
			semconv.HTTPRequestMethodKey.String(req.Method),
			semconv.URLFull(safeURL),
			semconv.ServerAddress(req.URL.Hostname()),
			attribute.String(tracing.AttrProvider, service),
		),
	)
	defer span.End()

	logger := slog.Default().With(
		"service", service,
		"method", req.Method,
		"url", safeURL,
	)

	start := time.Now()
	resp, err := client.Do(req.WithContext(ctx))
	if err != nil {
		// url.Error embeds the full request URL, key included.
		var ue *url.Error
		if errors.As(err, &ue) {
			ue.URL = safeURL
		}
		logger.Error("request failed", "error", err, "elapsed", time.Since(start))
		span.RecordError(err)
		span.SetStatus(codes.Error, "request failed")
		return nil, transportError(service, err)
	}

	span.SetAttributes(
		semconv.HTTPResponseStatusCode(resp.StatusCode),
		attribute.String("http.response.content_type", resp.Header.Get("Content-Type")),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))

		detail := strings.TrimSpace(string(body))
		if opts.Detail != nil {
			if d := opts.Detail(body); d != "" {
				detail = d
			}
		}

		logger.Error("request returned error status",
			"status", resp.StatusCode,
			"detail", detail,
			"elapsed", time.Since(start),
		)
		svcErr := ServiceError(service, resp.StatusCode, detail)
		span.RecordError(svcErr)
		span.SetStatus(codes.Error, fmt.Sprintf("HTTP status %d", resp.StatusCode))
		return nil, svcErr
	}

	span.SetStatus(codes.Ok, "")
	logger.Debug("request successful",
		"status", resp.StatusCode,
		"content_length", resp.ContentLength,
		"elapsed", time.Since(start),
	)
	return resp, nil
}

// transportError classifies a failed round trip. Cancellation is kept apart
// from timeouts so callers can tell an abandoned request from a slow provider.
func transportError(service string, err error) *RouteError {
	switch {
	case errors.Is(err, context.Canceled):
		return NewError(KindRequest, ErrRequestCancelled, fmt.Sprintf("%s request cancelled", service)).
			WithCause(err).
			WithDetail(err.Error())
	case errors.Is(err, context.DeadlineExceeded) || os.IsTimeout(err):
		return NewError(KindRequest, ErrServiceTimeout, fmt.Sprintf("%s request timed out", service)).
			WithCause(err).
			WithDetail(err.Error()).
			WithGuidance("The request timed out. Try a route with fewer waypoints.")
	default:
		return NetworkError(service, err)
	}
}

// RedactURL renders u with the values of the named query parameters masked.
func RedactURL(u *url.URL, params ...string) string {
	if u == nil {
		return ""
	}
	if len(params) == 0 || u.RawQuery == "" {
		return u.String()
	}

	parts := strings.Split(u.RawQuery, "&")
	for i, part := range parts {
		name, _, found := strings.Cut(part, "=")
		if !found {
			continue
		}
		for _, p := range params {
			if name == p {
				parts[i] = name + "=REDACTED"
				break
			}
		}
	}

	redacted := *u
	redacted.RawQuery = strings.Join(parts, "&")
	return redacted.String()
}

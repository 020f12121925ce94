// Package bing is a client for the Bing Maps REST Routes API. It builds the
// positional waypoint query, fetches a route, and flattens the response into
// an itinerary table.
package bing

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/NERVsystems/routemodel/pkg/core"
)

const (
	// DefaultBaseURL is the Bing Maps REST v1 root
	DefaultBaseURL = "https://dev.virtualearth.net/REST/v1/"

	// DefaultRouteAttributes requests the route geometry alongside the itinerary
	DefaultRouteAttributes = "routePath"

	// DefaultUserAgent is sent with every request
	DefaultUserAgent = "routemodel/0.1.0"

	// ServiceName labels this provider in errors, logs and metrics
	ServiceName = "Bing"

	// routesPath is the Routes endpoint relative to the base URL
	routesPath = "Routes?"

	// maxResponseSize bounds the decoded response body
	maxResponseSize = 32 << 20
)

// DistanceUnit selects the unit of travelDistance values
type DistanceUnit string

// Supported distance units
const (
	Kilometers DistanceUnit = "km"
	Miles      DistanceUnit = "mi"
)

// ParseDistanceUnit accepts km/mi and their long forms; empty means km.
func ParseDistanceUnit(s string) (DistanceUnit, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "km", "kilometer", "kilometers":
		return Kilometers, nil
	case "mi", "mile", "miles":
		return Miles, nil
	default:
		return "", core.NewValidationError(core.ErrInvalidParameter,
			fmt.Sprintf("unsupported distance unit %q", s)).
			WithGuidance("Use 'km' or 'mi'")
	}
}

// Config holds everything the fetcher needs from its environment
type Config struct {
	// BaseURL is the REST root; "Routes?" is appended to it
	BaseURL string

	// APIKey is the provider credential sent as the key parameter
	APIKey string

	// Timeout bounds a single request; zero means core.DefaultTimeout
	Timeout time.Duration

	// HTTPClient overrides the client built from Timeout
	HTTPClient *http.Client

	// UserAgent is sent with every request
	UserAgent string

	// Hooks receive request outcomes for monitoring; may be nil
	Hooks *MonitoringHooks

	// Logger defaults to slog.Default()
	Logger *slog.Logger
}

// DefaultConfig returns a Config with the public endpoint and default timeout.
// The API key must still be supplied.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Timeout:   core.DefaultTimeout,
		UserAgent: DefaultUserAgent,
	}
}

// FetchOptions controls response formatting
type FetchOptions struct {
	RouteAttributes string
	DistanceUnit    DistanceUnit
}

// DefaultFetchOptions returns routePath attributes in kilometers
func DefaultFetchOptions() FetchOptions {
	return FetchOptions{
		RouteAttributes: DefaultRouteAttributes,
		DistanceUnit:    Kilometers,
	}
}

// Client fetches routes from the Routes API. It holds no per-request state
// and is safe for concurrent use.
type Client struct {
	baseURL   string
	apiKey    string
	userAgent string
	http      *http.Client
	hooks     *MonitoringHooks
	logger    *slog.Logger
}

// NewClient validates cfg and returns a Client
func NewClient(cfg Config) (*Client, error) {
	if err := core.ValidateAPIKey(cfg.APIKey); err != nil {
		return nil, err
	}

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	u, err := url.Parse(cfg.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, core.NewValidationError(core.ErrInvalidParameter,
			fmt.Sprintf("invalid base URL %q", cfg.BaseURL))
	}
	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}

	client := cfg.HTTPClient
	if client == nil {
		client = core.NewHTTPClient(cfg.Timeout)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:   cfg.BaseURL,
		apiKey:    cfg.APIKey,
		userAgent: userAgent,
		http:      client,
		hooks:     cfg.Hooks,
		logger:    logger.With("provider", ServiceName),
	}, nil
}

// RouteURL assembles the full request URL for a query fragment. The
// fragment is used verbatim, followed by the formatting options and the key.
func (c *Client) RouteURL(fragment string, opts FetchOptions) string {
	opts = normalizeOptions(opts)
	var b strings.Builder
	b.WriteString(c.baseURL)
	b.WriteString(routesPath)
	b.WriteString(fragment)
	b.WriteString("routeAttributes=")
	b.WriteString(url.QueryEscape(opts.RouteAttributes))
	b.WriteString("&distanceUnit=")
	b.WriteString(url.QueryEscape(string(opts.DistanceUnit)))
	b.WriteString("&key=")
	b.WriteString(url.QueryEscape(c.apiKey))
	return b.String()
}

func normalizeOptions(opts FetchOptions) FetchOptions {
	if opts.RouteAttributes == "" {
		opts.RouteAttributes = DefaultRouteAttributes
	}
	if opts.DistanceUnit == "" {
		opts.DistanceUnit = Kilometers
	}
	return opts
}

// FetchRaw performs one GET for the fragment and returns the response body.
// Network failures, non-2xx statuses and provider-signalled errors are
// returned as request errors; there is no retry.
func (c *Client) FetchRaw(ctx context.Context, fragment string, opts FetchOptions) ([]byte, error) {
	opts = normalizeOptions(opts)
	unit, err := ParseDistanceUnit(string(opts.DistanceUnit))
	if err != nil {
		return nil, err
	}
	opts.DistanceUnit = unit

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.RouteURL(fragment, opts), nil)
	if err != nil {
		return nil, core.NewError(core.KindRequest, core.ErrInvalidInput, "failed to create request").
			WithCause(err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	c.hooks.request("routes")
	start := time.Now()

	resp, err := core.Do(ctx, req, core.RequestOptions{
		Service: ServiceName,
		Client:  c.http,
		Detail:  errorDetail,
		Redact:  []string{"key"},
	})
	if err != nil {
		c.hooks.response("routes", time.Since(start), false)
		c.hooks.failure(core.KindOf(err).String())
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	c.hooks.response("routes", time.Since(start), err == nil)
	if err != nil {
		c.hooks.failure(core.KindRequest.String())
		return nil, core.NetworkError(ServiceName, err)
	}

	// The envelope can report failure inside a 2xx body.
	var envelope errorResponse
	if json.Unmarshal(body, &envelope) == nil && envelope.StatusCode != 0 &&
		(envelope.StatusCode < 200 || envelope.StatusCode > 299) {
		c.hooks.failure(core.KindRequest.String())
		return nil, core.ServiceError(ServiceName, envelope.StatusCode, errorDetail(body))
	}

	c.logger.Debug("route fetched", "bytes", len(body), "elapsed", time.Since(start))
	return body, nil
}

// Fetch performs one GET for the fragment and decodes the response.
// A body that is not a valid route envelope is reported as a parse error.
func (c *Client) Fetch(ctx context.Context, fragment string, opts FetchOptions) (*Response, error) {
	body, err := c.FetchRaw(ctx, fragment, opts)
	if err != nil {
		return nil, err
	}

	resp, err := Decode(body)
	if err != nil {
		c.hooks.failure(core.KindParse.String())
		return nil, err
	}
	return resp, nil
}

// Decode unmarshals a response body into the typed envelope. Anything after
// the envelope object makes the whole body invalid.
func Decode(body []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(body, &resp); err != nil {
		e := core.ParseError(core.ErrMalformedJSON, "$", "response is not a valid route envelope").
			WithCause(err).
			WithDetail(err.Error())
		if te, ok := err.(*json.UnmarshalTypeError); ok && te.Field != "" {
			e.Path = te.Field
		}
		return nil, e
	}
	return &resp, nil
}

// errorDetail extracts errorDetails (or statusDescription) from an error
// body, falling back to the trimmed raw text.
func errorDetail(body []byte) string {
	var env errorResponse
	if err := json.Unmarshal(body, &env); err == nil {
		if len(env.ErrorDetails) > 0 {
			return strings.Join(env.ErrorDetails, "; ")
		}
		if env.StatusDescription != "" {
			return env.StatusDescription
		}
	}
	return strings.TrimSpace(string(body))
}

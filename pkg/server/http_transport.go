package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NERVsystems/routemodel/pkg/monitoring"
	"github.com/NERVsystems/routemodel/pkg/version"
)

// HTTPConfig configures the HTTP+SSE transport
type HTTPConfig struct {
	Addr string
	// BaseURL is the externally visible origin advertised to SSE clients;
	// empty derives it from each request's Host
	BaseURL         string
	SSEPath         string
	MessagePath     string
	MaxMessageBytes int64
	// Metrics serves /metrics on this listener too
	Metrics         bool
	ShutdownTimeout time.Duration
	// Health backs /health; nil reports a bare "ok"
	Health *monitoring.HealthChecker
}

// DefaultHTTPConfig returns the transport defaults
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Addr:            ":7082",
		SSEPath:         "/sse",
		MessagePath:     "/message",
		MaxMessageBytes: 1 << 20,
		Metrics:         true,
		ShutdownTimeout: 10 * time.Second,
	}
}

// HTTPTransport serves the MCP tools over HTTP+SSE next to the health,
// liveness and metrics endpoints.
type HTTPTransport struct {
	config HTTPConfig
	tools  []string
	logger *slog.Logger
	sse    *mcpserver.SSEServer
	http   *http.Server
}

// NewHTTPTransport creates a transport for s. Zero fields in cfg take
// their DefaultHTTPConfig values.
func NewHTTPTransport(s *Server, cfg HTTPConfig, logger *slog.Logger) *HTTPTransport {
	if logger == nil {
		logger = slog.Default()
	}
	def := DefaultHTTPConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	if cfg.SSEPath == "" {
		cfg.SSEPath = def.SSEPath
	}
	if cfg.MessagePath == "" {
		cfg.MessagePath = def.MessagePath
	}
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = def.MaxMessageBytes
	}
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = def.ShutdownTimeout
	}

	t := &HTTPTransport{
		config: cfg,
		tools:  s.Tools(),
		logger: logger.With("component", "http_transport"),
	}
	t.http = &http.Server{
		Addr:              cfg.Addr,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}
	// Sharing the http.Server lets SSEServer.Shutdown close open streams
	// before draining the listener.
	t.sse = mcpserver.NewSSEServer(s.MCP(),
		mcpserver.WithSSEEndpoint(cfg.SSEPath),
		mcpserver.WithMessageEndpoint(cfg.MessagePath),
		mcpserver.WithBaseURL(cfg.BaseURL),
		mcpserver.WithHTTPServer(t.http),
	)
	t.http.Handler = t.Handler()
	return t
}

// Handler returns the routed and instrumented handler
func (t *HTTPTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", t.discovery)
	mux.HandleFunc("GET /health", t.health)
	mux.HandleFunc("GET /live", t.live)
	if t.config.Metrics {
		mux.Handle("GET /metrics", promhttp.Handler())
	}
	mux.Handle(t.config.SSEPath, t.sse.SSEHandler())
	mux.Handle(t.config.MessagePath, t.sse.MessageHandler())

	return chain(mux,
		instrument(t.logger, t.endpoint),
		apiHeaders,
		limitBody(t.config.MaxMessageBytes),
	)
}

// endpoint maps a request onto a bounded label for logs and metrics
func (t *HTTPTransport) endpoint(r *http.Request) string {
	switch r.URL.Path {
	case t.config.SSEPath:
		return "sse"
	case t.config.MessagePath:
		return "message"
	case "/":
		return "discovery"
	case "/health", "/live", "/metrics":
		return r.URL.Path[1:]
	default:
		return "other"
	}
}

func (t *HTTPTransport) discovery(w http.ResponseWriter, r *http.Request) {
	base := t.config.BaseURL
	if base == "" {
		scheme := "http"
		if r.TLS != nil {
			scheme = "https"
		}
		base = scheme + "://" + r.Host
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"service":   ServerName,
		"version":   version.BuildVersion,
		"transport": "HTTP+SSE",
		"endpoints": map[string]string{
			"sse":     base + t.config.SSEPath,
			"message": base + t.config.MessagePath,
		},
		"tools": t.tools,
	})
}

func (t *HTTPTransport) health(w http.ResponseWriter, r *http.Request) {
	if t.config.Health != nil {
		t.config.Health.HealthHandler()(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (t *HTTPTransport) live(w http.ResponseWriter, r *http.Request) {
	if t.config.Health != nil {
		t.config.Health.LivenessHandler()(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"alive": true})
}

// Serve listens on the configured address until ctx is cancelled, then
// closes SSE streams and drains in-flight requests.
func (t *HTTPTransport) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- t.http.ListenAndServe()
	}()
	t.logger.Info("serving MCP over HTTP",
		"addr", t.config.Addr,
		"sse", t.config.SSEPath,
		"message", t.config.MessagePath,
		"metrics", t.config.Metrics,
	)

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), t.config.ShutdownTimeout)
	defer cancel()
	t.logger.Info("shutting down HTTP transport")
	if err := t.sse.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Config returns the effective transport configuration
func (t *HTTPTransport) Config() HTTPConfig {
	return t.config
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

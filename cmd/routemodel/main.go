package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/NERVsystems/routemodel/pkg/bing"
	"github.com/NERVsystems/routemodel/pkg/core"
	"github.com/NERVsystems/routemodel/pkg/monitoring"
	"github.com/NERVsystems/routemodel/pkg/planner"
	"github.com/NERVsystems/routemodel/pkg/server"
	"github.com/NERVsystems/routemodel/pkg/tools"
	"github.com/NERVsystems/routemodel/pkg/tracing"
	ver "github.com/NERVsystems/routemodel/pkg/version"
)

var (
	showVersionFlag bool
	debug           bool
	generateConfig  string
	mergeOnly       bool

	// Provider flags
	apiKey    string
	baseURL   string
	timeout   time.Duration
	userAgent string

	// Itinerary flags
	routeFile       string
	outputFile      string
	outputFormat    string
	distanceUnit    string
	routeAttributes string
	concurrency     int

	// MCP transport flags
	mcpMode     bool
	enableHTTP  bool
	httpAddr    string
	httpBaseURL string

	// Monitoring flags
	enableMonitoring bool
	monitoringAddr   string
)

func init() {
	flag.BoolVar(&showVersionFlag, "version", false, "Display version information")
	flag.BoolVar(&debug, "debug", false, "Enable debug logging")
	flag.StringVar(&generateConfig, "generate-config", "", "Write a Claude Desktop config entry for routemodel to the given .json path")
	flag.BoolVar(&mergeOnly, "merge-only", false, "Merge into an existing config instead of overwriting it")

	flag.StringVar(&apiKey, "key", os.Getenv("BING_MAPS_KEY"), "Bing Maps key (default from BING_MAPS_KEY)")
	flag.StringVar(&baseURL, "base-url", envOr("BING_MAPS_BASE_URL", bing.DefaultBaseURL), "Bing Maps REST base URL (default from BING_MAPS_BASE_URL)")
	flag.DurationVar(&timeout, "timeout", core.DefaultTimeout, "Timeout for a single route request")
	flag.StringVar(&userAgent, "user-agent", bing.DefaultUserAgent, "User-Agent for route requests")

	flag.StringVar(&routeFile, "route-file", "", "Route request JSON file (default stdin)")
	flag.StringVar(&outputFile, "output", "", "Write the itinerary to this file (default stdout)")
	flag.StringVar(&outputFormat, "format", "csv", "Output format: csv or json")
	flag.StringVar(&distanceUnit, "distance-unit", string(bing.Kilometers), "Distance unit for requests that set none: km or mi")
	flag.StringVar(&routeAttributes, "route-attributes", bing.DefaultRouteAttributes, "routeAttributes for requests that set none")
	flag.IntVar(&concurrency, "concurrency", planner.DefaultConcurrency, "Maximum routes planned at once")

	flag.BoolVar(&mcpMode, "mcp", false, "Serve the MCP tools over stdio instead of printing an itinerary")
	flag.BoolVar(&enableHTTP, "enable-http", false, "Serve the MCP tools over HTTP+SSE (implies -mcp)")
	flag.StringVar(&httpAddr, "http-addr", ":7082", "HTTP server address")
	flag.StringVar(&httpBaseURL, "http-base-url", "", "Base URL for HTTP transport (auto-detected if empty)")

	flag.BoolVar(&enableMonitoring, "enable-monitoring", false, "Serve Prometheus metrics and health endpoints")
	flag.StringVar(&monitoringAddr, "monitoring-addr", ":9090", "Monitoring server address")
}

func envOr(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func main() {
	flag.Parse()

	var logLevel slog.Level
	if debug {
		logLevel = slog.LevelDebug
	} else {
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	if showVersionFlag {
		fmt.Println(ver.String())
		return
	}

	if generateConfig != "" {
		if err := generateClientConfig(generateConfig, mergeOnly); err != nil {
			logger.Error("failed to generate config", "error", err)
			os.Exit(1)
		}
		logger.Info("successfully generated Claude Desktop Client config", "path", generateConfig)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	traceCfg := tracing.ConfigFromEnv(ver.BuildVersion)
	shutdownTracing, err := tracing.Setup(ctx, traceCfg)
	if err != nil {
		logger.Error("failed to initialize tracing", "error", err)
	} else {
		defer func() {
			if err := shutdownTracing(context.Background()); err != nil {
				logger.Error("error shutting down tracing", "error", err)
			}
		}()
		if traceCfg.Endpoint != "" {
			logger.Info("OpenTelemetry tracing enabled", "endpoint", traceCfg.Endpoint)
		}
	}

	serving := mcpMode || enableHTTP

	var healthChecker *monitoring.HealthChecker
	if enableMonitoring || enableHTTP {
		healthChecker = monitoring.NewHealthChecker(monitoring.Namespace, ver.BuildVersion)
	}

	cfg := bing.DefaultConfig()
	cfg.APIKey = apiKey
	cfg.BaseURL = baseURL
	cfg.Timeout = timeout
	cfg.UserAgent = userAgent
	cfg.Logger = logger
	cfg.Hooks = monitoring.FetchHooks()

	client, err := bing.NewClient(cfg)
	if err != nil {
		exitWithError(logger, "invalid provider configuration", err)
	}

	p := planner.New(client,
		planner.WithLogger(logger),
		planner.WithObserver(monitoring.PlanObserver(healthChecker, bing.ServiceName)),
	)

	logger.Info("starting routemodel",
		"version", ver.BuildVersion,
		"log_level", logLevel.String(),
		"base_url", cfg.BaseURL,
		"key", core.MaskSecret(cfg.APIKey),
		"timeout", cfg.Timeout,
		"mcp", serving,
		"http_enabled", enableHTTP,
		"monitoring_enabled", enableMonitoring)

	if enableMonitoring {
		startMonitoringServer(ctx, logger, healthChecker)
	}

	if serving {
		if err := serve(ctx, logger, p, healthChecker); err != nil {
			exitWithError(logger, "server error", err)
		}
		logger.Info("server stopped")
		return
	}

	opts := runOptions{
		RouteFile:       routeFile,
		OutputFile:      outputFile,
		Format:          outputFormat,
		DistanceUnit:    distanceUnit,
		RouteAttributes: routeAttributes,
		Concurrency:     concurrency,
	}
	if err := runItinerary(ctx, p, opts, os.Stdin, os.Stdout); err != nil {
		exitWithError(logger, "itinerary failed", err)
	}
}

// exitWithError logs err with any provider detail and terminates the process.
func exitWithError(logger *slog.Logger, msg string, err error) {
	attrs := []any{"error", err}
	var re *core.RouteError
	if errors.As(err, &re) {
		attrs = append(attrs,
			"kind", re.Kind.String(),
			"code", re.Code,
			"message", re.Message,
		)
		if re.StatusCode != 0 {
			attrs = append(attrs, "status", re.StatusCode)
		}
		if re.Detail != "" {
			attrs = append(attrs, "detail", re.Detail)
		}
		if re.Path != "" {
			attrs = append(attrs, "path", re.Path)
		}
	}
	logger.Error(msg, attrs...)
	os.Exit(1)
}

func startMonitoringServer(ctx context.Context, logger *slog.Logger, hc *monitoring.HealthChecker) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", hc.HealthHandler())
	mux.HandleFunc("/live", hc.LivenessHandler())

	monitoringServer := &http.Server{
		Addr:              monitoringAddr,
		Handler:           mux,
		ReadHeaderTimeout: 30 * time.Second,
	}

	go func() {
		logger.Info("starting Prometheus metrics server", "addr", monitoringAddr)
		if err := monitoringServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("monitoring server error", "error", err)
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := monitoringServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("failed to shutdown monitoring server", "error", err)
		}
	}()
}

// serve runs the MCP tools over stdio, or over HTTP+SSE when enabled,
// until ctx is cancelled.
func serve(ctx context.Context, logger *slog.Logger, p *planner.Planner, hc *monitoring.HealthChecker) error {
	s := server.NewServer(tools.NewRegistry(logger, p), logger)

	if !enableHTTP {
		return s.RunStdio(ctx)
	}

	cfg := server.DefaultHTTPConfig()
	cfg.Addr = httpAddr
	cfg.BaseURL = httpBaseURL
	cfg.Metrics = !enableMonitoring
	cfg.Health = hc
	return server.NewHTTPTransport(s, cfg, logger).Serve(ctx)
}

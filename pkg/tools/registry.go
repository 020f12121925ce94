// Package tools provides the routemodel MCP tool implementations.
package tools

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/NERVsystems/routemodel/pkg/monitoring"
	"github.com/NERVsystems/routemodel/pkg/tracing"
)

// Registry owns the itinerary tools and the planner behind them.
type Registry struct {
	logger  *slog.Logger
	planner Planner
}

// NewRegistry creates a tool registry whose itinerary tool plans through p
func NewRegistry(logger *slog.Logger, p Planner) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{logger: logger, planner: p}
}

// Tools returns every tool in registration order with bare handlers.
func (r *Registry) Tools() []server.ServerTool {
	return []server.ServerTool{
		{Tool: GetVersionTool(), Handler: HandleGetVersion},
		{Tool: GetItineraryTool(), Handler: r.HandleGetItinerary},
		{Tool: BuildRouteQueryTool(), Handler: HandleBuildRouteQuery},
		{Tool: ParseRouteResponseTool(), Handler: HandleParseRouteResponse},
	}
}

// Names lists the tool names in registration order
func (r *Registry) Names() []string {
	tools := r.Tools()
	names := make([]string, 0, len(tools))
	for _, t := range tools {
		names = append(names, t.Tool.Name)
	}
	return names
}

// RegisterTools adds every tool to s, each wrapped by instrument.
func (r *Registry) RegisterTools(s *server.MCPServer) {
	tools := r.Tools()
	for i := range tools {
		tools[i].Handler = r.instrument(tools[i].Tool.Name, tools[i].Handler)
	}
	s.AddTools(tools...)
	r.logger.Info("registered tools", "tools", r.Names())
}

// instrument runs handler inside a tool span and records the call. An error
// result counts as a failed call even though the handler returned nil.
func (r *Registry) instrument(name string, handler server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ctx, span := tracing.StartSpan(ctx, "mcp.tool."+name,
			trace.WithAttributes(attribute.String(tracing.AttrMCPToolName, name)),
		)
		defer span.End()

		start := time.Now()
		result, err := handler(ctx, req)
		elapsed := time.Since(start)

		failed := err != nil || (result != nil && result.IsError)
		switch {
		case err != nil:
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		case failed:
			span.SetStatus(codes.Error, "error result")
		default:
			span.SetStatus(codes.Ok, "")
		}

		status := tracing.StatusSuccess
		if failed {
			status = tracing.StatusError
		}
		size := resultSize(result)
		span.SetAttributes(tracing.MCPToolAttributes(name, status, elapsed.Milliseconds(), size)...)
		monitoring.RecordToolCall(name, elapsed, !failed)

		r.logger.Debug("tool call",
			"tool", name,
			"status", status,
			"duration_ms", elapsed.Milliseconds(),
			"result_bytes", size,
		)
		return result, err
	}
}

func resultSize(result *mcp.CallToolResult) int {
	if result == nil || result.Content == nil {
		return 0
	}
	data, err := json.Marshal(result.Content)
	if err != nil {
		return 0
	}
	return len(data)
}

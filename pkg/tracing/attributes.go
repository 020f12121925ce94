package tracing

import (
	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

// Attribute keys not covered by semconv
const (
	AttrMCPToolName     = "mcp.tool.name"
	AttrMCPToolStatus   = "mcp.tool.status"
	AttrMCPToolDuration = "mcp.tool.duration_ms"
	AttrMCPResultSize   = "mcp.tool.result_size"
	AttrMCPSessionID    = "mcp.session.id"

	AttrProvider = "route.provider"

	AttrWaypointCount    = "route.waypoints"
	AttrViaWaypointCount = "route.via_waypoints"
	AttrDistanceUnit     = "route.distance_unit"
	AttrRouteAttributes  = "route.attributes"
	AttrLegCount         = "route.legs"
	AttrRowCount         = "route.rows"

	AttrErrorCode    = "route.error.code"
	AttrErrorMessage = "route.error.message"
)

// Tool outcome values
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// MCPToolAttributes describes one finished tool call
func MCPToolAttributes(toolName string, status string, durationMs int64, resultSize int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(AttrMCPToolName, toolName),
		attribute.String(AttrMCPToolStatus, status),
		attribute.Int64(AttrMCPToolDuration, durationMs),
		attribute.Int(AttrMCPResultSize, resultSize),
	}
}

// RouteAttributes describes the shape of a route request
func RouteAttributes(waypoints, viaWaypoints int, distanceUnit, routeAttrs string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Int(AttrWaypointCount, waypoints),
		attribute.Int(AttrViaWaypointCount, viaWaypoints),
		attribute.String(AttrDistanceUnit, distanceUnit),
		attribute.String(AttrRouteAttributes, routeAttrs),
	}
}

// ErrorAttributes tags a span with the failure kind (error.type) and the
// error text. It returns nil for a nil error.
func ErrorAttributes(kind string, err error) []attribute.KeyValue {
	if err == nil {
		return nil
	}
	return []attribute.KeyValue{
		semconv.ErrorTypeKey.String(kind),
		attribute.String(AttrErrorMessage, err.Error()),
	}
}

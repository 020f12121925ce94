package tools

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/NERVsystems/routemodel/pkg/bing"
	"github.com/NERVsystems/routemodel/pkg/core"
	"github.com/NERVsystems/routemodel/pkg/itinerary"
)

// Planner plans a single route request. *planner.Planner satisfies it.
type Planner interface {
	Plan(ctx context.Context, req itinerary.Request) (*itinerary.Table, error)
}

var coordinateSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"latitude":  map[string]any{"type": "number"},
		"longitude": map[string]any{"type": "number"},
	},
	"required": []string{"latitude", "longitude"},
}

// GetItineraryTool returns a tool definition for planning a route itinerary
func GetItineraryTool() mcp.Tool {
	return mcp.NewTool("get_itinerary",
		mcp.WithDescription("Get a turn-by-turn driving itinerary from Bing Maps. Each row holds the maneuver location, instruction, distance, compass direction and street."),
		mcp.WithArray("waypoints",
			mcp.Required(),
			mcp.Description("Ordered stops as {latitude, longitude}, 1 to 25 entries"),
			mcp.Items(coordinateSchema),
		),
		mcp.WithArray("via_waypoints",
			mcp.Description("One array of {latitude, longitude} pass-through points per leg (len(waypoints)-1 arrays, each at most 10 points)"),
			mcp.Items(map[string]any{"type": "array", "items": coordinateSchema}),
		),
		mcp.WithString("distance_unit",
			mcp.Description("Distance unit: km or mi"),
			mcp.Enum(string(bing.Kilometers), string(bing.Miles)),
			mcp.DefaultString(string(bing.Kilometers)),
		),
		mcp.WithString("route_attributes",
			mcp.Description("Bing Maps routeAttributes value"),
			mcp.DefaultString(bing.DefaultRouteAttributes),
		),
	)
}

// HandleGetItinerary plans the requested route and returns the itinerary
// table as {columns, rows}.
func (r *Registry) HandleGetItinerary(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("get_itinerary", func(ctx context.Context, input itinerary.Request, logger *slog.Logger) (any, error) {
		if r.planner == nil {
			return nil, core.NewError(core.KindInternal, core.ErrServiceUnavailable, "route planner is not configured").
				WithGuidance("Start the server with a Bing Maps key.")
		}
		logger.Debug("planning itinerary", "waypoints", len(input.Waypoints), "via_waypoints", input.ViaCount())
		return r.planner.Plan(ctx, input)
	})(ctx, req)
}

// BuildRouteQueryInput defines the input for build_route_query
type BuildRouteQueryInput struct {
	Waypoints    []core.Coordinate   `json:"waypoints"`
	ViaWaypoints [][]core.Coordinate `json:"via_waypoints,omitempty"`
}

// BuildRouteQueryOutput carries the query fragment sent to the Routes API
type BuildRouteQueryOutput struct {
	Query string `json:"query"`
}

// BuildRouteQueryTool returns a tool definition for building a route query fragment
func BuildRouteQueryTool() mcp.Tool {
	return mcp.NewTool("build_route_query",
		mcp.WithDescription("Build the Bing Maps Routes query fragment (wp.N / vwp.N parameters) for waypoints and via-points without calling the service"),
		mcp.WithArray("waypoints",
			mcp.Required(),
			mcp.Description("Ordered stops as {latitude, longitude}"),
			mcp.Items(coordinateSchema),
		),
		mcp.WithArray("via_waypoints",
			mcp.Description("One array of via-points per leg"),
			mcp.Items(map[string]any{"type": "array", "items": coordinateSchema}),
		),
	)
}

// HandleBuildRouteQuery validates the route and returns its query fragment
func HandleBuildRouteQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("build_route_query", func(ctx context.Context, input BuildRouteQueryInput, logger *slog.Logger) (any, error) {
		if err := core.ValidateRoute(input.Waypoints, input.ViaWaypoints); err != nil {
			return nil, err
		}
		return BuildRouteQueryOutput{Query: bing.BuildQuery(input.Waypoints, input.ViaWaypoints)}, nil
	})(ctx, req)
}

// ParseRouteResponseInput defines the input for parse_route_response
type ParseRouteResponseInput struct {
	Response string `json:"response"`
}

// ParseRouteResponseTool returns a tool definition for parsing a raw route response
func ParseRouteResponseTool() mcp.Tool {
	return mcp.NewTool("parse_route_response",
		mcp.WithDescription("Convert a raw Bing Maps Routes JSON response into an itinerary table"),
		mcp.WithString("response",
			mcp.Required(),
			mcp.Description("The Routes API response body as a JSON string"),
		),
	)
}

// HandleParseRouteResponse parses a raw route response into an itinerary table
func HandleParseRouteResponse(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return WithParsedInput("parse_route_response", func(ctx context.Context, input ParseRouteResponseInput, logger *slog.Logger) (any, error) {
		if input.Response == "" {
			return nil, core.NewValidationError(core.ErrMissingParameter, "response is required")
		}
		return bing.ParseJSON([]byte(input.Response))
	})(ctx, req)
}

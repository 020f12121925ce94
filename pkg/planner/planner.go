// Package planner runs the build, fetch and parse steps for a route request
// and returns the resulting itinerary table.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/NERVsystems/routemodel/pkg/bing"
	"github.com/NERVsystems/routemodel/pkg/core"
	"github.com/NERVsystems/routemodel/pkg/itinerary"
	"github.com/NERVsystems/routemodel/pkg/tracing"
)

// DefaultConcurrency bounds PlanAll when the caller passes a non-positive limit.
const DefaultConcurrency = 4

// Fetcher retrieves a decoded route response for a query fragment.
// *bing.Client satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, fragment string, opts bing.FetchOptions) (*bing.Response, error)
}

// Observer is notified of each plan outcome; stage is "validate", "fetch",
// "parse" or "" on success.
type Observer func(stage string, duration time.Duration, rows int, err error)

// Planner turns route requests into itinerary tables. It keeps no state
// between calls.
type Planner struct {
	fetcher  Fetcher
	logger   *slog.Logger
	observer Observer
}

// Option configures a Planner
type Option func(*Planner)

// WithLogger sets the planner logger
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) {
		p.logger = logger
	}
}

// WithObserver registers a callback for plan outcomes
func WithObserver(o Observer) Option {
	return func(p *Planner) {
		p.observer = o
	}
}

// New creates a Planner that fetches through f
func New(f Fetcher, opts ...Option) *Planner {
	p := &Planner{
		fetcher: f,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "planner")
	return p
}

// Plan validates the request, builds the query, fetches the route and
// parses it. Errors are *core.RouteError values of kind validation,
// request or parse.
func (p *Planner) Plan(ctx context.Context, req itinerary.Request) (*itinerary.Table, error) {
	start := time.Now()

	ctx, span := tracing.StartSpan(ctx, "planner.plan",
		trace.WithAttributes(tracing.RouteAttributes(
			len(req.Waypoints), req.ViaCount(), req.DistanceUnit, req.RouteAttributes)...),
	)
	defer span.End()

	fail := func(stage string, err error) (*itinerary.Table, error) {
		span.RecordError(err)
		span.SetAttributes(tracing.ErrorAttributes(stage, err)...)
		span.SetStatus(codes.Error, stage+" failed")
		p.logger.Error("plan failed", "stage", stage, "error", err, "elapsed", time.Since(start))
		p.notify(stage, time.Since(start), 0, err)
		return nil, err
	}

	if err := core.ValidateRoute(req.Waypoints, req.ViaWaypoints); err != nil {
		return fail("validate", err)
	}
	unit, err := bing.ParseDistanceUnit(req.DistanceUnit)
	if err != nil {
		return fail("validate", err)
	}

	fragment := bing.BuildQuery(req.Waypoints, req.ViaWaypoints)
	p.logger.Debug("query built",
		"waypoints", len(req.Waypoints),
		"via_waypoints", req.ViaCount(),
		"fragment", fragment,
	)

	resp, err := p.fetcher.Fetch(ctx, fragment, bing.FetchOptions{
		RouteAttributes: req.RouteAttributes,
		DistanceUnit:    unit,
	})
	if err != nil {
		return fail("fetch", err)
	}
	tracing.AddEvent(ctx, "route.fetched")

	table, err := bing.Parse(resp)
	if err != nil {
		return fail("parse", err)
	}

	span.SetAttributes(
		attribute.Int(tracing.AttrLegCount, len(req.Waypoints)-1),
		attribute.Int(tracing.AttrRowCount, table.Len()),
	)
	span.SetStatus(codes.Ok, "")
	p.logger.Info("plan complete", "rows", table.Len(), "elapsed", time.Since(start))
	p.notify("", time.Since(start), table.Len(), nil)
	return table, nil
}

// PlanAll plans each request independently with at most limit running at
// once. Results are returned in request order. The first failure cancels
// the remaining plans and is returned annotated with its request index.
func (p *Planner) PlanAll(ctx context.Context, reqs []itinerary.Request, limit int) ([]*itinerary.Table, error) {
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	tables := make([]*itinerary.Table, len(reqs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)

	for i, req := range reqs {
		g.Go(func() error {
			table, err := p.Plan(gctx, req)
			if err != nil {
				return fmt.Errorf("route %d: %w", i, err)
			}
			tables[i] = table
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return tables, nil
}

func (p *Planner) notify(stage string, d time.Duration, rows int, err error) {
	if p.observer != nil {
		p.observer(stage, d, rows, err)
	}
}

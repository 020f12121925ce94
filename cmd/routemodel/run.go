package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/NERVsystems/routemodel/pkg/core"
	"github.com/NERVsystems/routemodel/pkg/itinerary"
)

// routePlanner is the part of *planner.Planner the CLI uses
type routePlanner interface {
	PlanAll(ctx context.Context, reqs []itinerary.Request, limit int) ([]*itinerary.Table, error)
}

type runOptions struct {
	RouteFile       string
	OutputFile      string
	Format          string
	DistanceUnit    string
	RouteAttributes string
	Concurrency     int
}

// runItinerary reads route requests, plans them and writes one table per
// request. Multiple CSV tables are separated by a blank line; JSON output
// is a single object for one request and an array otherwise.
func runItinerary(ctx context.Context, p routePlanner, opts runOptions, stdin io.Reader, stdout io.Writer) error {
	format := strings.ToLower(opts.Format)
	if format != "csv" && format != "json" {
		return core.NewValidationError(core.ErrInvalidParameter,
			fmt.Sprintf("unsupported output format %q", opts.Format)).
			WithGuidance("Use 'csv' or 'json'")
	}

	in := stdin
	if opts.RouteFile != "" && opts.RouteFile != "-" {
		f, err := os.Open(opts.RouteFile)
		if err != nil {
			return core.NewValidationError(core.ErrInvalidInput, "cannot open route file").
				WithCause(err).
				WithDetail(err.Error())
		}
		defer f.Close()
		in = f
	}

	reqs, err := itinerary.DecodeRequests(in)
	if err != nil {
		return err
	}
	for i := range reqs {
		if reqs[i].DistanceUnit == "" {
			reqs[i].DistanceUnit = opts.DistanceUnit
		}
		if reqs[i].RouteAttributes == "" {
			reqs[i].RouteAttributes = opts.RouteAttributes
		}
	}

	tables, err := p.PlanAll(ctx, reqs, opts.Concurrency)
	if err != nil {
		return err
	}

	if opts.OutputFile == "" {
		return writeTables(stdout, format, tables)
	}

	f, err := os.Create(opts.OutputFile)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	if err := writeTables(f, format, tables); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}

func writeTables(w io.Writer, format string, tables []*itinerary.Table) error {
	if format == "json" {
		if len(tables) == 1 {
			return tables[0].WriteJSON(w)
		}
		return itinerary.WriteJSONList(w, tables)
	}

	for i, t := range tables {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return err
			}
		}
		if err := t.WriteCSV(w); err != nil {
			return err
		}
	}
	return nil
}

package planner

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/NERVsystems/routemodel/pkg/bing"
	"github.com/NERVsystems/routemodel/pkg/core"
	"github.com/NERVsystems/routemodel/pkg/itinerary"
)

type fakeFetcher struct {
	mu        sync.Mutex
	fragments []string
	opts      []bing.FetchOptions
	resp      *bing.Response
	err       error
}

func (f *fakeFetcher) Fetch(ctx context.Context, fragment string, opts bing.FetchOptions) (*bing.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fragments = append(f.fragments, fragment)
	f.opts = append(f.opts, opts)
	return f.resp, f.err
}

func fixtureResponse(t *testing.T) *bing.Response {
	t.Helper()
	data, err := os.ReadFile("../bing/testdata/route.json")
	if err != nil {
		t.Fatal(err)
	}
	resp, err := bing.Decode(data)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

func twoStopRequest() itinerary.Request {
	return itinerary.Request{
		Waypoints: []core.Coordinate{
			{Latitude: 1.0, Longitude: 2.0},
			{Latitude: 3.0, Longitude: 4.0},
		},
		ViaWaypoints: [][]core.Coordinate{{{Latitude: 1.5, Longitude: 2.5}}},
		DistanceUnit: "mi",
	}
}

func TestPlan(t *testing.T) {
	fetcher := &fakeFetcher{resp: fixtureResponse(t)}

	var stages []string
	p := New(fetcher, WithObserver(func(stage string, d time.Duration, rows int, err error) {
		stages = append(stages, stage)
	}))

	table, err := p.Plan(context.Background(), twoStopRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if table.Len() != 4 {
		t.Errorf("expected 4 rows, got %d", table.Len())
	}

	if len(fetcher.fragments) != 1 || fetcher.fragments[0] != "wp.0=1.0,2.0&vwp.1=1.5,2.5&wp.2=3.0,4.0&" {
		t.Errorf("unexpected fragments %v", fetcher.fragments)
	}
	if fetcher.opts[0].DistanceUnit != bing.Miles {
		t.Errorf("expected miles, got %q", fetcher.opts[0].DistanceUnit)
	}
	if len(stages) != 1 || stages[0] != "" {
		t.Errorf("expected a single success notification, got %v", stages)
	}
}

func TestPlanValidationSkipsFetch(t *testing.T) {
	fetcher := &fakeFetcher{resp: fixtureResponse(t)}
	p := New(fetcher)

	req := twoStopRequest()
	req.ViaWaypoints = nil

	_, err := p.Plan(context.Background(), req)
	if core.KindOf(err) != core.KindValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(fetcher.fragments) != 0 {
		t.Error("expected no fetch for invalid request")
	}

	req = twoStopRequest()
	req.DistanceUnit = "leagues"
	if _, err := p.Plan(context.Background(), req); core.KindOf(err) != core.KindValidation {
		t.Fatalf("expected validation error for unit, got %v", err)
	}
}

func TestPlanPropagatesErrors(t *testing.T) {
	t.Run("fetch", func(t *testing.T) {
		p := New(&fakeFetcher{err: core.ServiceError("Bing", http.StatusBadRequest, "bad")})
		table, err := p.Plan(context.Background(), twoStopRequest())
		if !core.IsRequestError(err) {
			t.Fatalf("expected request error, got %v", err)
		}
		if table != nil {
			t.Error("expected no table")
		}
	})

	t.Run("parse", func(t *testing.T) {
		p := New(&fakeFetcher{resp: &bing.Response{StatusCode: 200}})
		table, err := p.Plan(context.Background(), twoStopRequest())
		if !core.IsParseError(err) {
			t.Fatalf("expected parse error, got %v", err)
		}
		if table != nil {
			t.Error("expected no table")
		}
	})
}

func TestPlanAgainstServer(t *testing.T) {
	fixture, err := os.ReadFile("../bing/testdata/route.json")
	if err != nil {
		t.Fatal(err)
	}

	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if !strings.HasPrefix(r.URL.RawQuery, "wp.0=") {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.Write(fixture)
	}))
	defer server.Close()

	client, err := bing.NewClient(bing.Config{
		BaseURL:    server.URL + "/",
		APIKey:     "TestBingMapsKey0123456789",
		HTTPClient: server.Client(),
	})
	if err != nil {
		t.Fatal(err)
	}

	reqs := []itinerary.Request{twoStopRequest(), twoStopRequest(), twoStopRequest()}
	tables, err := New(client).PlanAll(context.Background(), reqs, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(tables) != len(reqs) {
		t.Fatalf("expected %d tables, got %d", len(reqs), len(tables))
	}
	for i, table := range tables {
		if table.Len() != 4 {
			t.Errorf("table %d: expected 4 rows, got %d", i, table.Len())
		}
	}
	if got := hits.Load(); got != int32(len(reqs)) {
		t.Errorf("expected %d requests, got %d", len(reqs), got)
	}
}

func TestPlanAllReportsFailingIndex(t *testing.T) {
	p := New(&fakeFetcher{resp: fixtureResponse(t)})

	bad := twoStopRequest()
	bad.Waypoints = nil

	_, err := p.PlanAll(context.Background(), []itinerary.Request{twoStopRequest(), bad}, 1)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "route 1") {
		t.Errorf("expected failing index in error, got %v", err)
	}
	var re *core.RouteError
	if !errors.As(err, &re) || re.Kind != core.KindValidation {
		t.Errorf("expected wrapped validation error, got %v", err)
	}
}

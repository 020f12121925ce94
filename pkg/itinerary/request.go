package itinerary

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"

	"github.com/NERVsystems/routemodel/pkg/core"
)

// Request describes one route to plan.
type Request struct {
	Waypoints       []core.Coordinate   `json:"waypoints"`
	ViaWaypoints    [][]core.Coordinate `json:"via_waypoints,omitempty"`
	DistanceUnit    string              `json:"distance_unit,omitempty"`
	RouteAttributes string              `json:"route_attributes,omitempty"`
}

// ViaCount returns the total number of via-points across all legs.
func (r Request) ViaCount() int {
	n := 0
	for _, group := range r.ViaWaypoints {
		n += len(group)
	}
	return n
}

// DecodeRequest reads a single route request encoded as JSON.
func DecodeRequest(r io.Reader) (Request, error) {
	var req Request
	if err := decodeStrict(r, &req); err != nil {
		return Request{}, err
	}
	return req, nil
}

// DecodeRequests reads either a single request object or an array of them.
// Unknown fields, null, an empty array and trailing data are rejected.
func DecodeRequests(r io.Reader) ([]Request, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if err != nil {
		return nil, invalidRequest(err)
	}

	switch first {
	case '[':
		var many []Request
		if err := decodeStrict(br, &many); err != nil {
			return nil, err
		}
		if len(many) == 0 {
			return nil, core.NewValidationError(core.ErrMissingParameter, "no route requests in input")
		}
		return many, nil
	case '{':
		one, err := DecodeRequest(br)
		if err != nil {
			return nil, err
		}
		return []Request{one}, nil
	default:
		return nil, core.NewValidationError(core.ErrInvalidInput,
			fmt.Sprintf("invalid route request: expected an object or array, found %q", first))
	}
}

func decodeStrict(r io.Reader, v any) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return invalidRequest(err)
	}
	if dec.More() {
		return core.NewValidationError(core.ErrInvalidInput, "invalid route request: unexpected data after JSON value")
	}
	return nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		}
		return b, br.UnreadByte()
	}
}

func invalidRequest(err error) *core.RouteError {
	return core.NewValidationError(core.ErrInvalidInput,
		fmt.Sprintf("invalid route request: %v", err)).WithCause(err)
}

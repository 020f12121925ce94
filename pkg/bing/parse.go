package bing

import (
	"fmt"

	"github.com/NERVsystems/routemodel/pkg/core"
	"github.com/NERVsystems/routemodel/pkg/itinerary"
)

// Parse flattens the first route of the first resource set into an
// itinerary table, one row per itinerary item in leg order.
//
// Any missing field or empty list aborts the parse with a parse error
// naming the offending path; no partial table is returned.
func Parse(resp *Response) (*itinerary.Table, error) {
	if resp == nil {
		return nil, core.ParseError(core.ErrMissingField, "$", "response is nil")
	}
	if resp.ResourceSets == nil {
		return nil, missing("resourceSets")
	}
	if len(resp.ResourceSets) == 0 {
		return nil, empty("resourceSets")
	}

	resources := resp.ResourceSets[0].Resources
	if resources == nil {
		return nil, missing("resourceSets[0].resources")
	}
	if len(resources) == 0 {
		return nil, empty("resourceSets[0].resources")
	}

	legs := resources[0].RouteLegs
	if legs == nil {
		return nil, missing("resourceSets[0].resources[0].routeLegs")
	}

	table := &itinerary.Table{}
	for i, leg := range legs {
		legPath := fmt.Sprintf("resourceSets[0].resources[0].routeLegs[%d]", i)
		if leg.ItineraryItems == nil {
			return nil, missing(legPath + ".itineraryItems")
		}
		for j, item := range leg.ItineraryItems {
			row, err := parseItem(item, fmt.Sprintf("%s.itineraryItems[%d]", legPath, j))
			if err != nil {
				return nil, err
			}
			table.Append(row)
		}
	}

	return table, nil
}

// ParseJSON decodes a raw response body and parses it.
func ParseJSON(body []byte) (*itinerary.Table, error) {
	resp, err := Decode(body)
	if err != nil {
		return nil, err
	}
	return Parse(resp)
}

func parseItem(item ItineraryItem, path string) (itinerary.Row, error) {
	if item.ManeuverPoint == nil {
		return itinerary.Row{}, missing(path + ".maneuverPoint")
	}
	if len(item.ManeuverPoint.Coordinates) < 2 {
		return itinerary.Row{}, core.ParseError(core.ErrEmptyList, path+".maneuverPoint.coordinates",
			fmt.Sprintf("expected latitude and longitude, got %d values", len(item.ManeuverPoint.Coordinates)))
	}
	if item.Instruction == nil {
		return itinerary.Row{}, missing(path + ".instruction")
	}
	if item.Instruction.Text == nil {
		return itinerary.Row{}, missing(path + ".instruction.text")
	}
	if item.TravelDistance == nil {
		return itinerary.Row{}, missing(path + ".travelDistance")
	}
	if item.CompassDirection == nil {
		return itinerary.Row{}, missing(path + ".compassDirection")
	}

	street, err := streetName(item.Details, path)
	if err != nil {
		return itinerary.Row{}, err
	}

	return itinerary.Row{
		Latitude:    item.ManeuverPoint.Coordinates[0],
		Longitude:   item.ManeuverPoint.Coordinates[1],
		Instruction: *item.Instruction.Text,
		Distance:    *item.TravelDistance,
		Direction:   *item.CompassDirection,
		Street:      street,
	}, nil
}

// streetName picks the first name of the second detail when there is more
// than one detail, otherwise the first name of the first detail.
//
// This mirrors observed provider output rather than a documented contract
// and should be revisited if street names look wrong.
func streetName(details []ItineraryDetail, path string) (string, error) {
	if details == nil {
		return "", missing(path + ".details")
	}
	if len(details) == 0 {
		return "", empty(path + ".details")
	}

	idx := 0
	if len(details) > 1 {
		idx = 1
	}
	namesPath := fmt.Sprintf("%s.details[%d].names", path, idx)
	names := details[idx].Names
	if names == nil {
		return "", missing(namesPath)
	}
	if len(names) == 0 {
		return "", empty(namesPath)
	}
	return names[0], nil
}

func missing(path string) error {
	return core.ParseError(core.ErrMissingField, path, "required field is missing")
}

func empty(path string) error {
	return core.ParseError(core.ErrEmptyList, path, "list is empty")
}

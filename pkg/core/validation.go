package core

import "fmt"

// Route limits imposed by the provider
const (
	MaxWaypoints    = 25
	MaxViaWaypoints = 10
)

// Coordinate is a geographic point in decimal degrees
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// ValidateCoords checks if latitude and longitude are within valid ranges
func ValidateCoords(lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return NewValidationError(ErrInvalidLatitude,
			fmt.Sprintf("latitude must be between -90 and 90, got %f", lat)).
			WithGuidance("Ensure latitude is in decimal degrees")
	}
	if lon < -180 || lon > 180 {
		return NewValidationError(ErrInvalidLongitude,
			fmt.Sprintf("longitude must be between -180 and 180, got %f", lon)).
			WithGuidance("Ensure longitude is in decimal degrees")
	}
	return nil
}

// ValidateRoute checks waypoints and via-point groups against the provider
// limits: 1 to MaxWaypoints waypoints, exactly one via-point group per leg,
// and at most MaxViaWaypoints entries in each group.
func ValidateRoute(waypoints []Coordinate, via [][]Coordinate) error {
	if len(waypoints) == 0 {
		return NewValidationError(ErrMissingParameter, "at least one waypoint is required")
	}
	if len(waypoints) > MaxWaypoints {
		return NewValidationError(ErrTooManyPoints,
			fmt.Sprintf("at most %d waypoints are allowed, got %d", MaxWaypoints, len(waypoints)))
	}

	legs := len(waypoints) - 1
	if len(via) != legs {
		return NewValidationError(ErrInvalidParameter,
			fmt.Sprintf("expected %d via-point groups for %d waypoints, got %d", legs, len(waypoints), len(via)))
	}

	for i, wp := range waypoints {
		if err := ValidateCoords(wp.Latitude, wp.Longitude); err != nil {
			return fmt.Errorf("waypoint %d: %w", i, err)
		}
	}

	for leg, group := range via {
		if len(group) > MaxViaWaypoints {
			return NewValidationError(ErrTooManyPoints,
				fmt.Sprintf("leg %d has %d via-points, at most %d are allowed", leg, len(group), MaxViaWaypoints))
		}
		for j, p := range group {
			if err := ValidateCoords(p.Latitude, p.Longitude); err != nil {
				return fmt.Errorf("via-point %d of leg %d: %w", j, leg, err)
			}
		}
	}

	return nil
}

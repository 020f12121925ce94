package bing

// Response is the envelope returned by the Bing Maps REST services.
// Only the fields used for itinerary extraction are modelled; required
// leaf fields are pointers so an absent key is distinguishable from zero.
type Response struct {
	StatusCode               int           `json:"statusCode"`
	StatusDescription        string        `json:"statusDescription"`
	AuthenticationResultCode string        `json:"authenticationResultCode"`
	ErrorDetails             []string      `json:"errorDetails,omitempty"`
	TraceID                  string        `json:"traceId"`
	ResourceSets             []ResourceSet `json:"resourceSets"`
}

// ResourceSet groups the resources of one response
type ResourceSet struct {
	EstimatedTotal int     `json:"estimatedTotal"`
	Resources      []Route `json:"resources"`
}

// Route is a single route resource
type Route struct {
	ID             string     `json:"id"`
	DistanceUnit   string     `json:"distanceUnit"`
	DurationUnit   string     `json:"durationUnit"`
	TravelDistance float64    `json:"travelDistance"`
	TravelDuration float64    `json:"travelDuration"`
	RouteLegs      []RouteLeg `json:"routeLegs"`
}

// RouteLeg is the portion of a route between two consecutive waypoints
type RouteLeg struct {
	TravelDistance float64         `json:"travelDistance"`
	TravelDuration float64         `json:"travelDuration"`
	ItineraryItems []ItineraryItem `json:"itineraryItems"`
}

// ItineraryItem is one maneuver within a leg
type ItineraryItem struct {
	CompassDirection *string           `json:"compassDirection"`
	Details          []ItineraryDetail `json:"details"`
	Instruction      *Instruction      `json:"instruction"`
	ManeuverPoint    *Point            `json:"maneuverPoint"`
	TravelDistance   *float64          `json:"travelDistance"`
	TravelDuration   float64           `json:"travelDuration"`
	TravelMode       string            `json:"travelMode"`
}

// ItineraryDetail describes a road segment of an itinerary item
type ItineraryDetail struct {
	CompassDegrees float64  `json:"compassDegrees"`
	ManeuverType   string   `json:"maneuverType"`
	Names          []string `json:"names"`
	RoadType       string   `json:"roadType"`
}

// Instruction is the human-readable maneuver text
type Instruction struct {
	ManeuverType string  `json:"maneuverType"`
	Text         *string `json:"text"`
}

// Point is a GeoJSON-style point; Coordinates are [latitude, longitude]
type Point struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

// errorResponse is the subset of the envelope read from failed requests.
type errorResponse struct {
	StatusCode        int      `json:"statusCode"`
	StatusDescription string   `json:"statusDescription"`
	ErrorDetails      []string `json:"errorDetails"`
}

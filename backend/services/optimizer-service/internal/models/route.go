package models

// Coordinate is a WGS84 position.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Geometry is a GeoJSON geometry; coordinates are [lon, lat] pairs.
type Geometry struct {
	Type        string      `json:"type"`
	Coordinates [][]float64 `json:"coordinates"`
}

// Maneuver describes the action at the start of a step.
type Maneuver struct {
	Type        string    `json:"type,omitempty"`
	Modifier    string    `json:"modifier,omitempty"`
	Instruction string    `json:"instruction"`
	Location    []float64 `json:"location,omitempty"`
}

// Step is one turn-by-turn instruction.
type Step struct {
	Name     string    `json:"name"`
	Distance float64   `json:"distance"`
	Duration float64   `json:"duration"`
	Maneuver Maneuver  `json:"maneuver"`
	Geometry *Geometry `json:"geometry,omitempty"`
}

// Leg is the part of a route between two waypoints.
type Leg struct {
	Summary  string  `json:"summary"`
	Distance float64 `json:"distance"`
	Duration float64 `json:"duration"`
	Steps    []Step  `json:"steps"`
}

// Route is a full driving route. Distance is in metres, Duration in seconds.
type Route struct {
	Geometry   Geometry `json:"geometry"`
	Legs       []Leg    `json:"legs"`
	Distance   float64  `json:"distance"`
	Duration   float64  `json:"duration"`
	Weight     float64  `json:"weight,omitempty"`
	WeightName string   `json:"weight_name,omitempty"`
}

// Waypoint is a snapped input coordinate.
type Waypoint struct {
	Name     string    `json:"name"`
	Location []float64 `json:"location"`
	Distance float64   `json:"distance,omitempty"`
}

// Directions is the routing engine response.
type Directions struct {
	Code      string     `json:"code"`
	Routes    []Route    `json:"routes"`
	Waypoints []Waypoint `json:"waypoints"`
	UUID      string     `json:"uuid,omitempty"`
}

// StationSummary is the ranking metadata attached to a route.
type StationSummary struct {
	StationID  Identifier `json:"station_id"`
	DistanceKm Metric     `json:"distance_km"`
	Score      Metric     `json:"score"`
	TotalTimeH Metric     `json:"total_time_h"`
	UsageCost  Metric     `json:"usage_cost"`
	PowerKW    *float64   `json:"power_kw"`
	Title      string     `json:"title"`
}

// RouteResult is a routing response annotated with the stations it was computed for.
type RouteResult struct {
	Directions *Directions      `json:"directions"`
	Stations   []StationSummary `json:"stations"`
}

// RoutedStation is a shortlist entry merged with its route. A failed routing call leaves
// Route nil and sets Error.
type RoutedStation struct {
	StationSummary
	Route *Directions `json:"route,omitempty"`
	Error string      `json:"error,omitempty"`
}

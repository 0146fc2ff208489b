package clients

import (
	"errors"

	"chargeroute/backend/services/optimizer-service/internal/models"
)

// MaxRouteStations caps the destinations sent in a single routing request.
const MaxRouteStations = 25

var (
	// ErrNoRoutableStation means none of the given stations carried coordinates.
	ErrNoRoutableStation = errors.New("no station with coordinates to route to")
	// ErrRouteNotFound means the routing engine answered without a usable route.
	ErrRouteNotFound = errors.New("route not found")
)

// routeStops keeps the first MaxRouteStations stations that have coordinates and returns their
// positions with matching summaries.
func routeStops(stations []models.RankedStation) ([]models.Coordinate, []models.StationSummary, error) {
	if len(stations) > MaxRouteStations {
		stations = stations[:MaxRouteStations]
	}
	coords := make([]models.Coordinate, 0, len(stations))
	summaries := make([]models.StationSummary, 0, len(stations))
	for _, s := range stations {
		c, ok := s.Coordinates()
		if !ok {
			continue
		}
		coords = append(coords, c)
		summaries = append(summaries, s.Summary())
	}
	if len(coords) == 0 {
		return nil, nil, ErrNoRoutableStation
	}
	return coords, summaries, nil
}
